package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/engine"
	"github.com/Kumaragurubaran2005/Leaf-cloud/pkg/protocol"
)

func newTestServer(t *testing.T) (*httptest.Server, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	eng := engine.New(clock, 30_000_000_000, 5_000_000_000, nil, discardLogger())
	srv := NewServer(eng, discardLogger())
	return httptest.NewServer(srv.Routes()), clock
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func multipartSubmit(t *testing.T, code, dataset, requirement []byte, customerName string, respn int) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, writeFormFile(mw, "code", "code_file.py", code))
	if dataset != nil {
		require.NoError(t, writeFormFile(mw, "dataset", "dataset_file.csv", dataset))
	}
	if requirement != nil {
		require.NoError(t, writeFormFile(mw, "requirement", "requirements.txt", requirement))
	}
	require.NoError(t, mw.WriteField("customername", customerName))
	require.NoError(t, mw.WriteField("respn", fmt.Sprintf("%d", respn)))
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), &buf
}

func writeFormFile(mw *multipart.Writer, field, filename string, data []byte) error {
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}

func TestSubmitJobHappyPathAndStatusAndDownload(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	contentType, body := multipartSubmit(t, []byte("print(1)"), nil, nil, "alice", 2)
	resp, err := http.Post(ts.URL+"/jobs", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var submitResp protocol.SubmitJobResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitResp))
	require.Equal(t, 2, submitResp.NumWorkers)
	customerID := submitResp.CustomerID

	for _, workerID := range []string{"W1", "W2"} {
		claim := claimWorker(t, ts.URL, workerID)
		require.Equal(t, protocol.ClaimAssigned, claim.Status)
		require.Equal(t, customerID, claim.CustomerID)

		submitWorkerResult(t, ts.URL, workerID, customerID, []byte("ok"), []byte(`[{"cpu_percent":1,"mem_usage_MB":2}]`), nil)
	}

	statusResp, err := http.Get(ts.URL + "/jobs/" + customerID + "/status")
	require.NoError(t, err)
	defer statusResp.Body.Close()
	var status protocol.StatusResponse
	require.NoError(t, json.NewDecoder(statusResp.Body).Decode(&status))
	assert.Equal(t, 2, status.Submitted)
	assert.True(t, status.IsCompleted)
	assert.False(t, status.IsCancelled)
	assert.True(t, status.CanDownload)

	dlResp, err := http.Get(ts.URL + "/jobs/" + customerID + "/download")
	require.NoError(t, err)
	defer dlResp.Body.Close()
	assert.Equal(t, http.StatusOK, dlResp.StatusCode)
	assert.Equal(t, "application/zip", dlResp.Header.Get("Content-Type"))
}

func claimWorker(t *testing.T, baseURL, workerID string) claimResponse {
	t.Helper()
	body, err := json.Marshal(claimRequest{WorkerID: workerID})
	require.NoError(t, err)
	resp, err := http.Post(baseURL+"/workers/claim", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out claimResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func submitWorkerResult(t *testing.T, baseURL, workerID, customerID string, result, usage []byte, outputFiles map[string][]byte) protocol.SubmitResultResponse {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("workerId", workerID))
	require.NoError(t, mw.WriteField("customerId", customerID))
	require.NoError(t, writeFormFile(mw, "result", "result.txt", result))
	require.NoError(t, writeFormFile(mw, "usage", "usage.txt", usage))
	for name, data := range outputFiles {
		require.NoError(t, writeFormFile(mw, "output_"+name, name, data))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(baseURL+"/workers/submit", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out protocol.SubmitResultResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestClaimReturnsNoWorkOnEmptyQueue(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	claim := claimWorker(t, ts.URL, "W1")
	assert.Equal(t, protocol.ClaimNoWork, claim.Status)
	assert.Empty(t, claim.TaskID)
}

func TestDownloadRefusedBeforeCompletion(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	contentType, body := multipartSubmit(t, []byte("print(1)"), nil, nil, "bob", 1)
	resp, err := http.Post(ts.URL+"/jobs", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	var submitResp protocol.SubmitJobResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitResp))

	dlResp, err := http.Get(ts.URL + "/jobs/" + submitResp.CustomerID + "/download")
	require.NoError(t, err)
	defer dlResp.Body.Close()
	assert.Equal(t, http.StatusConflict, dlResp.StatusCode)
}

func TestSubmitJobRejectsMissingCode(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("customername", "carol"))
	require.NoError(t, mw.WriteField("respn", "1"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/jobs", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelThenDownloadAndSubmitAreRefused(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	contentType, body := multipartSubmit(t, []byte("print(1)"), nil, nil, "dave", 1)
	resp, err := http.Post(ts.URL+"/jobs", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	var submitResp protocol.SubmitJobResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitResp))

	claim := claimWorker(t, ts.URL, "W1")
	require.Equal(t, protocol.ClaimAssigned, claim.Status)

	cancelResp, err := http.Post(ts.URL+"/jobs/"+submitResp.CustomerID+"/cancel", "application/json", nil)
	require.NoError(t, err)
	defer cancelResp.Body.Close()
	assert.Equal(t, http.StatusOK, cancelResp.StatusCode)

	submitOut := submitWorkerResult(t, ts.URL, "W1", submitResp.CustomerID, []byte("ok"), []byte("ok"), nil)
	assert.Equal(t, "cancelled", submitOut.Status)

	dlResp, err := http.Get(ts.URL + "/jobs/" + submitResp.CustomerID + "/download")
	require.NoError(t, err)
	defer dlResp.Body.Close()
	assert.Equal(t, http.StatusConflict, dlResp.StatusCode)
}

func TestHeartbeatAndCancellationPoll(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	contentType, body := multipartSubmit(t, []byte("print(1)"), nil, nil, "erin", 1)
	resp, err := http.Post(ts.URL+"/jobs", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	var submitResp protocol.SubmitJobResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitResp))

	claim := claimWorker(t, ts.URL, "W1")
	require.Equal(t, protocol.ClaimAssigned, claim.Status)

	hbBody, _ := json.Marshal(heartbeatRequest{WorkerID: "W1", CustomerID: submitResp.CustomerID})
	hbResp, err := http.Post(ts.URL+"/workers/heartbeat", "application/json", bytes.NewReader(hbBody))
	require.NoError(t, err)
	defer hbResp.Body.Close()
	var hb protocol.HeartbeatResponse
	require.NoError(t, json.NewDecoder(hbResp.Body).Decode(&hb))
	assert.True(t, hb.Ok)

	pollResp, err := http.Get(ts.URL + "/workers/cancelled/" + submitResp.CustomerID)
	require.NoError(t, err)
	defer pollResp.Body.Close()
	var poll protocol.CancellationPollResponse
	require.NoError(t, json.NewDecoder(pollResp.Body).Decode(&poll))
	assert.False(t, poll.Cancel)
}
