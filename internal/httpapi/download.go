package httpapi

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/engine"
)

// downloadMetadata is the JSON manifest spec.md §6 requires alongside the
// human-readable summary.
type downloadMetadata struct {
	CustomerID   string   `json:"customerId"`
	TaskID       string   `json:"taskId"`
	CustomerName string   `json:"customerName"`
	NumWorkers   int      `json:"numWorkers"`
	Workers      []string `json:"workers"`
	CreatedAt    string   `json:"createdAt"`
	CompletedAt  string   `json:"completedAt"`
}

// writeResultArchive streams the result ZIP spec.md §6 describes: per
// worker, a result file and a usage file, plus every one of that worker's
// output files under output/<id>/, a plain-text summary, and a JSON
// metadata manifest. Workers, and each worker's output files, are visited
// in sorted order so the archive's entry order is deterministic across
// downloads.
func writeResultArchive(w io.Writer, job *engine.Job) error {
	zw := zip.NewWriter(w)
	defer zw.Close()

	workers := make([]string, 0, len(job.Results))
	for workerID := range job.Results {
		workers = append(workers, workerID)
	}
	sort.Strings(workers)

	for _, workerID := range workers {
		if err := writeZipEntry(zw, "results/worker_"+workerID+"_result.txt", job.Results[workerID]); err != nil {
			return err
		}
		if err := writeZipEntry(zw, "usage/worker_"+workerID+"_usage.txt", job.Usage[workerID]); err != nil {
			return err
		}
		names := make([]string, 0, len(job.OutputFiles[workerID]))
		for name := range job.OutputFiles[workerID] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := writeZipEntry(zw, "output/"+workerID+"/"+name, job.OutputFiles[workerID][name]); err != nil {
				return err
			}
		}
	}

	if err := writeZipEntry(zw, "task_summary.txt", []byte(taskSummary(job, workers))); err != nil {
		return err
	}

	metadata, err := json.MarshalIndent(downloadMetadata{
		CustomerID:   job.CustomerID,
		TaskID:       job.TaskID,
		CustomerName: job.CustomerName,
		NumWorkers:   job.NumWorkers,
		Workers:      workers,
		CreatedAt:    job.CreatedAt.Format(time.RFC3339),
		CompletedAt:  job.CompletedAt.Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return err
	}
	return writeZipEntry(zw, "metadata.json", metadata)
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return err
}

func taskSummary(job *engine.Job, workers []string) string {
	s := fmt.Sprintf("customer: %s\ntask: %s\nworkers requested: %d\nworkers reporting: %d\ncompleted at: %s\n",
		job.CustomerName, job.TaskID, job.NumWorkers, len(workers), job.CompletedAt.Format(time.RFC3339))
	for _, workerID := range workers {
		s += fmt.Sprintf("  - %s: %d bytes result, %d output file(s)\n", workerID, len(job.Results[workerID]), len(job.OutputFiles[workerID]))
	}
	return s
}
