package audit

import "log/slog"

// LogAdapter is the default Adapter: it writes structured log records
// instead of touching a real store. The teacher never wires a database
// either — its "audit" is a log line — this is the direct analogue built
// with slog instead of log.Printf, per prxssh-shard's logging style.
type LogAdapter struct {
	logger *slog.Logger
}

// NewLogAdapter returns an Adapter that logs every call at debug level
// under the "audit" component.
func NewLogAdapter(logger *slog.Logger) *LogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogAdapter{logger: logger.With("component", "audit")}
}

func (a *LogAdapter) AdjustCounter(workerID string, counter Counter, delta int) {
	a.logger.Debug("counter adjusted", "workerId", workerID, "counter", counter, "delta", delta)
}

func (a *LogAdapter) RecordSubmission(rec SubmissionRecord) {
	a.logger.Debug("submission recorded",
		"customerId", rec.CustomerID,
		"workerId", rec.WorkerID,
		"cpuPercent", rec.Usage.CPUPercent,
		"memoryMB", rec.Usage.MemoryMB,
		"executionTimeSeconds", rec.Usage.ExecutionTimeSeconds,
		"parsedOK", rec.Usage.ParsedOK,
	)
}

func (a *LogAdapter) RecordJob(rec JobRecord) {
	a.logger.Debug("job recorded",
		"customerId", rec.CustomerID,
		"taskId", rec.TaskID,
		"numWorkers", rec.NumWorkers,
		"codeBytes", len(rec.Code),
		"datasetBytes", len(rec.Dataset),
	)
}
