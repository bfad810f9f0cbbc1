package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-units"
)

const (
	codeFileName        = "code_file.py"
	datasetFileName     = "dataset_file.csv"
	requirementFileName = "requirements.txt"
	outputDirName       = "output"
)

// ExecResult is what the worker's poll loop hands to the submit call.
type ExecResult struct {
	ExitCode    int64
	Result      []byte
	Usage       []byte
	OutputFiles map[string][]byte
}

// usageEntry is one sample of sampleUsage's output, in the exact shape
// original_source/src/Page/run_code.py's monitor_container_usage produces —
// so the engine's usage parser (internal/engine/usage.go) consumes it
// without falling back to the text format.
type usageEntry struct {
	Timestamp  string  `json:"timestamp"`
	CPUPercent float64 `json:"cpu_percent"`
	MemUsageMB float64 `json:"mem_usage_MB"`
	MemPercent float64 `json:"mem_percent"`
}

// Exec writes code/dataset/requirement into a fresh temp directory, bind
// mounts it into a throwaway container, installs requirements.txt if
// present, runs code_file.py, streams the combined stdout/stderr into the
// result blob, samples resource usage once per second while the container
// runs, and collects the regular files the job wrote directly under
// outputDirName (see collectOutputFiles). Grounded
// in original_source/src/Page/run_code.py's run_in_docker.
func (r *Runner) Exec(ctx context.Context, code, dataset, requirement []byte) (ExecResult, error) {
	dir, err := os.MkdirTemp("", "leaf-cloud-job-*")
	if err != nil {
		return ExecResult{}, fmt.Errorf("runtime: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := writeJobFiles(dir, code, dataset, requirement); err != nil {
		return ExecResult{}, err
	}
	outputDir := filepath.Join(dir, outputDirName)
	if err := os.Mkdir(outputDir, 0o755); err != nil {
		return ExecResult{}, fmt.Errorf("runtime: output dir: %w", err)
	}

	containerID, err := r.createAndStart(ctx, dir, len(requirement) > 0)
	if err != nil {
		return ExecResult{}, err
	}
	defer func() {
		removeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = r.cli.ContainerRemove(removeCtx, containerID, container.RemoveOptions{Force: true})
	}()

	statsCtx, stopStats := context.WithCancel(ctx)
	var usage []usageEntry
	var usageMu sync.Mutex
	var statsWG sync.WaitGroup
	statsWG.Add(1)
	go func() {
		defer statsWG.Done()
		r.sampleUsage(statsCtx, containerID, &usage, &usageMu)
	}()

	result, exitCode, logErr := r.streamLogsAndWait(ctx, containerID)

	stopStats()
	statsWG.Wait()

	outputFiles, err := collectOutputFiles(outputDir)
	if err != nil {
		r.logger.Warn("collecting output files failed", "err", err)
	}

	usageMu.Lock()
	usageJSON, marshalErr := json.Marshal(usage)
	usageMu.Unlock()
	if marshalErr != nil {
		usageJSON = []byte("[]")
	}

	if logErr != nil {
		return ExecResult{}, logErr
	}

	return ExecResult{
		ExitCode:    exitCode,
		Result:      result,
		Usage:       usageJSON,
		OutputFiles: outputFiles,
	}, nil
}

func writeJobFiles(dir string, code, dataset, requirement []byte) error {
	if err := os.WriteFile(filepath.Join(dir, codeFileName), code, 0o644); err != nil {
		return fmt.Errorf("runtime: write code file: %w", err)
	}
	if len(dataset) > 0 {
		if err := os.WriteFile(filepath.Join(dir, datasetFileName), dataset, 0o644); err != nil {
			return fmt.Errorf("runtime: write dataset file: %w", err)
		}
	}
	if len(requirement) > 0 {
		if err := os.WriteFile(filepath.Join(dir, requirementFileName), requirement, 0o644); err != nil {
			return fmt.Errorf("runtime: write requirements file: %w", err)
		}
	}
	return nil
}

func (r *Runner) createAndStart(ctx context.Context, hostDir string, hasRequirement bool) (string, error) {
	nanoCPUs := int64(r.cpuLimit * 1e9)
	memBytes, err := units.RAMInBytes(r.memLimit)
	if err != nil {
		return "", fmt.Errorf("runtime: invalid memory limit %q: %w", r.memLimit, err)
	}

	var commands []string
	if hasRequirement {
		commands = append(commands, fmt.Sprintf("pip install --no-cache-dir -r /app/%s > /app/pip_install.log 2>&1", requirementFileName))
	}
	commands = append(commands, fmt.Sprintf("python /app/%s", codeFileName))
	finalCmd := strings.Join(commands, " && ")

	cfg := &container.Config{
		Image:      r.image,
		Cmd:        []string{"bash", "-c", finalCmd},
		WorkingDir: "/app",
	}
	hostCfg := &container.HostConfig{
		Binds: []string{hostDir + ":/app"},
		Resources: container.Resources{
			NanoCPUs: nanoCPUs,
			Memory:   memBytes,
		},
	}

	resp, err := r.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("runtime: container create: %w", err)
	}
	if err := r.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("runtime: container start: %w", err)
	}
	return resp.ID, nil
}

// streamLogsAndWait reads the container's combined stdout/stderr into one
// buffer, demultiplexing the docker log stream with stdcopy since the
// container has no TTY, and blocks until the container exits.
func (r *Runner) streamLogsAndWait(ctx context.Context, containerID string) ([]byte, int64, error) {
	logs, err := r.cli.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return nil, -1, fmt.Errorf("runtime: container logs: %w", err)
	}
	defer logs.Close()

	var buf bytes.Buffer
	_, _ = stdcopy.StdCopy(&buf, &buf, logs)

	statusCh, errCh := r.cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		return buf.Bytes(), status.StatusCode, nil
	case err := <-errCh:
		return buf.Bytes(), -1, fmt.Errorf("runtime: container wait: %w", err)
	case <-ctx.Done():
		return buf.Bytes(), -1, ctx.Err()
	}
}

// sampleUsage mirrors monitor_container_usage: decode one JSON stats object
// per tick from the Docker stats stream and compute cpu_percent the same
// delta-based way, until statsCtx is cancelled.
func (r *Runner) sampleUsage(statsCtx context.Context, containerID string, usage *[]usageEntry, mu *sync.Mutex) {
	stats, err := r.cli.ContainerStats(statsCtx, containerID, true)
	if err != nil {
		r.logger.Warn("stats stream unavailable", "err", err)
		return
	}
	defer stats.Body.Close()

	dec := json.NewDecoder(stats.Body)

	for {
		var s dockerStatsJSON
		if err := dec.Decode(&s); err != nil {
			if err != io.EOF {
				r.logger.Debug("usage stream ended", "err", err)
			}
			return
		}

		entry := usageEntry{
			Timestamp:  time.Now().UTC().Format("2006-01-02 15:04:05"),
			CPUPercent: cpuPercent(s),
			MemUsageMB: float64(s.MemoryStats.Usage) / (1024 * 1024),
			MemPercent: memPercent(s),
		}

		mu.Lock()
		*usage = append(*usage, entry)
		mu.Unlock()
	}
}

// dockerStatsJSON is the small subset of the Docker stats JSON payload the
// CPU/memory percentage math needs.
type dockerStatsJSON struct {
	CPUStats struct {
		CPUUsage struct {
			TotalUsage  uint64   `json:"total_usage"`
			PercpuUsage []uint64 `json:"percpu_usage"`
		} `json:"cpu_usage"`
		SystemUsage uint64 `json:"system_cpu_usage"`
	} `json:"cpu_stats"`
	PreCPUStats struct {
		CPUUsage struct {
			TotalUsage uint64 `json:"total_usage"`
		} `json:"cpu_usage"`
		SystemUsage uint64 `json:"system_cpu_usage"`
	} `json:"precpu_stats"`
	MemoryStats struct {
		Usage uint64 `json:"usage"`
		Limit uint64 `json:"limit"`
	} `json:"memory_stats"`
}

func cpuPercent(s dockerStatsJSON) float64 {
	cpuDelta := float64(s.CPUStats.CPUUsage.TotalUsage) - float64(s.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(s.CPUStats.SystemUsage) - float64(s.PreCPUStats.SystemUsage)
	if systemDelta <= 0 || cpuDelta <= 0 {
		return 0
	}
	cpuCount := len(s.CPUStats.CPUUsage.PercpuUsage)
	if cpuCount == 0 {
		cpuCount = 1
	}
	return (cpuDelta / systemDelta) * float64(cpuCount) * 100.0
}

func memPercent(s dockerStatsJSON) float64 {
	if s.MemoryStats.Limit == 0 {
		return 0
	}
	return float64(s.MemoryStats.Usage) / float64(s.MemoryStats.Limit) * 100.0
}

// collectOutputFiles reads every regular file directly under outputDir and
// returns it keyed by its sanitized base name (SPEC_FULL.md §3/§9: no `/`,
// no `..`, no leading `.`).
func collectOutputFiles(outputDir string) (map[string][]byte, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("runtime: read output dir: %w", err)
	}

	files := make(map[string][]byte)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := sanitizeOutputName(entry.Name())
		if name == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(outputDir, entry.Name()))
		if err != nil {
			return files, fmt.Errorf("runtime: read output file %q: %w", entry.Name(), err)
		}
		files[name] = data
	}
	return files, nil
}

func sanitizeOutputName(name string) string {
	if name == "" || name == "." || strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		return ""
	}
	if strings.HasPrefix(name, ".") {
		return ""
	}
	return name
}
