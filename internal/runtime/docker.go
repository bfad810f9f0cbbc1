// Package runtime is the reference worker's Docker-backed execution
// collaborator (SPEC_FULL.md §4.8): it runs one claimed job inside a
// throwaway container and samples the container's resource usage. It is
// external to the engine — workers call it, the engine never does.
package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docker/docker/client"
)

// Runner owns the Docker client used to execute claimed jobs. One Runner is
// shared across a worker process's poll loop; it holds no per-job state.
type Runner struct {
	cli *client.Client

	image    string
	cpuLimit float64
	memLimit string

	logger *slog.Logger
}

// NewRunner connects to the local Docker daemon the same way the teacher's
// Orchestrator does (client.FromEnv + API version negotiation), repurposed
// here from spawning long-lived worker containers to running one job at a
// time inside a throwaway container.
func NewRunner(image string, cpuLimit float64, memLimit string, logger *slog.Logger) (*Runner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("runtime: docker client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cli:      cli,
		image:    image,
		cpuLimit: cpuLimit,
		memLimit: memLimit,
		logger:   logger.With("component", "runtime"),
	}, nil
}

// CheckConnectivity verifies the daemon is reachable, mirroring the
// teacher's Orchestrator.CheckConnectivity startup check.
func (r *Runner) CheckConnectivity(ctx context.Context) error {
	info, err := r.cli.Info(ctx)
	if err != nil {
		return fmt.Errorf("runtime: cannot reach docker daemon: %w", err)
	}
	r.logger.Info("docker daemon connected", "name", info.Name, "ncpu", info.NCPU)
	return nil
}

// Close releases the underlying Docker client's connections.
func (r *Runner) Close() error {
	return r.cli.Close()
}
