package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/runtime"
	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/workerclient"
	"github.com/Kumaragurubaran2005/Leaf-cloud/pkg/config"
)

// main implements the poll/claim/execute/heartbeat/submit loop of
// original_source/src/Page/main.py's main_worker(), ported from a
// module-level globals-and-threads script to an explicit struct-free loop
// over one workerclient.Client and one runtime.Runner.
func main() {
	cfg := config.LoadWorkerConfig()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("component", "worker", "workerId", cfg.WorkerID)

	runner, err := runtime.NewRunner(cfg.WorkerImage, cfg.WorkerCPULimit, cfg.WorkerMemLimit, logger)
	if err != nil {
		logger.Error("failed to initialize docker runner", "err", err)
		os.Exit(1)
	}
	defer runner.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.CheckConnectivity(ctx); err != nil {
		logger.Error("docker daemon unreachable", "err", err)
		os.Exit(1)
	}

	client := workerclient.NewClient(cfg.GatewayAddr, cfg.WorkerID)

	logger.Info("worker started", "gatewayAddr", cfg.GatewayAddr, "image", cfg.WorkerImage)
	runLoop(ctx, client, runner, logger, cfg.PollInterval, cfg.HeartbeatInterval)
}

func runLoop(ctx context.Context, client *workerclient.Client, runner *runtime.Runner, logger *slog.Logger, pollInterval, heartbeatInterval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutting down")
			return
		default:
		}

		claim, err := client.Claim(ctx)
		if err != nil {
			logger.Warn("claim failed, retrying", "err", err)
			sleepOrDone(ctx, pollInterval)
			continue
		}

		switch claim.Status {
		case "no-work", "cancelled":
			sleepOrDone(ctx, pollInterval)
			continue
		}

		logger.Info("claimed task", "customerId", claim.CustomerID, "taskId", claim.TaskID, "workerIndex", claim.WorkerIndex)
		runClaimedJob(ctx, client, runner, logger, claim, heartbeatInterval)
	}
}

// runClaimedJob runs the heartbeat loop and the job execution concurrently
// under one errgroup.Group, the way prxssh-shard's Worker.Start runs
// workLoop and heartbeatLoop as two grp.Go calls: execution and heartbeat
// are each a leg, and the heartbeat leg is cancelled via context as soon as
// execution returns.
func runClaimedJob(ctx context.Context, client *workerclient.Client, runner *runtime.Runner, logger *slog.Logger, claim workerclient.ClaimResult, heartbeatInterval time.Duration) {
	hbCtx, cancelHeartbeat := context.WithCancel(ctx)
	defer cancelHeartbeat()

	var result runtime.ExecResult
	var execErr error

	var grp errgroup.Group
	grp.Go(func() error {
		return client.HeartbeatLoop(hbCtx, claim.CustomerID, heartbeatInterval)
	})
	grp.Go(func() error {
		defer cancelHeartbeat()
		result, execErr = runner.Exec(ctx, claim.Code, claim.Dataset, claim.Requirement)
		return nil
	})
	_ = grp.Wait()

	if execErr != nil {
		logger.Error("docker execution failed", "customerId", claim.CustomerID, "err", execErr)
		result.Result = []byte("execution failed: " + execErr.Error())
		result.Usage = []byte("[]")
	}

	resp, err := client.SubmitResult(ctx, claim.CustomerID, result.Result, result.Usage, result.OutputFiles)
	if err != nil {
		logger.Error("submit failed", "customerId", claim.CustomerID, "err", err)
		return
	}
	logger.Info("task submitted", "customerId", claim.CustomerID, "status", resp.Status, "isCompleted", resp.IsCompleted)
}

func sleepOrDone(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
