package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/audit"
	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/engine"
	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/httpapi"
	"github.com/Kumaragurubaran2005/Leaf-cloud/pkg/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("component", "gateway")

	cfg := config.LoadGatewayConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger.Info("starting leaf-cloud gateway",
		"port", cfg.GatewayPort,
		"heartbeatTimeout", cfg.HeartbeatTimeout,
		"sweepInterval", cfg.SweepInterval,
	)

	var auditAdapter audit.Adapter
	if cfg.AuditStoreURL != "" {
		logger.Info("audit writes enabled", "auditStoreUrl", cfg.AuditStoreURL)
		auditAdapter = audit.NewHTTPAdapter(cfg.AuditStoreURL, logger)
	} else {
		auditAdapter = audit.NewLogAdapter(logger)
	}

	eng := engine.New(clockwork.NewRealClock(), cfg.HeartbeatTimeout, cfg.SweepInterval, auditAdapter, logger)
	eng.StartFaultDetector()
	defer eng.StopFaultDetector()

	server := httpapi.NewServer(eng, logger)

	addr := fmt.Sprintf(":%d", cfg.GatewayPort)
	httpServer := &http.Server{Addr: addr, Handler: server.Routes()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		logger.Error("http server failed", "err", err)
		os.Exit(1)
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SweepInterval*2)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", "err", err)
		}
	}
}
