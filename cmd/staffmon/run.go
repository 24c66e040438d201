package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/agent"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/config"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/delivery"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/persist"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/probe"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/snapshot"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/store"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/version"
)

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the collection loop until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd.Context(), *configPath)
		},
	}
}

func runAgent(parent context.Context, configPath string) error {
	cfg, logger, err := setup(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fields := []zap.Field{zap.String("collector", cfg.API.BaseURL)}
	for k, v := range version.Map() {
		fields = append(fields, zap.String(k, v))
	}
	logger.Info("staffmon starting", fields...)

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	opts := []agent.Option{agent.WithSender(client)}

	if cfg.Persist.Enabled {
		opts = append(opts, agent.WithPersister(persist.NewFileWriter(cfg.Persist.Dir)))
	}

	if cfg.History.Path != "" {
		hist, err := store.OpenHistory(parent, cfg.History.Path, version.Short())
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer hist.Close()
		opts = append(opts, agent.WithHistory(hist))
	}

	if cfg.Daemon.PIDFile != "" {
		if err := writePIDFile(cfg.Daemon.PIDFile); err != nil {
			return err
		}
		defer func() {
			if err := removePIDFile(cfg.Daemon.PIDFile); err != nil {
				logger.Warn("failed to remove pid file", zap.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.Metrics.Listen != "" {
		srv := startMetricsServer(cfg.Metrics.Listen, logger.Named("metrics"))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	a := agent.NewAgent(
		agent.Config{Interval: cfg.Collect.Interval},
		logger.Named("agent"),
		newAssembler(cfg, logger),
		opts...,
	)
	if err := a.Run(ctx); err != nil {
		return fmt.Errorf("agent: %w", err)
	}

	logger.Info("staffmon stopped")
	return nil
}

func newAssembler(cfg *config.Config, logger *zap.Logger) *snapshot.Assembler {
	runner := probe.NewExecRunner(logger.Named("probe"), cfg.Collect.CommandTimeout)
	return snapshot.New(runner, logger.Named("snapshot"),
		snapshot.WithMaxServices(cfg.Collect.MaxServices),
	)
}

func newClient(cfg *config.Config, logger *zap.Logger) (*delivery.Client, error) {
	client, err := delivery.NewClient(delivery.Config{
		BaseURL:    cfg.API.BaseURL,
		APIKey:     cfg.API.APIKey,
		Timeout:    cfg.API.Timeout(),
		RateLimit:  cfg.API.RateLimit,
		RetryCount: cfg.API.RetryCount,
	}, logger.Named("delivery"))
	if err != nil {
		return nil, fmt.Errorf("create delivery client: %w", err)
	}
	return client, nil
}

// startMetricsServer serves the default prometheus registry on addr.
func startMetricsServer(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("metrics listener started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", zap.Error(err))
		}
	}()
	return srv
}
