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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xiaot623/chatbridge/internal/adapter/assistants"
	"github.com/xiaot623/chatbridge/internal/config"
	"github.com/xiaot623/chatbridge/internal/repository"
	"github.com/xiaot623/chatbridge/internal/service"
	handler "github.com/xiaot623/chatbridge/internal/transport/http"
	"github.com/xiaot623/chatbridge/policy"
)

func main() {
	root := &cobra.Command{
		Use:           "chatbridge",
		Short:         "Synchronous chat bridge for the assistants API",
		SilenceErrors: true,
	}
	root.AddCommand(serveCommand(), askCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			// Load configuration
			cfg := config.Load()
			if cmd.Flags().Changed("port") {
				cfg.HTTPPort = port
			}

			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP port (overrides HTTP_PORT)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting chat bridge",
		zap.Int("port", cfg.HTTPPort),
		zap.String("base_url", cfg.Assistant.BaseURL),
		zap.Duration("poll_interval", cfg.Assistant.PollInterval),
		zap.Duration("max_wait", cfg.Assistant.MaxWait),
		zap.Int("retry_max_attempts", cfg.Retry.MaxAttempts),
		zap.Bool("cancel_on_timeout", cfg.Assistant.CancelOnTimeout),
	)

	// Initialize journal
	var journal store.Store
	if cfg.JournalDSN != "" {
		db, err := store.NewSQLiteStore(cfg.JournalDSN)
		if err != nil {
			return fmt.Errorf("failed to initialize journal: %w", err)
		}
		defer db.Close()
		journal = db
		logger.Info("exchange journal enabled", zap.String("dsn", cfg.JournalDSN))
	}

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		return fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client := assistants.NewClient(cfg, logger)
	svc := service.New(client, cfg, policyEngine, journal, service.NewMetrics(registry), logger)
	server := handler.NewServer(svc, cfg, logger, registry)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("HTTP API started", zap.Int("port", cfg.HTTPPort))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("shutting down chat bridge")

	// Graceful shutdown; in-flight requests are bounded by MAX_WAIT.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Assistant.MaxWait+5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown server gracefully", zap.Error(err))
	}

	logger.Info("chat bridge stopped")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
