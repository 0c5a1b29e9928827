// Package service implements the chat pipeline: session resolution, run
// launch, bounded polling and reply extraction.
package service

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xiaot623/chatbridge/internal/adapter/assistants"
	"github.com/xiaot623/chatbridge/internal/config"
	"github.com/xiaot623/chatbridge/internal/repository"
	"github.com/xiaot623/chatbridge/internal/retry"
	"github.com/xiaot623/chatbridge/policy"
)

type Service struct {
	client       assistants.Client
	assistant    config.Assistant
	retry        retry.Config
	maxLength    int
	policyEngine *policy.Engine
	journal      store.Store
	metrics      *Metrics
	logger       *zap.Logger
	tracer       trace.Tracer
}

// New builds the pipeline. journal and metrics may be nil.
func New(client assistants.Client, cfg *config.Config, policyEngine *policy.Engine, journal store.Store, metrics *Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	retryCfg := retry.Disabled()
	if cfg.Retry.MaxAttempts > 1 {
		retryCfg = retry.New(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoff, cfg.Retry.MaxBackoff)
	}
	return &Service{
		client:       client,
		assistant:    cfg.Assistant,
		retry:        retryCfg,
		maxLength:    cfg.MaxMessageLength,
		policyEngine: policyEngine,
		journal:      journal,
		metrics:      metrics,
		logger:       logger.Named("service"),
		tracer:       otel.GetTracerProvider().Tracer("chatbridge.service"),
	}
}

// JournalEnabled reports whether exchanges are being recorded.
func (s *Service) JournalEnabled() bool {
	return s.journal != nil
}
