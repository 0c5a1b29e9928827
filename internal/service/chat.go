package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiaot623/chatbridge/internal/domain"
	"github.com/xiaot623/chatbridge/policy"
)

// ErrJournalDisabled is returned by ListExchanges when no journal is configured.
var ErrJournalDisabled = errors.New("exchange journal is disabled")

// SendChat runs one chat exchange end to end. Every failure is returned as a
// *ChatError. Invalid input is rejected before any remote call.
func (s *Service) SendChat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := s.tracer.Start(ctx, "send-chat")
	defer span.End()

	ex := &domain.Exchange{
		ExchangeID: uuid.New().String(),
		ThreadID:   req.ThreadID,
		CreatedAt:  time.Now(),
	}

	resp, err := s.sendChat(ctx, req, ex)

	ex.ElapsedMs = time.Since(ex.CreatedAt).Milliseconds()
	if err != nil {
		ce := classify(err)
		recordSpanError(span, ce)
		ex.Outcome = ce.Outcome()
		ex.HTTPStatus = ce.HTTPStatus()
		s.logFailure(ex, ce)
		s.finishExchange(ctx, ex)
		return nil, ce
	}

	ex.HTTPStatus = http.StatusOK
	s.finishExchange(ctx, ex)
	return resp, nil
}

func (s *Service) sendChat(ctx context.Context, req domain.ChatRequest, ex *domain.Exchange) (*domain.ChatResponse, error) {
	if req.Message == "" {
		return nil, InvalidInput(MsgEmptyMessage)
	}
	if err := s.admit(ctx, req); err != nil {
		return nil, err
	}

	threadID, err := s.ResolveSession(ctx, req.ThreadID)
	if err != nil {
		return nil, err
	}
	ex.ThreadID = threadID

	run, err := s.LaunchRun(ctx, threadID, req.Message)
	if err != nil {
		return nil, err
	}
	ex.RunID = run.ID
	ex.Status = run.Status

	result, err := s.PollRun(ctx, run)
	if result != nil {
		ex.Status = result.Run.Status
		ex.Polls = result.Polls
	}
	if err != nil {
		return nil, err
	}

	reply, err := s.extractReply(ctx, threadID, ex.CreatedAt.Add(s.assistant.MaxWait))
	if err != nil {
		return nil, err
	}
	if reply.Text == MsgNoValidResponse {
		ex.Outcome = domain.OutcomeNoReply
	} else {
		ex.Outcome = domain.OutcomeSuccess
	}

	return &domain.ChatResponse{ThreadID: reply.ThreadID, Response: reply.Text}, nil
}

// admit evaluates the message admission policy. Evaluation errors fail closed.
func (s *Service) admit(ctx context.Context, req domain.ChatRequest) error {
	if s.policyEngine == nil {
		return nil
	}
	decision, reason, err := s.policyEngine.Evaluate(ctx, policy.Input{
		Length:    len([]rune(req.Message)),
		MaxLength: s.maxLength,
		HasThread: req.ThreadID != "",
		ThreadID:  req.ThreadID,
	})
	if err != nil {
		return internalError(err)
	}
	if decision == policy.DecisionBlock {
		if reason == "" {
			reason = "message rejected by policy"
		}
		return &ChatError{Kind: KindPolicyBlocked, Status: http.StatusBadRequest, Message: reason}
	}
	return nil
}

// ListExchanges returns the journal records of a thread, newest first.
func (s *Service) ListExchanges(ctx context.Context, threadID string, limit int) ([]domain.Exchange, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	exchanges, err := s.journal.ListExchanges(ctx, threadID, limit)
	if err != nil {
		s.logger.Error("failed to list exchanges",
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	return exchanges, nil
}

// finishExchange records metrics and the journal entry. Journal failures are
// logged and never change the outcome.
func (s *Service) finishExchange(ctx context.Context, ex *domain.Exchange) {
	s.metrics.observeOutcome(ex.Outcome)
	if s.journal == nil || ex.ThreadID == "" {
		return
	}
	if err := s.journal.CreateExchange(context.WithoutCancel(ctx), ex); err != nil {
		s.logger.Warn("failed to record exchange",
			zap.String("exchange_id", ex.ExchangeID),
			zap.Error(err),
		)
	}
}

func (s *Service) logFailure(ex *domain.Exchange, ce *ChatError) {
	fields := []zap.Field{
		zap.String("exchange_id", ex.ExchangeID),
		zap.String("thread_id", ex.ThreadID),
		zap.String("run_id", ex.RunID),
		zap.String("kind", string(ce.Kind)),
		zap.Int("status", ce.HTTPStatus()),
	}
	if ce.Err != nil {
		fields = append(fields, zap.Error(ce.Err))
	}
	switch ce.Kind {
	case KindInternal:
		s.logger.Error("chat exchange failed", fields...)
	case KindInvalidInput, KindPolicyBlocked:
		s.logger.Debug("chat request rejected", fields...)
	default:
		s.logger.Warn("chat exchange failed", fields...)
	}
}
