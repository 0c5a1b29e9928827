package service

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiaot623/chatbridge/internal/domain"
	"github.com/xiaot623/chatbridge/internal/retry"
)

const maxCancelWait = 2 * time.Second

// PollRun queries the run status every PollInterval until the run leaves
// queued/in_progress or MaxWait has elapsed. The budget is checked before each
// sleep, so no query starts after the deadline has passed.
//
// The returned PollResult is always set and reflects the last observed state.
func (s *Service) PollRun(ctx context.Context, run *domain.Run) (*domain.PollResult, error) {
	ctx, span := s.tracer.Start(ctx, "poll-run")
	defer span.End()

	start := time.Now()
	deadline := start.Add(s.assistant.MaxWait)
	result := &domain.PollResult{Run: *run}

	finish := func(label string) {
		result.Elapsed = time.Since(start)
		s.metrics.observeWait(label, result.Elapsed.Seconds())
		span.SetAttributes(
			attribute.String("run.status", string(result.Run.Status)),
			attribute.Int("run.polls", result.Polls),
		)
	}

	for domain.Decide(result.Run.Status) == domain.DecisionContinue {
		if time.Since(start) > s.assistant.MaxWait {
			finish("timeout")
			s.logger.Warn("run did not settle in time",
				zap.String("thread_id", run.ThreadID),
				zap.String("run_id", run.ID),
				zap.String("status", string(result.Run.Status)),
				zap.Duration("elapsed", result.Elapsed),
			)
			if s.assistant.CancelOnTimeout {
				s.cancelAbandoned(ctx, run)
			}
			return result, &ChatError{Kind: KindTimeout, Status: http.StatusGatewayTimeout, Message: MsgTimeout}
		}

		timer := time.NewTimer(s.assistant.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			finish("aborted")
			return result, internalError(ctx.Err())
		case <-timer.C:
		}

		err := retry.DoUntil(ctx, s.retry, deadline, func(ctx context.Context) error {
			result.Polls++
			s.metrics.observeStatusQuery()
			current, err := s.client.RetrieveRun(ctx, run.ThreadID, run.ID)
			if err != nil {
				return err
			}
			result.Run = *current
			return nil
		})
		if err != nil {
			finish("error")
			recordSpanError(span, err)
			return result, classify(err)
		}
	}

	decision := domain.Decide(result.Run.Status)
	finish(decision.String())

	switch decision {
	case domain.DecisionSuccess:
		return result, nil
	case domain.DecisionUnsupported:
		return result, &ChatError{Kind: KindUnsupportedAction, Status: http.StatusConflict, Message: MsgRequiresAction}
	default:
		s.logger.Warn("run ended without completing",
			zap.String("thread_id", run.ThreadID),
			zap.String("run_id", run.ID),
			zap.String("status", string(result.Run.Status)),
		)
		return result, runFailed(result.Run.Status)
	}
}

// cancelAbandoned asks the remote service to stop a run the caller no longer
// waits for. Failures are only logged.
func (s *Service) cancelAbandoned(ctx context.Context, run *domain.Run) {
	wait := s.assistant.CallTimeout
	if wait <= 0 || wait > maxCancelWait {
		wait = maxCancelWait
	}
	cancelCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), wait)
	defer cancel()

	if _, err := s.client.CancelRun(cancelCtx, run.ThreadID, run.ID); err != nil {
		s.logger.Warn("failed to cancel abandoned run",
			zap.String("run_id", run.ID),
			zap.Error(err),
		)
		return
	}
	s.metrics.observeCancel()
	s.logger.Info("cancelled abandoned run", zap.String("run_id", run.ID))
}
