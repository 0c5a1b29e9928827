package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiaot623/chatbridge/internal/adapter/assistants"
	"github.com/xiaot623/chatbridge/internal/domain"
)

// LaunchRun appends the user message and starts a run. The returned run
// carries the initially reported status, queued when none was reported.
func (s *Service) LaunchRun(ctx context.Context, threadID, message string) (*domain.Run, error) {
	if message == "" {
		return nil, InvalidInput(MsgEmptyMessage)
	}

	ctx, span := s.tracer.Start(ctx, "launch-run")
	defer span.End()

	if err := s.client.CreateMessage(ctx, threadID, message); err != nil {
		recordSpanError(span, err)
		return nil, classify(err)
	}

	run, err := s.client.CreateRun(ctx, threadID, assistants.RunRequest{
		AssistantID:  s.assistant.AssistantID,
		Instructions: s.assistant.Instructions,
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, classify(err)
	}
	if run.Status == "" {
		run.Status = domain.RunStatusQueued
	}
	if run.ThreadID == "" {
		run.ThreadID = threadID
	}

	s.logger.Debug("run launched",
		zap.String("thread_id", threadID),
		zap.String("run_id", run.ID),
		zap.String("status", string(run.Status)),
	)
	return run, nil
}
