package service

import (
	"context"

	"go.uber.org/zap"
)

// ResolveSession returns threadID unchanged when set, otherwise creates a new
// thread. A supplied id is never validated remotely.
func (s *Service) ResolveSession(ctx context.Context, threadID string) (string, error) {
	if threadID != "" {
		return threadID, nil
	}

	ctx, span := s.tracer.Start(ctx, "resolve-session")
	defer span.End()

	id, err := s.client.CreateThread(ctx)
	if err != nil {
		recordSpanError(span, err)
		return "", classify(err)
	}
	s.logger.Debug("thread created", zap.String("thread_id", id))
	return id, nil
}
