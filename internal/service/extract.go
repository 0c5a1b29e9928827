package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/xiaot623/chatbridge/internal/domain"
	"github.com/xiaot623/chatbridge/internal/retry"
)

// citationPattern matches inline document citations such as 【3:1†doc.txt】.
var citationPattern = regexp.MustCompile(`【\d+:\d+†[^】]+】`)

// StripCitations removes every citation marker and trims surrounding
// whitespace.
func StripCitations(text string) string {
	return strings.TrimSpace(citationPattern.ReplaceAllString(text, ""))
}

// ExtractReply fetches the newest messages and returns the text of the first
// assistant message. A missing or empty reply yields the sentinel text.
func (s *Service) ExtractReply(ctx context.Context, threadID string) (*domain.ExtractedReply, error) {
	return s.extractReply(ctx, threadID, time.Time{})
}

// extractReply is ExtractReply with retries bounded by deadline.
func (s *Service) extractReply(ctx context.Context, threadID string, deadline time.Time) (*domain.ExtractedReply, error) {
	ctx, span := s.tracer.Start(ctx, "extract-reply")
	defer span.End()

	var messages []domain.Message
	err := retry.DoUntil(ctx, s.retry, deadline, func(ctx context.Context) error {
		var err error
		messages, err = s.client.ListMessages(ctx, threadID, s.assistant.MessagesLimit)
		return err
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, classify(err)
	}

	reply := &domain.ExtractedReply{ThreadID: threadID, Text: MsgNoValidResponse}
	msg := firstAssistant(messages)
	if msg == nil || domain.IsEmpty(msg.Content) {
		return reply, nil
	}
	reply.Text = StripCitations(msg.Content.PlainText())
	return reply, nil
}

func firstAssistant(messages []domain.Message) *domain.Message {
	for i := range messages {
		if messages[i].Role == domain.RoleAssistant {
			return &messages[i]
		}
	}
	return nil
}
