// Package assistants provides a client for the remote assistants job API
// (threads, messages, runs).
package assistants

import (
	"context"

	"github.com/xiaot623/chatbridge/internal/domain"
)

// Client defines the remote operations the chat pipeline needs.
type Client interface {
	// CreateThread mints a new thread and returns its id.
	CreateThread(ctx context.Context) (string, error)

	// CreateMessage appends a user message to a thread.
	CreateMessage(ctx context.Context, threadID, content string) error

	// CreateRun starts a run on a thread.
	CreateRun(ctx context.Context, threadID string, req RunRequest) (*domain.Run, error)

	// RetrieveRun returns the current state of a run.
	RetrieveRun(ctx context.Context, threadID, runID string) (*domain.Run, error)

	// ListMessages returns the newest messages of a thread, newest first.
	ListMessages(ctx context.Context, threadID string, limit int) ([]domain.Message, error)

	// CancelRun asks the remote service to stop a run.
	CancelRun(ctx context.Context, threadID, runID string) (*domain.Run, error)
}

// RunRequest carries the launch-time options of a run.
type RunRequest struct {
	AssistantID  string `json:"assistant_id"`
	Instructions string `json:"instructions,omitempty"`
}

// Ensure HTTPClient implements Client interface.
var _ Client = (*HTTPClient)(nil)
