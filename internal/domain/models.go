package domain

import (
	"time"
)

// Message is a single message of a remote thread.
type Message struct {
	ID       string  `json:"id"`
	ThreadID string  `json:"thread_id"`
	Role     string  `json:"role"` // user, assistant
	Content  Content `json:"-"`
}

// Run is one asynchronous invocation of the assistant against a thread.
type Run struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"thread_id"`
	Status   RunStatus `json:"status"`
}

// PollResult is the last observed run state once polling stops.
type PollResult struct {
	Run     Run
	Elapsed time.Duration
	Polls   int
}

// ExtractedReply is the only artifact returned to the caller.
type ExtractedReply struct {
	ThreadID string
	Text     string
}

// Exchange is a journal record of one chat request. It never holds message text.
type Exchange struct {
	ExchangeID string    `json:"exchange_id"`
	ThreadID   string    `json:"thread_id"`
	RunID      string    `json:"run_id,omitempty"`
	Status     RunStatus `json:"status,omitempty"`
	Outcome    Outcome   `json:"outcome"`
	HTTPStatus int       `json:"http_status"`
	Polls      int       `json:"polls"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
