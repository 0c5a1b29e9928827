package assistants

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/xiaot623/chatbridge/internal/domain"
)

// MockClient is an in-process stand-in for the remote service. Runs complete
// after a fixed number of status queries.
type MockClient struct {
	mu          sync.Mutex
	pollsToDone int
	threads     map[string][]domain.Message
	runs        map[string]*mockRun
}

type mockRun struct {
	run   domain.Run
	polls int
}

// NewMockClient creates a new mock assistants client.
func NewMockClient() *MockClient {
	return &MockClient{
		pollsToDone: 2,
		threads:     make(map[string][]domain.Message),
		runs:        make(map[string]*mockRun),
	}
}

// Ensure MockClient implements Client interface.
var _ Client = (*MockClient)(nil)

// CreateThread returns a fresh thread id.
func (m *MockClient) CreateThread(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := "thread_mock_" + uuid.New().String()[:8]
	m.threads[id] = nil
	return id, nil
}

// CreateMessage records a user message.
func (m *MockClient) CreateMessage(ctx context.Context, threadID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.threads[threadID]; !ok {
		return m.notFound("create_message", "thread", threadID)
	}
	m.threads[threadID] = append(m.threads[threadID], domain.Message{
		ID:       "msg_mock_" + uuid.New().String()[:8],
		ThreadID: threadID,
		Role:     domain.RoleUser,
		Content:  domain.TextContent(content),
	})
	return nil
}

// CreateRun queues a run.
func (m *MockClient) CreateRun(ctx context.Context, threadID string, req RunRequest) (*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.threads[threadID]; !ok {
		return nil, m.notFound("create_run", "thread", threadID)
	}
	r := &mockRun{run: domain.Run{
		ID:       "run_mock_" + uuid.New().String()[:8],
		ThreadID: threadID,
		Status:   domain.RunStatusQueued,
	}}
	m.runs[r.run.ID] = r
	out := r.run
	return &out, nil
}

// RetrieveRun advances the run one step and returns it.
func (m *MockClient) RetrieveRun(ctx context.Context, threadID, runID string) (*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[runID]
	if !ok || r.run.ThreadID != threadID {
		return nil, m.notFound("retrieve_run", "run", runID)
	}
	if domain.Decide(r.run.Status) == domain.DecisionContinue {
		r.polls++
		switch {
		case r.polls >= m.pollsToDone:
			r.run.Status = domain.RunStatusCompleted
			m.threads[threadID] = append(m.threads[threadID], domain.Message{
				ID:       "msg_mock_" + uuid.New().String()[:8],
				ThreadID: threadID,
				Role:     domain.RoleAssistant,
				Content:  m.reply(threadID),
			})
		default:
			r.run.Status = domain.RunStatusInProgress
		}
	}
	out := r.run
	return &out, nil
}

// ListMessages returns the newest messages first.
func (m *MockClient) ListMessages(ctx context.Context, threadID string, limit int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs, ok := m.threads[threadID]
	if !ok {
		return nil, m.notFound("list_messages", "thread", threadID)
	}
	out := make([]domain.Message, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, msgs[i])
	}
	return out, nil
}

// CancelRun marks the run cancelled.
func (m *MockClient) CancelRun(ctx context.Context, threadID, runID string) (*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[runID]
	if !ok {
		return nil, m.notFound("cancel_run", "run", runID)
	}
	r.run.Status = domain.RunStatusCancelled
	out := r.run
	return &out, nil
}

// reply builds the assistant answer for the latest user message. It carries a
// citation marker like the real service does.
func (m *MockClient) reply(threadID string) domain.Content {
	var last string
	msgs := m.threads[threadID]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleUser && msgs[i].Content != nil {
			last = msgs[i].Content.PlainText()
			break
		}
	}
	text := fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.【0:0†mock.txt】", truncate(last, 100))
	return domain.BlockContent{{Type: "text", Text: &domain.BlockText{Value: text}}}
}

func (m *MockClient) notFound(op, kind, id string) error {
	body, _ := json.Marshal(map[string]interface{}{
		"error": map[string]string{
			"message": fmt.Sprintf("No %s found with id '%s'.", kind, id),
			"type":    "invalid_request_error",
		},
	})
	return &UpstreamError{Op: op, StatusCode: 404, Body: body}
}

// truncate truncates a string to the given number of runes.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
