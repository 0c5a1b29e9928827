package assistants

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/xiaot623/chatbridge/internal/domain"
)

// HTTPClient talks to the assistants API over HTTP.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	betaHeader string
	httpClient *http.Client
}

// NewHTTPClient creates a new assistants API client.
func NewHTTPClient(baseURL, apiKey, betaHeader string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		betaHeader: betaHeader,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// messageList is the list envelope returned by GET /threads/{id}/messages.
// Content stays raw so every content shape survives decoding.
type messageList struct {
	Object string        `json:"object"`
	Data   []wireMessage `json:"data"`
}

type wireMessage struct {
	ID       string          `json:"id"`
	ThreadID string          `json:"thread_id"`
	Role     string          `json:"role"`
	Content  json.RawMessage `json:"content"`
}

// CreateThread creates an empty thread.
func (c *HTTPClient) CreateThread(ctx context.Context) (string, error) {
	var thread openai.Thread
	if err := c.do(ctx, "create_thread", http.MethodPost, "/threads", nil, &thread); err != nil {
		return "", err
	}
	if thread.ID == "" {
		return "", fmt.Errorf("create thread response carried no id")
	}
	return thread.ID, nil
}

// CreateMessage appends a user message to the thread.
func (c *HTTPClient) CreateMessage(ctx context.Context, threadID, content string) error {
	req := openai.MessageRequest{
		Role:    domain.RoleUser,
		Content: content,
	}
	return c.do(ctx, "create_message", http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/messages", req, nil)
}

// CreateRun starts a run of the configured assistant on the thread.
func (c *HTTPClient) CreateRun(ctx context.Context, threadID string, req RunRequest) (*domain.Run, error) {
	var run openai.Run
	if err := c.do(ctx, "create_run", http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/runs", req, &run); err != nil {
		return nil, err
	}
	return toDomainRun(run, threadID), nil
}

// RetrieveRun fetches the current run state.
func (c *HTTPClient) RetrieveRun(ctx context.Context, threadID, runID string) (*domain.Run, error) {
	var run openai.Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID)
	if err := c.do(ctx, "retrieve_run", http.MethodGet, path, nil, &run); err != nil {
		return nil, err
	}
	return toDomainRun(run, threadID), nil
}

// CancelRun requests cancellation of an in-flight run.
func (c *HTTPClient) CancelRun(ctx context.Context, threadID, runID string) (*domain.Run, error) {
	var run openai.Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID) + "/cancel"
	if err := c.do(ctx, "cancel_run", http.MethodPost, path, nil, &run); err != nil {
		return nil, err
	}
	return toDomainRun(run, threadID), nil
}

// ListMessages lists the newest messages of the thread, newest first.
func (c *HTTPClient) ListMessages(ctx context.Context, threadID string, limit int) ([]domain.Message, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	query.Set("order", "desc")

	var list messageList
	path := "/threads/" + url.PathEscape(threadID) + "/messages?" + query.Encode()
	if err := c.do(ctx, "list_messages", http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(list.Data))
	for _, m := range list.Data {
		content, err := domain.DecodeContent(m.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to decode message %s: %w", m.ID, err)
		}
		messages = append(messages, domain.Message{
			ID:       m.ID,
			ThreadID: m.ThreadID,
			Role:     m.Role,
			Content:  content,
		})
	}
	return messages, nil
}

// do sends one request. A non-2xx response becomes an *UpstreamError holding
// the response body as received.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(httpReq, in != nil)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: respBody}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", op, err)
	}
	return nil
}

// setHeaders sets common request headers.
func (c *HTTPClient) setHeaders(req *http.Request, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.betaHeader != "" {
		req.Header.Set("OpenAI-Beta", c.betaHeader)
	}
}

func toDomainRun(run openai.Run, threadID string) *domain.Run {
	out := &domain.Run{
		ID:       run.ID,
		ThreadID: run.ThreadID,
		Status:   run.Status,
	}
	if out.ThreadID == "" {
		out.ThreadID = threadID
	}
	return out
}
