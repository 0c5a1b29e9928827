package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/xiaot623/chatbridge/internal/config"
)

// Remote operations recorded by FakeAssistants.
const (
	OpCreateThread  = "create_thread"
	OpCreateMessage = "create_message"
	OpCreateRun     = "create_run"
	OpRetrieveRun   = "retrieve_run"
	OpListMessages  = "list_messages"
	OpCancelRun     = "cancel_run"
)

// Failure is a scripted non-2xx response.
type Failure struct {
	Status int
	Body   string
	// Times limits how often the failure is served; 0 means always.
	Times int
}

// FakeAssistants is an httptest server speaking the assistants API. Run
// statuses are served from a script; the last entry repeats forever.
type FakeAssistants struct {
	Server *httptest.Server

	mu            sync.Mutex
	threadID      string
	initialStatus string
	statuses      []string
	messages      []json.RawMessage
	failures      map[string]*Failure
	calls         map[string]int
	bodies        map[string][]map[string]interface{}
	headers       []http.Header
	paths         []string
}

// NewFakeAssistants starts a fake service that completes runs on the first
// status query and answers with a single text message.
func NewFakeAssistants(t *testing.T) *FakeAssistants {
	t.Helper()

	f := &FakeAssistants{
		threadID:      "thread_new",
		initialStatus: "queued",
		statuses:      []string{"completed"},
		messages: []json.RawMessage{
			json.RawMessage(`{"id":"msg_2","object":"thread.message","role":"assistant","content":[{"type":"text","text":{"value":"Hello there","annotations":[]}}]}`),
		},
		failures: make(map[string]*Failure),
		calls:    make(map[string]int),
		bodies:   make(map[string][]map[string]interface{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /threads", f.handle(OpCreateThread, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"id": f.threadID, "object": "thread", "created_at": time.Now().Unix()})
	}))
	mux.HandleFunc("POST /threads/{tid}/messages", f.handle(OpCreateMessage, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"id": "msg_1", "object": "thread.message", "thread_id": r.PathValue("tid"), "role": "user"})
	}))
	mux.HandleFunc("GET /threads/{tid}/messages", f.handle(OpListMessages, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"object": "list", "data": f.messages})
	}))
	mux.HandleFunc("POST /threads/{tid}/runs", f.handle(OpCreateRun, func(w http.ResponseWriter, r *http.Request) {
		run := map[string]interface{}{"id": "run_1", "object": "thread.run", "thread_id": r.PathValue("tid")}
		if f.initialStatus != "" {
			run["status"] = f.initialStatus
		}
		writeJSON(w, run)
	}))
	mux.HandleFunc("GET /threads/{tid}/runs/{rid}", f.handle(OpRetrieveRun, func(w http.ResponseWriter, r *http.Request) {
		idx := f.calls[OpRetrieveRun] - 1
		if idx >= len(f.statuses) {
			idx = len(f.statuses) - 1
		}
		writeJSON(w, map[string]interface{}{"id": r.PathValue("rid"), "object": "thread.run", "thread_id": r.PathValue("tid"), "status": f.statuses[idx]})
	}))
	mux.HandleFunc("POST /threads/{tid}/runs/{rid}/cancel", f.handle(OpCancelRun, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"id": r.PathValue("rid"), "object": "thread.run", "thread_id": r.PathValue("tid"), "status": "cancelling"})
	}))

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// handle counts the call, records headers and body, then serves a scripted
// failure if one is pending.
func (f *FakeAssistants) handle(op string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.calls[op]++
		f.paths = append(f.paths, r.Method+" "+r.URL.Path)
		f.headers = append(f.headers, r.Header.Clone())
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			var body map[string]interface{}
			if err := json.Unmarshal(raw, &body); err == nil {
				f.bodies[op] = append(f.bodies[op], body)
			}
		}

		if fail, ok := f.failures[op]; ok {
			if fail.Times > 0 {
				fail.Times--
				if fail.Times == 0 {
					delete(f.failures, op)
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fail.Status)
			fmt.Fprint(w, fail.Body)
			return
		}
		next(w, r)
	}
}

// URL is the base URL to configure the client with.
func (f *FakeAssistants) URL() string {
	return f.Server.URL
}

// SetThreadID sets the id minted by create thread.
func (f *FakeAssistants) SetThreadID(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threadID = id
}

// SetInitialStatus sets the status returned by create run; "" omits it.
func (f *FakeAssistants) SetInitialStatus(status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initialStatus = status
}

// SetStatuses scripts the statuses returned by successive status queries.
func (f *FakeAssistants) SetStatuses(statuses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = statuses
}

// SetMessages replaces the message listing with raw JSON message objects.
func (f *FakeAssistants) SetMessages(messages ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = f.messages[:0]
	for _, m := range messages {
		f.messages = append(f.messages, json.RawMessage(m))
	}
}

// Fail scripts a non-2xx response for op.
func (f *FakeAssistants) Fail(op string, failure Failure) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fail := failure
	f.failures[op] = &fail
}

// Calls returns how often op was called.
func (f *FakeAssistants) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of requests received.
func (f *FakeAssistants) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// Bodies returns the decoded JSON bodies sent to op.
func (f *FakeAssistants) Bodies(op string) []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]interface{}(nil), f.bodies[op]...)
}

// Paths returns "METHOD /path" for every request received, in order.
func (f *FakeAssistants) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

// Headers returns the headers of every request received.
func (f *FakeAssistants) Headers() []http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]http.Header(nil), f.headers...)
}

// Config returns a bridge configuration pointed at the fake with short
// polling settings.
func (f *FakeAssistants) Config() *config.Config {
	return &config.Config{
		HTTPPort: 0,
		Assistant: config.Assistant{
			Credential:    "sk-test",
			AssistantID:   "asst_test",
			BaseURL:       f.URL(),
			BetaHeader:    "assistants=v2",
			PollInterval:  10 * time.Millisecond,
			MaxWait:       200 * time.Millisecond,
			Instructions:  config.DefaultInstructions,
			MessagesLimit: 1,
			CallTimeout:   time.Second,
		},
		Retry:            config.Retry{MaxAttempts: 1},
		MaxMessageLength: 32768,
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
