package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/chatbridge/internal/domain"
)

func newBridgeStub(t *testing.T, seen *[]domain.ChatRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req domain.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		*seen = append(*seen, req)
		if req.Message == "boom" {
			w.WriteHeader(http.StatusGatewayTimeout)
			_, _ = w.Write([]byte(`{"error":"timed out"}`))
			return
		}
		threadID := req.ThreadID
		if threadID == "" {
			threadID = "thread_stub"
		}
		_ = json.NewEncoder(w).Encode(domain.ChatResponse{ThreadID: threadID, Response: "echo: " + req.Message})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBridgeClientKeepsThread(t *testing.T) {
	var seen []domain.ChatRequest
	server := newBridgeStub(t, &seen)
	client := &bridgeClient{addr: server.URL, http: &http.Client{Timeout: time.Second}}

	reply, err := client.send("one")
	require.NoError(t, err)
	assert.Equal(t, "echo: one", reply)

	_, err = client.send("two")
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, "", seen[0].ThreadID)
	assert.Equal(t, "thread_stub", seen[1].ThreadID)
}

func TestBridgeClientReportsErrors(t *testing.T) {
	var seen []domain.ChatRequest
	server := newBridgeStub(t, &seen)
	client := &bridgeClient{addr: server.URL, http: &http.Client{Timeout: time.Second}}

	_, err := client.send("boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "504")
	assert.Contains(t, err.Error(), "timed out")
}

func TestAskCommandOneShot(t *testing.T) {
	var seen []domain.ChatRequest
	server := newBridgeStub(t, &seen)

	cmd := askCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--addr", server.URL, "--thread", "thread_9", "hello", "world"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "echo: hello world\n", out.String())
	assert.Contains(t, errOut.String(), "thread_9")
	require.Len(t, seen, 1)
	assert.Equal(t, "thread_9", seen[0].ThreadID)
}

func TestAskCommandInteractive(t *testing.T) {
	var seen []domain.ChatRequest
	server := newBridgeStub(t, &seen)

	cmd := askCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("first\n\n/new\nsecond\n/quit\n"))
	cmd.SetArgs([]string{"--addr", server.URL})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "echo: first")
	assert.Contains(t, out.String(), "echo: second")
	assert.Contains(t, out.String(), "Bye!")
	require.Len(t, seen, 2)
	assert.Equal(t, "", seen[1].ThreadID)
}

func TestAskCommandInteractiveReportsErrors(t *testing.T) {
	var seen []domain.ChatRequest
	server := newBridgeStub(t, &seen)

	cmd := askCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader("boom\nafter\n/quit\n"))
	cmd.SetArgs([]string{"--addr", server.URL})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errOut.String(), "Send error")
	assert.Contains(t, errOut.String(), "504")
	assert.NotContains(t, out.String(), "Send error")
	assert.Contains(t, out.String(), "echo: after")
	require.Len(t, seen, 2)
}
