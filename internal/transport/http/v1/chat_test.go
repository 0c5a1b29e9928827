package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/chatbridge/internal/domain"
	"github.com/xiaot623/chatbridge/internal/service"
	"github.com/xiaot623/chatbridge/tests/helpers"
)

func doChat(t *testing.T, h *Handler, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)

	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, "/api/chat", reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp, "error")
	return resp
}

func TestChatMethodNotAllowed(t *testing.T) {
	h, fake := newTestHandler(t, nil)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		rec := doChat(t, h, method, `{"message":"hi"}`)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		resp := decodeError(t, rec)
		assert.JSONEq(t, `"method not allowed"`, string(resp["error"]))
	}
	assert.Equal(t, 0, fake.TotalCalls())
}

func TestChatInvalidMessage(t *testing.T) {
	h, fake := newTestHandler(t, nil)

	bodies := []string{
		"",
		`{}`,
		`{"message":""}`,
		`{"message":null}`,
		`{"message":42}`,
		`{"message":["hi"]}`,
		`{"message":{"text":"hi"}}`,
		`{"message":"hi","threadId":7}`,
		`{"message":`,
		`not json`,
		`["hi"]`,
	}
	for _, body := range bodies {
		rec := doChat(t, h, http.MethodPost, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		decodeError(t, rec)
	}
	assert.Equal(t, 0, fake.TotalCalls())
}

func TestChatSuccess(t *testing.T) {
	h, fake := newTestHandler(t, nil)
	fake.SetThreadID("thread_abc")
	fake.SetMessages(`{"role":"assistant","content":[{"type":"text","text":{"value":"Answer【3:1†doc.txt】 more text"}}]}`)

	rec := doChat(t, h, http.MethodPost, `{"message":"question"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp domain.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "thread_abc", resp.ThreadID)
	assert.Equal(t, "Answer more text", resp.Response)
}

func TestChatNullThreadIDCreatesThread(t *testing.T) {
	h, fake := newTestHandler(t, nil)

	rec := doChat(t, h, http.MethodPost, `{"message":"hi","threadId":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fake.Calls(helpers.OpCreateThread))
}

func TestChatNoAssistantReply(t *testing.T) {
	h, fake := newTestHandler(t, nil)
	fake.SetMessages(`{"role":"user","content":"question"}`)

	rec := doChat(t, h, http.MethodPost, `{"message":"hi","threadId":"thread_1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "thread_1", resp.ThreadID)
	assert.Equal(t, service.MsgNoValidResponse, resp.Response)
}

func TestChatUpstreamErrorMirrored(t *testing.T) {
	h, fake := newTestHandler(t, nil)
	upstream := `{"error":{"message":"No thread found with id 'thread_x'.","type":"invalid_request_error"}}`
	fake.Fail(helpers.OpCreateMessage, helpers.Failure{Status: http.StatusNotFound, Body: upstream})

	rec := doChat(t, h, http.MethodPost, `{"message":"hi","threadId":"thread_x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeError(t, rec)
	assert.JSONEq(t, upstream, string(resp["error"]))
	assert.Equal(t, 0, fake.Calls(helpers.OpCreateRun))
}

func TestChatRunStates(t *testing.T) {
	tests := []struct {
		status string
		code   int
	}{
		{status: "requires_action", code: http.StatusConflict},
		{status: "failed", code: http.StatusBadGateway},
		{status: "expired", code: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			h, fake := newTestHandler(t, nil)
			fake.SetStatuses(tt.status)

			rec := doChat(t, h, http.MethodPost, `{"message":"hi","threadId":"thread_1"}`)
			assert.Equal(t, tt.code, rec.Code)
			decodeError(t, rec)
			assert.Equal(t, 0, fake.Calls(helpers.OpListMessages))
		})
	}
}

func TestChatTimeout(t *testing.T) {
	h, fake := newTestHandler(t, nil)
	fake.SetStatuses("in_progress")

	rec := doChat(t, h, http.MethodPost, `{"message":"hi","threadId":"thread_1"}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	resp := decodeError(t, rec)
	assert.JSONEq(t, `"`+service.MsgTimeout+`"`, string(resp["error"]))
}
