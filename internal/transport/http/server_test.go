package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xiaot623/chatbridge/internal/adapter/assistants"
	"github.com/xiaot623/chatbridge/internal/service"
	"github.com/xiaot623/chatbridge/policy"
	"github.com/xiaot623/chatbridge/tests/helpers"
)

func newTestServer(t *testing.T) (*echo.Echo, *observer.ObservedLogs) {
	t.Helper()
	fake := helpers.NewFakeAssistants(t)
	cfg := fake.Config()
	cfg.CORSAllowOrigins = []string{"https://chat.example.com"}

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	client := assistants.NewHTTPClient(cfg.Assistant.BaseURL, cfg.Assistant.Credential, cfg.Assistant.BetaHeader, cfg.Assistant.CallTimeout)
	svc := service.New(client, cfg, engine, nil, service.NewMetrics(registry), logger)
	return NewServer(svc, cfg, logger, registry), logs
}

func TestServerChatAndMetrics(t *testing.T) {
	e, logs := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(`{"message":"hi","threadId":"thread_1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	access := logs.FilterMessage("Success").All()
	require.NotEmpty(t, access)
	entry := access[len(access)-1].ContextMap()
	assert.Equal(t, int64(http.StatusOK), entry["status"])
	assert.Equal(t, "POST /api/chat", entry["request"])
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), entry["request_id"])

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `chatbridge_chat_requests_total{outcome="success"} 1`), body)
	assert.Contains(t, body, "chatbridge_poller_status_queries_total 1")
}

func TestServerMethodNotAllowedIsLoggedAsClientError(t *testing.T) {
	e, logs := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"method not allowed"}`, rec.Body.String())
	assert.NotEmpty(t, logs.FilterMessage("Client error").All())
}

func TestServerCORS(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(echo.HeaderOrigin, "https://chat.example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://chat.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
