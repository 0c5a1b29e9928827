package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/chatbridge/internal/domain"
	"github.com/xiaot623/chatbridge/internal/service"
	"github.com/xiaot623/chatbridge/tests/helpers"
)

// brokenStore fails every call with a driver-looking error.
type brokenStore struct{}

func (brokenStore) CreateExchange(ctx context.Context, ex *domain.Exchange) error {
	return errors.New("sqlite3: database disk image is malformed")
}

func (brokenStore) ListExchanges(ctx context.Context, threadID string, limit int) ([]domain.Exchange, error) {
	return nil, errors.New("sqlite3: database disk image is malformed")
}

func (brokenStore) Close() error { return nil }

func TestListExchangesJournalDisabled(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/threads/thread_1/exchanges", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("thread_id")
	c.SetParamValues("thread_1")

	if err := h.ListExchanges(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestListExchangesAfterChat(t *testing.T) {
	journal := helpers.NewTestSQLiteStore(t)
	h, _ := newTestHandler(t, journal)

	for i := 0; i < 2; i++ {
		rec := doChat(t, h, http.MethodPost, `{"message":"hi","threadId":"thread_1"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/threads/thread_1/exchanges?limit=1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("thread_id")
	c.SetParamValues("thread_1")

	if err := h.ListExchanges(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp domain.ListExchangesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Exchanges) != 1 {
		t.Fatalf("expected 1 exchange, got %d", len(resp.Exchanges))
	}
	if resp.Exchanges[0].Outcome != domain.OutcomeSuccess || resp.Exchanges[0].ThreadID != "thread_1" {
		t.Fatalf("unexpected exchange: %+v", resp.Exchanges[0])
	}
}

func TestListExchangesStoreFailureIsGeneric(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, brokenStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/threads/thread_1/exchanges", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("thread_id")
	c.SetParamValues("thread_1")

	if err := h.ListExchanges(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != service.MsgInternal {
		t.Fatalf("expected generic error, got %q", resp["error"])
	}
}
