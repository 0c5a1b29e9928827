package store

import (
	"context"
	"testing"
	"time"

	"github.com/xiaot623/chatbridge/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestSQLiteStoreExchanges(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	base := time.Now().Add(-time.Minute)
	records := []*domain.Exchange{
		{ExchangeID: "ex1", ThreadID: "thread_1", RunID: "run_1", Status: domain.RunStatusCompleted, Outcome: domain.OutcomeSuccess, HTTPStatus: 200, Polls: 2, ElapsedMs: 700, CreatedAt: base},
		{ExchangeID: "ex2", ThreadID: "thread_1", Outcome: domain.OutcomeUpstream, HTTPStatus: 401, CreatedAt: base.Add(time.Second)},
		{ExchangeID: "ex3", ThreadID: "thread_2", RunID: "run_3", Status: domain.RunStatusInProgress, Outcome: domain.OutcomeTimeout, HTTPStatus: 504, Polls: 57, ElapsedMs: 20010, CreatedAt: base},
	}
	for _, r := range records {
		if err := store.CreateExchange(ctx, r); err != nil {
			t.Fatalf("CreateExchange failed: %v", err)
		}
	}

	got, err := store.ListExchanges(ctx, "thread_1", 10)
	if err != nil {
		t.Fatalf("ListExchanges failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", len(got))
	}
	if got[0].ExchangeID != "ex2" || got[1].ExchangeID != "ex1" {
		t.Fatalf("expected newest first, got %s, %s", got[0].ExchangeID, got[1].ExchangeID)
	}
	if got[0].RunID != "" || got[0].Status != "" {
		t.Fatalf("expected empty run fields, got %+v", got[0])
	}
	if got[1].Status != domain.RunStatusCompleted || got[1].Polls != 2 || got[1].Outcome != domain.OutcomeSuccess {
		t.Fatalf("unexpected exchange: %+v", got[1])
	}
}

func TestSQLiteStoreExchangesLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	for i := 0; i < 3; i++ {
		ex := &domain.Exchange{
			ExchangeID: "ex" + string(rune('1'+i)),
			ThreadID:   "thread_1",
			Outcome:    domain.OutcomeSuccess,
			HTTPStatus: 200,
			CreatedAt:  time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := store.CreateExchange(ctx, ex); err != nil {
			t.Fatalf("CreateExchange failed: %v", err)
		}
	}

	got, err := store.ListExchanges(ctx, "thread_1", 1)
	if err != nil {
		t.Fatalf("ListExchanges failed: %v", err)
	}
	if len(got) != 1 || got[0].ExchangeID != "ex3" {
		t.Fatalf("unexpected exchanges: %+v", got)
	}

	empty, err := store.ListExchanges(ctx, "thread_none", 10)
	if err != nil {
		t.Fatalf("ListExchanges failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no exchanges, got %d", len(empty))
	}
}
