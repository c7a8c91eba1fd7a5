package memory

import (
	"context"
	"testing"
	"time"

	"email-quiz-service/internal/domain"
)

func TestSessionStoreUpsertReplacesByToken(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	expires := time.Now().Add(time.Hour)
	_ = store.Upsert(ctx, domain.Session{Token: "t1", QuestionID: 1, Email: "a@x.com", ExpiresAt: expires})
	_ = store.Upsert(ctx, domain.Session{Token: "t1", QuestionID: 2, Email: "a@x.com", ExpiresAt: expires})

	session, ok, err := store.Get(ctx, "t1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if session.QuestionID != 2 {
		t.Fatalf("expected replace semantics, got %+v", session)
	}
}

func TestSessionStorePurgeExpired(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_ = store.Upsert(ctx, domain.Session{Token: "old", ExpiresAt: now.Add(-time.Minute)})
	_ = store.Upsert(ctx, domain.Session{Token: "live", ExpiresAt: now.Add(time.Hour)})

	if err := store.PurgeExpired(ctx, now); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "old"); ok {
		t.Fatalf("expected expired session purged")
	}
	if _, ok, _ := store.Get(ctx, "live"); !ok {
		t.Fatalf("expected live session kept")
	}
}

func TestSessionStoreResetAll(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	_ = store.Upsert(ctx, domain.Session{Token: "t1", ExpiresAt: time.Now().Add(time.Hour)})

	if err := store.ResetAll(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "t1"); ok {
		t.Fatalf("expected store emptied")
	}
}
