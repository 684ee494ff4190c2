package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bmrengine/internal/app/middleware"
	appoutbox "bmrengine/internal/app/outbox"
	"bmrengine/internal/domain/estimates"
	infraoutbox "bmrengine/internal/infra/outbox"
)

func TestEstimateCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewEstimateCache()
	cache.now = func() time.Time { return now }

	if err := cache.Set(ctx, middleware.CacheRecord{Key: "k", Payload: []byte("v")}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	rec, ok, err := cache.Get(ctx, "k")
	if err != nil || !ok || string(rec.Payload) != "v" {
		t.Fatalf("expected hit, got ok=%v err=%v rec=%+v", ok, err, rec)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := cache.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
	if cache.Len() != 0 {
		t.Fatalf("expired entry should be dropped, len=%d", cache.Len())
	}
}

func TestEstimateCacheWithoutTTL(t *testing.T) {
	ctx := context.Background()
	cache := NewEstimateCache()
	_ = cache.Set(ctx, middleware.CacheRecord{Key: "k"}, 0)
	cache.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	if _, ok, _ := cache.Get(ctx, "k"); !ok {
		t.Fatalf("entry without ttl should not expire")
	}
}

func TestHistoryRepositoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository()
	for i := 0; i < 3; i++ {
		rec := estimates.Record{ID: estimates.RecordID(fmt.Sprintf("r%d", i)), SubjectID: "alice"}
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	_ = repo.Save(ctx, estimates.Record{ID: "b0", SubjectID: "bob"})

	got, err := repo.ListBySubject(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "r2" || got[1].ID != "r1" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if n, _ := repo.Count(ctx); n != 4 {
		t.Fatalf("expected 4 records, got %d", n)
	}
	if _, err := repo.ListBySubject(ctx, " ", 0); !errors.Is(err, estimates.ErrSubjectRequired) {
		t.Fatalf("expected ErrSubjectRequired, got %v", err)
	}
	if err := repo.Save(ctx, estimates.Record{ID: "x"}); !errors.Is(err, estimates.ErrSubjectRequired) {
		t.Fatalf("expected ErrSubjectRequired on save, got %v", err)
	}
}

func TestHistoryRepositoryRetainsLatest(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository()
	repo.retain = 3
	for i := 0; i < 10; i++ {
		rec := estimates.Record{ID: estimates.RecordID(fmt.Sprintf("r%d", i)), SubjectID: "alice"}
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if kept := len(repo.bySubject["alice"]); kept > 2*repo.retain {
		t.Fatalf("history grew past retention: %d", kept)
	}
	got, err := repo.ListBySubject(ctx, "alice", 50)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].ID != "r9" || got[1].ID != "r8" || got[2].ID != "r7" {
		t.Fatalf("expected latest three newest first, got %+v", got)
	}
	if n, _ := repo.Count(ctx); n != 10 {
		t.Fatalf("count should include dropped records, got %d", n)
	}
}

func TestOutboxClaimLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	box := NewOutbox(0)
	box.now = func() time.Time { return now }

	if err := box.Add(ctx, appoutbox.EventRecord{ID: "e1", Name: "bmr.estimate.completed"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	doc, err := box.Claim(ctx, "w1")
	if err != nil || doc == nil {
		t.Fatalf("expected claim, got %v %v", doc, err)
	}
	if doc.State != infraoutbox.StateClaimed || doc.ClaimedBy != "w1" {
		t.Fatalf("unexpected claimed doc: %+v", doc)
	}
	if again, _ := box.Claim(ctx, "w2"); again != nil {
		t.Fatalf("claimed document must not be handed out twice")
	}

	if err := box.MarkFailed(ctx, "e1", now.Add(time.Second), "boom"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if early, _ := box.Claim(ctx, "w1"); early != nil {
		t.Fatalf("failed document must wait for its next attempt")
	}
	now = now.Add(time.Second)
	retry, _ := box.Claim(ctx, "w1")
	if retry == nil || retry.Attempts != 1 || retry.LastError != "boom" {
		t.Fatalf("unexpected retry doc: %+v", retry)
	}
	if err := box.MarkSent(ctx, "e1"); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if box.Pending() != 0 {
		t.Fatalf("sent document should be dropped")
	}
}

func TestOutboxLimit(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox(1)
	_ = box.Add(ctx, appoutbox.EventRecord{ID: "a"})
	if err := box.Add(ctx, appoutbox.EventRecord{ID: "b"}); !errors.Is(err, ErrOutboxFull) {
		t.Fatalf("expected ErrOutboxFull, got %v", err)
	}
}
