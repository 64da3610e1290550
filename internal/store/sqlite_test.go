package store_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/teamkonekt/konekt/internal/model"
	"github.com/teamkonekt/konekt/tests/testutil"
)

func TestMigrationsApplied(t *testing.T) {
	s := testutil.NewTestStore(t)
	v, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 2 {
		t.Fatalf("expected schema version 2, got %d", v)
	}
}

func TestSeenMarkers(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	if _, ok, err := s.LastChecked(ctx, model.CategoryAnnouncements); err != nil || ok {
		t.Fatalf("expected no marker, ok=%v err=%v", ok, err)
	}

	first := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	if err := s.MarkChecked(ctx, model.CategoryAnnouncements, first); err != nil {
		t.Fatalf("MarkChecked: %v", err)
	}
	second := first.Add(time.Hour)
	if err := s.MarkChecked(ctx, model.CategoryAnnouncements, second); err != nil {
		t.Fatalf("MarkChecked: %v", err)
	}

	got, ok, err := s.LastChecked(ctx, model.CategoryAnnouncements)
	if err != nil || !ok {
		t.Fatalf("LastChecked: ok=%v err=%v", ok, err)
	}
	if !got.Equal(second) {
		t.Fatalf("expected %v, got %v", second, got)
	}
}

func TestSnapshots(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	payload, total, err := s.LoadSnapshot(ctx, "tasks")
	if err != nil || payload != nil || total != 0 {
		t.Fatalf("expected empty snapshot, got %q %d %v", payload, total, err)
	}

	if err := s.SaveSnapshot(ctx, "tasks", []byte(`[{"id":1}]`), 3); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := s.SaveSnapshot(ctx, "tasks", []byte(`[{"id":2}]`), 4); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	payload, total, err = s.LoadSnapshot(ctx, "tasks")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !bytes.Equal(payload, []byte(`[{"id":2}]`)) || total != 4 {
		t.Fatalf("expected latest snapshot, got %q %d", payload, total)
	}
}

func TestBadgeJournal(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	if err := s.RecordBadgeChange(ctx, model.CategoryTasks, 0, 2); err != nil {
		t.Fatalf("RecordBadgeChange: %v", err)
	}
	if err := s.RecordBadgeChange(ctx, model.CategoryHome, 1, 3); err != nil {
		t.Fatalf("RecordBadgeChange: %v", err)
	}

	events, err := s.RecentBadgeEvents(ctx, 10)
	if err != nil {
		t.Fatalf("RecentBadgeEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Category != model.CategoryHome || events[0].Current != 3 {
		t.Fatalf("expected newest event first, got %+v", events[0])
	}

	if err := s.MarkBadgeEventsRead(ctx, model.CategoryTasks); err != nil {
		t.Fatalf("MarkBadgeEventsRead: %v", err)
	}
	events, err = s.RecentBadgeEvents(ctx, 10)
	if err != nil {
		t.Fatalf("RecentBadgeEvents: %v", err)
	}
	for _, e := range events {
		if want := e.Category == model.CategoryTasks; e.Read != want {
			t.Fatalf("event %s: expected read=%v, got %v", e.Category, want, e.Read)
		}
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	_ = s.MarkChecked(ctx, model.CategoryAnnouncements, time.Now())
	_ = s.SaveSnapshot(ctx, "reports", []byte(`[]`), 1)
	_ = s.RecordBadgeChange(ctx, model.CategoryTasks, 0, 1)

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if _, ok, _ := s.LastChecked(ctx, model.CategoryAnnouncements); ok {
		t.Fatal("expected markers cleared")
	}
	if payload, _, _ := s.LoadSnapshot(ctx, "reports"); payload != nil {
		t.Fatal("expected snapshots cleared")
	}
	if events, _ := s.RecentBadgeEvents(ctx, 10); len(events) != 0 {
		t.Fatalf("expected journal cleared, got %d", len(events))
	}
}
