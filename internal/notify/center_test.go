package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/teamkonekt/konekt/internal/model"
)

type fakeFetcher struct {
	mu        sync.Mutex
	counts    model.NotificationCounts
	fetchErrs []error
	resetErr  error
	resets    []model.Category
	fetches   int
	block     bool
	canceled  bool
}

func (f *fakeFetcher) FetchCounts(ctx context.Context) (model.NotificationCounts, error) {
	f.mu.Lock()
	f.fetches++
	block := f.block
	var err error
	if len(f.fetchErrs) > 0 {
		err, f.fetchErrs = f.fetchErrs[0], f.fetchErrs[1:]
	}
	counts := f.counts.Clone()
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		f.mu.Lock()
		f.canceled = true
		f.mu.Unlock()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (f *fakeFetcher) ResetCount(ctx context.Context, cat model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, cat)
	return f.resetErr
}

func (f *fakeFetcher) setCounts(c model.NotificationCounts) {
	f.mu.Lock()
	f.counts = c
	f.mu.Unlock()
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

type fakeJournal struct {
	mu      sync.Mutex
	changes []change
}

func (j *fakeJournal) RecordBadgeChange(_ context.Context, cat model.Category, previous, current int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.changes = append(j.changes, change{cat: cat, previous: previous, current: current})
	return nil
}

var session = model.Session{Token: "tok", Role: model.RoleManager, OrganizationName: "Acme"}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStartRequiresSession(t *testing.T) {
	c := New(&fakeFetcher{counts: model.NewNotificationCounts()}, time.Hour, nil)
	if err := c.Start(model.Session{}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if c.Active() {
		t.Fatal("expected center to stay inactive")
	}
}

func TestPollMapsReportsToHome(t *testing.T) {
	f := &fakeFetcher{counts: model.ServerCounts{Reports: 2, Announcements: 1}.Counts()}
	c := New(f, time.Hour, nil)

	start := c.Counts()
	if len(start) != len(model.Categories) || start.Total() != 0 {
		t.Fatalf("expected all-zero start, got %v", start)
	}

	if err := c.Start(session); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()

	waitFor(t, "first poll", func() bool { return c.Count(model.CategoryHome) == 2 })

	got := c.Counts()
	if got[model.CategoryHome] != 2 || got[model.CategoryTasks] != 0 ||
		got[model.CategoryAnnouncements] != 1 || got[model.CategorySuggestions] != 0 {
		t.Fatalf("unexpected counts: %v", got)
	}
}

func TestIncrementThenResetYieldsZero(t *testing.T) {
	f := &fakeFetcher{counts: model.NewNotificationCounts()}
	c := New(f, time.Hour, nil)
	if err := c.Start(session); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()
	waitFor(t, "first poll", func() bool { return f.fetchCount() >= 1 })

	c.Increment(model.CategoryTasks, 3)
	if got := c.Count(model.CategoryTasks); got != 3 {
		t.Fatalf("expected 3 after increment, got %d", got)
	}

	if err := c.Reset(context.Background(), model.CategoryTasks); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := c.Count(model.CategoryTasks); got != 0 {
		t.Fatalf("expected 0 after reset, got %d", got)
	}
	if len(f.resets) != 1 || f.resets[0] != model.CategoryTasks {
		t.Fatalf("expected one server reset for tasks, got %v", f.resets)
	}
}

func TestIncrementClampsAtZero(t *testing.T) {
	f := &fakeFetcher{counts: model.NewNotificationCounts()}
	c := New(f, time.Hour, nil)
	if err := c.Start(session); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()
	waitFor(t, "first poll", func() bool { return f.fetchCount() >= 1 })

	c.Increment(model.CategorySuggestions, 2)
	c.Increment(model.CategorySuggestions, -5)
	if got := c.Count(model.CategorySuggestions); got != 0 {
		t.Fatalf("expected clamp at 0, got %d", got)
	}
}

func TestIncrementIgnoredWhileInactive(t *testing.T) {
	c := New(&fakeFetcher{counts: model.NewNotificationCounts()}, time.Hour, nil)
	c.Increment(model.CategoryTasks, 4)
	if got := c.Count(model.CategoryTasks); got != 0 {
		t.Fatalf("expected inactive center to ignore increments, got %d", got)
	}
}

func TestResetFailureReconcilesWithServer(t *testing.T) {
	f := &fakeFetcher{counts: model.NewNotificationCounts()}
	c := New(f, time.Hour, nil)
	if err := c.Start(session); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()
	waitFor(t, "first poll", func() bool { return f.fetchCount() >= 1 })

	c.Increment(model.CategoryTasks, 2)
	f.resetErr = errors.New("boom")
	f.setCounts(model.ServerCounts{Tasks: 5}.Counts())

	err := c.Reset(context.Background(), model.CategoryTasks)
	if err == nil {
		t.Fatal("expected reset error")
	}
	if got := c.Count(model.CategoryTasks); got != 5 {
		t.Fatalf("expected server value 5 after failed reset, got %d", got)
	}
}

func TestPollErrorsDoNotStopTicker(t *testing.T) {
	f := &fakeFetcher{
		counts:    model.ServerCounts{Suggestions: 4}.Counts(),
		fetchErrs: []error{errors.New("timeout"), errors.New("timeout")},
	}
	c := New(f, 5*time.Millisecond, nil)
	if err := c.Start(session); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()

	waitFor(t, "recovery after failed polls", func() bool {
		return c.Count(model.CategorySuggestions) == 4
	})
	if n := f.fetchCount(); n < 3 {
		t.Fatalf("expected at least 3 fetches, got %d", n)
	}
}

func TestPollOverwritesLocalIncrement(t *testing.T) {
	f := &fakeFetcher{counts: model.NewNotificationCounts()}
	c := New(f, time.Hour, nil)
	if err := c.Start(session); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()
	waitFor(t, "first poll", func() bool { return f.fetchCount() >= 1 })

	c.Increment(model.CategoryAnnouncements, 1)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := c.Count(model.CategoryAnnouncements); got != 0 {
		t.Fatalf("expected server value to win, got %d", got)
	}
}

func TestStopWaitsForPollerAndHaltsFetches(t *testing.T) {
	f := &fakeFetcher{counts: model.NewNotificationCounts(), block: true}
	c := New(f, 5*time.Millisecond, nil)
	if err := c.Start(session); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "in-flight poll", func() bool { return f.fetchCount() >= 1 })

	c.Stop()

	f.mu.Lock()
	canceled := f.canceled
	f.mu.Unlock()
	if !canceled {
		t.Fatal("expected the in-flight poll to be canceled before Stop returned")
	}

	n := f.fetchCount()
	time.Sleep(30 * time.Millisecond)
	if got := f.fetchCount(); got != n {
		t.Fatalf("expected no fetches after Stop, got %d more", got-n)
	}
	if c.Active() {
		t.Fatal("expected inactive after Stop")
	}
	if err := c.Refresh(context.Background()); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestRestartZeroesCounts(t *testing.T) {
	f := &fakeFetcher{counts: model.ServerCounts{Tasks: 3}.Counts()}
	c := New(f, time.Hour, nil)
	if err := c.Start(session); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "first poll", func() bool { return c.Count(model.CategoryTasks) == 3 })
	c.Stop()

	if got := c.Counts().Total(); got != 0 {
		t.Fatalf("expected counts torn down on stop, got %d", got)
	}

	f.setCounts(model.ServerCounts{Tasks: 1}.Counts())
	if err := c.Start(session); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer c.Stop()
	waitFor(t, "poll after restart", func() bool { return c.Count(model.CategoryTasks) == 1 })
}

func TestJournalRecordsIncreasesOnly(t *testing.T) {
	f := &fakeFetcher{counts: model.ServerCounts{Reports: 2}.Counts()}
	j := &fakeJournal{}
	c := New(f, time.Hour, j)
	if err := c.Start(session); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()
	waitFor(t, "first poll journaled", func() bool {
		j.mu.Lock()
		defer j.mu.Unlock()
		return len(j.changes) == 1
	})

	if err := c.Reset(context.Background(), model.CategoryHome); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	c.Increment(model.CategoryTasks, 1)

	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.changes) != 2 {
		t.Fatalf("expected 2 journal entries, got %+v", j.changes)
	}
	if j.changes[0] != (change{cat: model.CategoryHome, previous: 0, current: 2}) {
		t.Fatalf("unexpected first entry %+v", j.changes[0])
	}
	if j.changes[1] != (change{cat: model.CategoryTasks, previous: 0, current: 1}) {
		t.Fatalf("unexpected second entry %+v", j.changes[1])
	}
}

func TestWaitForUpdateDeliversLatestCounts(t *testing.T) {
	f := &fakeFetcher{counts: model.ServerCounts{Announcements: 7}.Counts()}
	c := New(f, time.Hour, nil)
	if err := c.Start(session); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()
	waitFor(t, "first poll", func() bool { return c.Count(model.CategoryAnnouncements) == 7 })

	cmd := c.WaitForUpdate()
	for i := 0; i < 20; i++ {
		msg, ok := cmd().(CountsMsg)
		if !ok {
			t.Fatal("expected CountsMsg")
		}
		if msg.Counts[model.CategoryAnnouncements] == 7 {
			return
		}
	}
	t.Fatal("never received the polled counts")
}
