package pagination

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/teamkonekt/konekt/internal/api"
)

type item struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

func (i item) GetID() int64 { return i.ID }

func (i item) WithStatus(s string) item {
	i.Status = s
	return i
}

// fakeSource serves items in pages of pageSize. Calls to List can be
// held open per call number to simulate in-flight requests.
type fakeSource struct {
	mu            sync.Mutex
	items         []item
	pageSize      int
	listCalls     int
	listErr       error
	transitionErr error
	updateErr     error
	block         map[int]chan struct{}
	entered       chan int
	nextID        int64

	// transitionGate, when set, holds Transition until it is closed.
	transitionGate    chan struct{}
	transitionEntered chan struct{}
}

func newFakeSource(n, pageSize int) *fakeSource {
	s := &fakeSource{pageSize: pageSize, block: map[int]chan struct{}{}}
	for i := 1; i <= n; i++ {
		s.items = append(s.items, item{ID: int64(i), Status: "PENDING"})
	}
	s.nextID = int64(n)
	return s
}

func (s *fakeSource) holdCall(n int) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.block[n] = ch
	if s.entered == nil {
		s.entered = make(chan int, 8)
	}
	return ch
}

func (s *fakeSource) List(ctx context.Context, page int, f Filter) (api.Page[item], error) {
	s.mu.Lock()
	s.listCalls++
	call := s.listCalls
	gate := s.block[call]
	entered := s.entered
	s.mu.Unlock()

	if gate != nil {
		entered <- call
		select {
		case <-gate:
		case <-ctx.Done():
			return api.Page[item]{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listErr != nil {
		return api.Page[item]{}, s.listErr
	}

	var matching []item
	for _, it := range s.items {
		if f.View == "" || it.Status == f.View {
			matching = append(matching, it)
		}
	}

	total := (len(matching) + s.pageSize - 1) / s.pageSize
	if total < 1 {
		total = 1
	}
	start := (page - 1) * s.pageSize
	if start > len(matching) {
		start = len(matching)
	}
	end := start + s.pageSize
	if end > len(matching) {
		end = len(matching)
	}
	out := append([]item(nil), matching[start:end]...)
	return api.Page[item]{Items: out, Number: page, TotalPages: total}, nil
}

func (s *fakeSource) Create(ctx context.Context, payload any) (item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	it := item{ID: s.nextID, Status: payload.(string)}
	s.items = append([]item{it}, s.items...)
	return it, nil
}

func (s *fakeSource) Update(ctx context.Context, id int64, patch any) (item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return item{}, s.updateErr
	}
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Status = patch.(string)
			return s.items[i], nil
		}
	}
	return item{}, &api.NotFoundError{Path: "/items/", Message: "Not found."}
}

func (s *fakeSource) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return &api.NotFoundError{Path: "/items/", Message: "Not found."}
}

func (s *fakeSource) Transition(ctx context.Context, id int64, status string) (item, error) {
	s.mu.Lock()
	gate, entered, failure := s.transitionGate, s.transitionEntered, s.transitionErr
	s.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return item{}, ctx.Err()
		}
	}
	if failure != nil {
		return item{}, failure
	}
	return s.Update(ctx, id, status)
}

func ids(items []item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalIDs(got []item, want ...int64) bool {
	g := ids(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func TestLoadFirstThenNextPage(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(4, 2)
	c := New[item](src, Options[item]{Name: "tasks"})

	if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	if !equalIDs(c.Items(), 1, 2) {
		t.Fatalf("expected items [1 2], got %v", ids(c.Items()))
	}
	if st := c.State(); st.CurrentPage != 1 || st.TotalPages != 2 {
		t.Fatalf("expected page 1 of 2, got %d of %d", st.CurrentPage, st.TotalPages)
	}

	loaded, err := c.LoadNextPage(ctx)
	if err != nil || !loaded {
		t.Fatalf("LoadNextPage: loaded=%v err=%v", loaded, err)
	}
	if !equalIDs(c.Items(), 1, 2, 3, 4) {
		t.Fatalf("expected items [1 2 3 4], got %v", ids(c.Items()))
	}
	if st := c.State(); st.CurrentPage != 2 {
		t.Fatalf("expected current page 2, got %d", st.CurrentPage)
	}

	calls := src.listCalls
	loaded, err = c.LoadNextPage(ctx)
	if err != nil || loaded {
		t.Fatalf("expected no-op at last page, loaded=%v err=%v", loaded, err)
	}
	if src.listCalls != calls {
		t.Fatalf("expected no fetch at last page, got %d extra calls", src.listCalls-calls)
	}
	if !equalIDs(c.Items(), 1, 2, 3, 4) {
		t.Fatalf("state changed on no-op: %v", ids(c.Items()))
	}
}

func TestItemCountMatchesPagesFetched(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(7, 3)
	c := New[item](src, Options[item]{Name: "reports"})

	if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	sizes := []int{3}
	for {
		before := c.Len()
		loaded, err := c.LoadNextPage(ctx)
		if err != nil {
			t.Fatalf("LoadNextPage: %v", err)
		}
		if !loaded {
			break
		}
		sizes = append(sizes, c.Len()-before)
	}

	sum := 0
	for _, s := range sizes {
		sum += s
	}
	if c.Len() != sum || sum != 7 {
		t.Fatalf("expected 7 items from pages %v, got %d", sizes, c.Len())
	}
	st := c.State()
	if st.CurrentPage > st.TotalPages {
		t.Fatalf("current page %d exceeds total %d", st.CurrentPage, st.TotalPages)
	}
}

func TestLoadNextPageDropsConcurrentCall(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(4, 2)
	c := New[item](src, Options[item]{Name: "tasks"})

	if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}

	gate := src.holdCall(2)
	done := make(chan error, 1)
	go func() {
		_, err := c.LoadNextPage(ctx)
		done <- err
	}()
	<-src.entered

	if st := c.State(); !st.LoadingNext {
		t.Fatal("expected LoadingNext while the fetch is in flight")
	}
	loaded, err := c.LoadNextPage(ctx)
	if err != nil || loaded {
		t.Fatalf("expected concurrent call to be dropped, loaded=%v err=%v", loaded, err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("in-flight LoadNextPage: %v", err)
	}

	if !equalIDs(c.Items(), 1, 2, 3, 4) {
		t.Fatalf("expected no duplicate page, got %v", ids(c.Items()))
	}
	if src.listCalls != 2 {
		t.Fatalf("expected 2 list calls, got %d", src.listCalls)
	}
}

func TestSupersededFirstPageIsDiscarded(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(4, 10)
	src.items[0].Status = "COMPLETED"
	c := New[item](src, Options[item]{Name: "tasks"})

	gate := src.holdCall(1)
	done := make(chan error, 1)
	go func() {
		done <- c.LoadFirstPage(ctx, Filter{})
	}()
	<-src.entered

	if err := c.LoadFirstPage(ctx, Filter{View: "COMPLETED"}); err != nil {
		t.Fatalf("second LoadFirstPage: %v", err)
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first LoadFirstPage: %v", err)
	}

	if !equalIDs(c.Items(), 1) {
		t.Fatalf("expected the newer filter's items [1], got %v", ids(c.Items()))
	}
	if c.State().Filter.View != "COMPLETED" {
		t.Fatalf("expected filter to stay COMPLETED, got %q", c.State().Filter.View)
	}
}

func TestRemoveStepsBackWhenPageEmptied(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(3, 2)
	c := New[item](src, Options[item]{Name: "tasks"})

	if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	if _, err := c.LoadNextPage(ctx); err != nil {
		t.Fatalf("LoadNextPage: %v", err)
	}
	if st := c.State(); st.CurrentPage != 2 {
		t.Fatalf("expected page 2, got %d", st.CurrentPage)
	}

	if err := c.Remove(ctx, 3); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	st := c.State()
	if st.CurrentPage != 1 {
		t.Fatalf("expected current page to step back to 1, got %d", st.CurrentPage)
	}
	if !equalIDs(c.Items(), 1, 2) {
		t.Fatalf("expected items repopulated from page 1, got %v", ids(c.Items()))
	}
}

func TestStepBackReloadClearsSupersededFirstLoad(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(6, 2)
	c := New[item](src, Options[item]{Name: "tasks"})

	if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	if _, err := c.LoadNextPage(ctx); err != nil {
		t.Fatalf("LoadNextPage: %v", err)
	}

	gate := src.holdCall(3)
	done := make(chan error, 1)
	go func() {
		done <- c.LoadFirstPage(ctx, Filter{})
	}()
	<-src.entered

	if err := c.Remove(ctx, 3); err != nil {
		t.Fatalf("Remove 3: %v", err)
	}
	if err := c.Remove(ctx, 4); err != nil {
		t.Fatalf("Remove 4: %v", err)
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("refresh: %v", err)
	}

	st := c.State()
	if st.LoadingFirst || st.LoadingNext {
		t.Fatalf("expected no load in flight, got first=%v next=%v", st.LoadingFirst, st.LoadingNext)
	}
	if st.CurrentPage != 1 {
		t.Fatalf("expected page 1 after stepping back, got %d", st.CurrentPage)
	}

	loaded, err := c.LoadNextPage(ctx)
	if err != nil || !loaded {
		t.Fatalf("LoadNextPage after step back: loaded=%v err=%v", loaded, err)
	}
	if !equalIDs(c.Items(), 1, 2, 5, 6) {
		t.Fatalf("expected items [1 2 5 6], got %v", ids(c.Items()))
	}
}

func TestRemoveKeepsPageWhenItemsRemain(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(4, 2)
	c := New[item](src, Options[item]{Name: "tasks"})

	if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	if _, err := c.LoadNextPage(ctx); err != nil {
		t.Fatalf("LoadNextPage: %v", err)
	}
	calls := src.listCalls

	if err := c.Remove(ctx, 4); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if st := c.State(); st.CurrentPage != 2 {
		t.Fatalf("expected to stay on page 2, got %d", st.CurrentPage)
	}
	if !equalIDs(c.Items(), 1, 2, 3) {
		t.Fatalf("expected [1 2 3], got %v", ids(c.Items()))
	}
	if src.listCalls != calls {
		t.Fatal("expected no reload when the page is not emptied")
	}
}

func TestRemoveLastItemOfFirstPage(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(1, 2)
	c := New[item](src, Options[item]{Name: "tasks"})

	if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	if err := c.Remove(ctx, 1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if c.Len() != 0 || c.State().CurrentPage != 1 {
		t.Fatalf("expected empty page 1, got %v page %d", ids(c.Items()), c.State().CurrentPage)
	}
}

func TestUpdateThenReloadShowsServerState(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(3, 10)
	c := New[item](src, Options[item]{Name: "tasks"})

	if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	updated, err := c.Update(ctx, 2, "COMPLETED")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != "COMPLETED" {
		t.Fatalf("expected COMPLETED, got %s", updated.Status)
	}
	if !equalIDs(c.Items(), 1, 2, 3) {
		t.Fatalf("update reordered items: %v", ids(c.Items()))
	}

	if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := c.Find(2)
	if !ok || got.Status != "COMPLETED" {
		t.Fatalf("expected reloaded item 2 COMPLETED, got %+v (found=%v)", got, ok)
	}
}

func TestUpdateNotFoundReloads(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(3, 10)
	c := New[item](src, Options[item]{Name: "tasks"})

	if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}

	// Another client deletes item 2.
	src.items = append(src.items[:1], src.items[2:]...)

	_, err := c.Update(ctx, 2, "COMPLETED")
	if !api.IsNotFoundError(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if !equalIDs(c.Items(), 1, 3) {
		t.Fatalf("expected list re-fetched to [1 3], got %v", ids(c.Items()))
	}
}

func TestTransitionAppliesOptimisticallyAndReverts(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(2, 10)
	c := New[item](src, Options[item]{Name: "suggestions"})

	if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}

	src.transitionErr = &api.ValidationError{StatusCode: 400, Message: "Invalid status transition"}
	_, err := c.Transition(ctx, 1, "COMPLETED")
	if !api.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got, _ := c.Find(1); got.Status != "PENDING" {
		t.Fatalf("expected revert to PENDING, got %s", got.Status)
	}

	src.transitionErr = nil
	got, err := c.Transition(ctx, 1, "IN_PROGRESS")
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if got.Status != "IN_PROGRESS" {
		t.Fatalf("expected IN_PROGRESS, got %s", got.Status)
	}
	if local, _ := c.Find(1); local.Status != "IN_PROGRESS" {
		t.Fatalf("expected local IN_PROGRESS, got %s", local.Status)
	}
}

func TestFailedTransitionKeepsNewerServerCopy(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(2, 10)
	c := New[item](src, Options[item]{Name: "announcements"})

	if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}

	src.mu.Lock()
	src.items[0].Status = "READ"
	src.transitionErr = &api.ValidationError{StatusCode: 400, Message: "Invalid status transition"}
	src.transitionGate = make(chan struct{})
	src.transitionEntered = make(chan struct{}, 1)
	gate, entered := src.transitionGate, src.transitionEntered
	src.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := c.Transition(ctx, 1, "ARCHIVED")
		done <- err
	}()
	<-entered

	if got, _ := c.Find(1); got.Status != "ARCHIVED" {
		t.Fatalf("expected optimistic ARCHIVED, got %s", got.Status)
	}
	if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got, _ := c.Find(1); got.Status != "READ" {
		t.Fatalf("expected reloaded READ, got %s", got.Status)
	}

	close(gate)
	if err := <-done; !api.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got, _ := c.Find(1); got.Status != "READ" {
		t.Fatalf("failed transition overwrote the reloaded copy: got %s, want READ", got.Status)
	}
}

func TestTransitionUnsupported(t *testing.T) {
	src := struct{ Source[item] }{newFakeSource(1, 10)}
	c := New[item](src, Options[item]{Name: "employees"})

	_, err := c.Transition(context.Background(), 1, "READ")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestCreatePolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("prepend", func(t *testing.T) {
		src := newFakeSource(2, 10)
		c := New[item](src, Options[item]{Name: "reports", CreatePolicy: CreatePrepend})
		if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
			t.Fatalf("LoadFirstPage: %v", err)
		}
		calls := src.listCalls

		created, err := c.Create(ctx, "PENDING")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if !equalIDs(c.Items(), created.ID, 1, 2) {
			t.Fatalf("expected new item first, got %v", ids(c.Items()))
		}
		if src.listCalls != calls {
			t.Fatal("prepend policy must not refetch")
		}
	})

	t.Run("refetch", func(t *testing.T) {
		src := newFakeSource(2, 10)
		c := New[item](src, Options[item]{Name: "tasks", CreatePolicy: CreateRefetch})
		if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
			t.Fatalf("LoadFirstPage: %v", err)
		}
		calls := src.listCalls

		if _, err := c.Create(ctx, "PENDING"); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if src.listCalls != calls+1 {
			t.Fatalf("expected one refetch, got %d", src.listCalls-calls)
		}
		if c.Len() != 3 {
			t.Fatalf("expected 3 items after refetch, got %d", c.Len())
		}
	})
}

func TestAuthErrorIsPropagated(t *testing.T) {
	src := newFakeSource(2, 10)
	src.listErr = &api.AuthError{Message: "no active session"}
	c := New[item](src, Options[item]{Name: "tasks"})

	err := c.LoadFirstPage(context.Background(), Filter{})
	if !api.IsAuthError(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if src.listCalls != 1 {
		t.Fatalf("expected no retry, got %d calls", src.listCalls)
	}
	if c.State().LoadingFirst {
		t.Fatal("expected LoadingFirst cleared after failure")
	}
}

func TestCloseDiscardsInFlightResult(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(2, 10)
	c := New[item](src, Options[item]{Name: "tasks"})

	gate := src.holdCall(1)
	done := make(chan error, 1)
	go func() {
		done <- c.LoadFirstPage(ctx, Filter{})
	}()
	<-src.entered

	c.Close()
	close(gate)

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected stale response discarded, got %v", ids(c.Items()))
	}
}

func TestOnFirstPageHook(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(5, 2)

	var seen [][]item
	c := New[item](src, Options[item]{
		Name:        "announcements",
		OnFirstPage: func(items []item) { seen = append(seen, items) },
	})

	if err := c.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	if _, err := c.LoadNextPage(ctx); err != nil {
		t.Fatalf("LoadNextPage: %v", err)
	}
	if len(seen) != 1 || !equalIDs(seen[0], 1, 2) {
		t.Fatalf("expected one first-page callback with [1 2], got %v", seen)
	}
}

type memSnapshots struct {
	payload map[string][]byte
	total   map[string]int
}

func (m *memSnapshots) SaveSnapshot(_ context.Context, resource string, payload []byte, totalPages int) error {
	m.payload[resource] = payload
	m.total[resource] = totalPages
	return nil
}

func (m *memSnapshots) LoadSnapshot(_ context.Context, resource string) ([]byte, int, error) {
	return m.payload[resource], m.total[resource], nil
}

func TestPrimeFromSnapshot(t *testing.T) {
	ctx := context.Background()
	snaps := &memSnapshots{payload: map[string][]byte{}, total: map[string]int{}}

	first := New[item](newFakeSource(3, 2), Options[item]{Name: "tasks", Snapshots: snaps})
	if err := first.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}

	second := New[item](newFakeSource(0, 2), Options[item]{Name: "tasks", Snapshots: snaps})
	if err := second.Prime(ctx); err != nil {
		t.Fatalf("Prime: %v", err)
	}
	if !equalIDs(second.Items(), 1, 2) {
		t.Fatalf("expected primed items [1 2], got %v", ids(second.Items()))
	}
	st := second.State()
	if !st.Stale || st.TotalPages != 2 {
		t.Fatalf("expected stale snapshot with 2 pages, got %+v", st)
	}

	if err := second.LoadFirstPage(ctx, Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	if second.State().Stale || second.Len() != 0 {
		t.Fatalf("expected fresh empty list, got %v stale=%v", ids(second.Items()), second.State().Stale)
	}
}
