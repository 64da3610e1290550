// Package pagination manages page-by-page retrieval and local mutation of
// one resource's collection. A Controller is instantiated per resource
// (tasks, reports, announcements, suggestions, employees) and parameterized
// by the entity type and the Source that talks to the API.
package pagination

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"reflect"
	"sync"

	"github.com/goccy/go-json"

	"github.com/teamkonekt/konekt/internal/api"
)

// Entity is anything with a server-assigned id.
type Entity interface {
	GetID() int64
}

// Filter selects the server-side view of a collection. View names are
// resource specific (e.g. "pending", "completed", "overdue", "mine");
// Query carries extra parameters.
type Filter struct {
	View  string
	Query url.Values
}

// Source is the per-resource API binding a Controller drives.
type Source[T Entity] interface {
	// List fetches one page of the collection for the given filter.
	List(ctx context.Context, page int, f Filter) (api.Page[T], error)

	// Create posts a new entity and returns the server's copy.
	Create(ctx context.Context, payload any) (T, error)

	// Update patches an entity and returns the server's copy.
	Update(ctx context.Context, id int64, patch any) (T, error)

	// Delete removes an entity.
	Delete(ctx context.Context, id int64) error
}

// Transitioner is implemented by sources whose entities have a
// server-enforced status workflow.
type Transitioner[T Entity] interface {
	Transition(ctx context.Context, id int64, status string) (T, error)
}

// StatusSetter is implemented by entity values that can show a status
// change locally before the server confirms it.
type StatusSetter[T any] interface {
	WithStatus(status string) T
}

// Snapshotter persists the first page of a collection between runs.
type Snapshotter interface {
	SaveSnapshot(ctx context.Context, resource string, payload []byte, totalPages int) error

	// LoadSnapshot returns a nil payload when nothing is stored.
	LoadSnapshot(ctx context.Context, resource string) ([]byte, int, error)
}

// CreatePolicy decides how a newly created entity enters the list.
type CreatePolicy int

const (
	// CreateRefetch reloads page 1 so ordering and validation follow the server.
	CreateRefetch CreatePolicy = iota

	// CreatePrepend splices the returned entity at the front (newest first).
	CreatePrepend
)

var (
	// ErrClosed is returned once the controller has been closed; results
	// that arrive afterwards are discarded.
	ErrClosed = errors.New("pagination: controller closed")

	// ErrUnsupported is returned by Transition when the source has no
	// status workflow.
	ErrUnsupported = errors.New("pagination: transition not supported")
)

// Options configures a Controller.
type Options[T Entity] struct {
	// Name identifies the resource in logs and snapshot keys.
	Name string

	CreatePolicy CreatePolicy

	// OnFirstPage is called (outside the lock) with a copy of every
	// freshly loaded first page.
	OnFirstPage func(items []T)

	Snapshots Snapshotter
}

// State is a snapshot of the pagination bookkeeping.
type State struct {
	CurrentPage  int
	TotalPages   int
	LoadingFirst bool
	LoadingNext  bool
	Filter       Filter

	// Stale is true while the items come from a cached snapshot.
	Stale bool
}

// Controller holds one resource's collection. Items are pages
// 1..CurrentPage concatenated in fetch order and never re-sorted.
// It is safe for concurrent use.
type Controller[T Entity] struct {
	src  Source[T]
	opts Options[T]

	mu           sync.Mutex
	items        []T
	pageOf       []int // page number each item was fetched with
	currentPage  int
	totalPages   int
	loadingFirst bool
	loadingNext  bool
	filter       Filter
	gen          uint64
	closed       bool
	stale        bool
}

// New creates a controller over src.
func New[T Entity](src Source[T], opts Options[T]) *Controller[T] {
	if opts.Name == "" {
		opts.Name = "list"
	}
	return &Controller[T]{
		src:         src,
		opts:        opts,
		currentPage: 1,
		totalPages:  1,
	}
}

// Name returns the resource name.
func (c *Controller[T]) Name() string {
	return c.opts.Name
}

// Items returns a copy of the current items.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Len returns the number of loaded items.
func (c *Controller[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Filtered returns the loaded items matching keep, in list order. Use it
// for views the server does not filter.
func (c *Controller[T]) Filtered(keep func(T) bool) []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]T, 0, len(c.items))
	for _, it := range c.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// Find returns the loaded entity with the given id.
func (c *Controller[T]) Find(id int64) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// State returns the current bookkeeping.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		CurrentPage:  c.currentPage,
		TotalPages:   c.totalPages,
		LoadingFirst: c.loadingFirst,
		LoadingNext:  c.loadingNext,
		Filter:       c.filter,
		Stale:        c.stale,
	}
}

// Close marks the controller dead. In-flight responses are dropped.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.gen++
	c.mu.Unlock()
}

// LoadFirstPage resets to page 1 with the given filter and replaces the
// items. A later LoadFirstPage supersedes this one; the superseded result
// is dropped.
func (c *Controller[T]) LoadFirstPage(ctx context.Context, f Filter) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.gen++
	gen := c.gen
	c.filter = f
	c.loadingFirst = true
	c.loadingNext = false
	c.mu.Unlock()

	page, err := c.src.List(ctx, 1, f)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if gen != c.gen {
		c.mu.Unlock()
		return nil
	}
	c.loadingFirst = false
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("loading %s page 1: %w", c.opts.Name, err)
	}

	c.items = append(make([]T, 0, len(page.Items)), page.Items...)
	c.pageOf = make([]int, len(page.Items))
	for i := range c.pageOf {
		c.pageOf[i] = 1
	}
	c.currentPage = 1
	c.totalPages = maxInt(page.TotalPages, 1)
	c.stale = false
	first := append([]T(nil), c.items...)
	totalPages := c.totalPages
	c.mu.Unlock()

	if c.opts.OnFirstPage != nil {
		c.opts.OnFirstPage(first)
	}
	c.saveSnapshot(ctx, first, totalPages)

	return nil
}

// LoadNextPage fetches CurrentPage+1 and appends it. It returns false
// without fetching when the last page is already loaded or another load
// is in flight; concurrent calls are dropped, not queued.
func (c *Controller[T]) LoadNextPage(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	if c.loadingFirst || c.loadingNext || c.currentPage >= c.totalPages {
		c.mu.Unlock()
		return false, nil
	}
	c.loadingNext = true
	gen := c.gen
	next := c.currentPage + 1
	f := c.filter
	c.mu.Unlock()

	page, err := c.src.List(ctx, next, f)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrClosed
	}
	if gen != c.gen {
		return false, nil
	}
	c.loadingNext = false
	if err != nil {
		return false, fmt.Errorf("loading %s page %d: %w", c.opts.Name, next, err)
	}

	c.appendPage(page.Items, next)
	c.currentPage = next
	c.totalPages = maxInt(page.TotalPages, next)
	return true, nil
}

// Create posts payload and brings the new entity into the list according
// to the CreatePolicy.
func (c *Controller[T]) Create(ctx context.Context, payload any) (T, error) {
	var zero T

	created, err := c.src.Create(ctx, payload)
	if err != nil {
		return zero, fmt.Errorf("creating %s: %w", c.opts.Name, err)
	}

	switch c.opts.CreatePolicy {
	case CreatePrepend:
		c.mu.Lock()
		if !c.closed {
			c.items = append([]T{created}, c.items...)
			c.pageOf = append([]int{1}, c.pageOf...)
		}
		c.mu.Unlock()
	default:
		if err := c.LoadFirstPage(ctx, c.currentFilter()); err != nil && !errors.Is(err, ErrClosed) {
			return created, err
		}
	}

	return created, nil
}

// Update patches the entity and replaces it in place. A NotFoundError
// means local state is stale: page 1 is reloaded and the error returned.
func (c *Controller[T]) Update(ctx context.Context, id int64, patch any) (T, error) {
	var zero T

	updated, err := c.src.Update(ctx, id, patch)
	if err != nil {
		if api.IsNotFoundError(err) {
			c.reloadStale(ctx)
		}
		return zero, fmt.Errorf("updating %s %d: %w", c.opts.Name, id, err)
	}

	c.replace(updated)
	return updated, nil
}

// Remove deletes the entity and drops it from the list. When that
// empties the current page and earlier pages exist, the controller steps
// back one page and reloads it.
func (c *Controller[T]) Remove(ctx context.Context, id int64) error {
	if err := c.src.Delete(ctx, id); err != nil {
		if api.IsNotFoundError(err) {
			c.reloadStale(ctx)
		}
		return fmt.Errorf("deleting %s %d: %w", c.opts.Name, id, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return nil
	}
	removedPage := c.pageOf[i]
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.pageOf = append(c.pageOf[:i], c.pageOf[i+1:]...)

	emptied := removedPage == c.currentPage && !c.hasPage(c.currentPage)
	if !emptied || c.currentPage <= 1 {
		c.mu.Unlock()
		return nil
	}
	c.currentPage--
	back := c.currentPage
	c.mu.Unlock()

	return c.reloadPage(ctx, back)
}

// Transition moves an entity to a new status. The local copy is updated
// first when the entity supports it; the server's answer then replaces
// it. On failure the original is restored unless a reload has already
// replaced the optimistic copy.
func (c *Controller[T]) Transition(ctx context.Context, id int64, status string) (T, error) {
	var zero T

	tr, ok := c.src.(Transitioner[T])
	if !ok {
		return zero, ErrUnsupported
	}

	c.mu.Lock()
	var (
		original   T
		optimistic T
		had        bool
	)
	if i := c.indexOf(id); i >= 0 && !c.closed {
		original, optimistic, had = c.items[i], c.items[i], true
		if setter, ok := any(original).(StatusSetter[T]); ok {
			optimistic = setter.WithStatus(status)
			c.items[i] = optimistic
		}
	}
	c.mu.Unlock()

	updated, err := tr.Transition(ctx, id, status)
	if err != nil {
		if had {
			c.revert(original, optimistic)
		}
		if api.IsNotFoundError(err) {
			c.reloadStale(ctx)
		}
		return zero, fmt.Errorf("moving %s %d to %s: %w", c.opts.Name, id, status, err)
	}

	c.replace(updated)
	return updated, nil
}

// Prime fills an empty controller from the stored snapshot so a screen
// has something to show before the first fetch returns.
func (c *Controller[T]) Prime(ctx context.Context) error {
	if c.opts.Snapshots == nil {
		return nil
	}

	payload, totalPages, err := c.opts.Snapshots.LoadSnapshot(ctx, c.opts.Name)
	if err != nil {
		return fmt.Errorf("loading %s snapshot: %w", c.opts.Name, err)
	}
	if payload == nil {
		return nil
	}

	var items []T
	if err := json.Unmarshal(payload, &items); err != nil {
		return fmt.Errorf("decoding %s snapshot: %w", c.opts.Name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || len(c.items) > 0 || c.loadingFirst {
		return nil
	}
	c.items = items
	c.pageOf = make([]int, len(items))
	for i := range c.pageOf {
		c.pageOf[i] = 1
	}
	c.currentPage = 1
	c.totalPages = maxInt(totalPages, 1)
	c.stale = true
	return nil
}

// reloadPage refetches page p and replaces every item from page p on.
func (c *Controller[T]) reloadPage(ctx context.Context, p int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.gen++
	gen := c.gen
	// A first-page load in flight is superseded and will not clear its flag.
	c.loadingFirst = false
	c.loadingNext = true
	f := c.filter
	c.mu.Unlock()

	page, err := c.src.List(ctx, p, f)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if gen != c.gen {
		return nil
	}
	c.loadingNext = false
	if err != nil {
		return fmt.Errorf("reloading %s page %d: %w", c.opts.Name, p, err)
	}

	keep := 0
	for keep < len(c.pageOf) && c.pageOf[keep] < p {
		keep++
	}
	c.items = c.items[:keep]
	c.pageOf = c.pageOf[:keep]
	c.appendPage(page.Items, p)
	c.currentPage = p
	c.totalPages = maxInt(page.TotalPages, p)
	return nil
}

// reloadStale refetches page 1 after the server reported a missing id.
func (c *Controller[T]) reloadStale(ctx context.Context) {
	if err := c.LoadFirstPage(ctx, c.currentFilter()); err != nil && !errors.Is(err, ErrClosed) {
		log.Printf("pagination[%s]: reloading after stale id: %v", c.opts.Name, err)
	}
}

// appendPage appends items fetched as page p, skipping ids already
// present. Callers hold the lock.
func (c *Controller[T]) appendPage(items []T, p int) {
	seen := make(map[int64]struct{}, len(c.items))
	for _, it := range c.items {
		seen[it.GetID()] = struct{}{}
	}
	for _, it := range items {
		if _, dup := seen[it.GetID()]; dup {
			continue
		}
		seen[it.GetID()] = struct{}{}
		c.items = append(c.items, it)
		c.pageOf = append(c.pageOf, p)
	}
}

// replace swaps in the entity with the same id, keeping its position.
func (c *Controller[T]) replace(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if i := c.indexOf(v.GetID()); i >= 0 {
		c.items[i] = v
	}
}

// revert puts original back if the slot still holds the optimistic copy.
func (c *Controller[T]) revert(original, optimistic T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if i := c.indexOf(original.GetID()); i >= 0 && reflect.DeepEqual(c.items[i], optimistic) {
		c.items[i] = original
	}
}

func (c *Controller[T]) currentFilter() Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

func (c *Controller[T]) indexOf(id int64) int {
	for i, it := range c.items {
		if it.GetID() == id {
			return i
		}
	}
	return -1
}

func (c *Controller[T]) hasPage(p int) bool {
	for _, n := range c.pageOf {
		if n == p {
			return true
		}
	}
	return false
}

func (c *Controller[T]) saveSnapshot(ctx context.Context, items []T, totalPages int) {
	if c.opts.Snapshots == nil {
		return
	}
	payload, err := json.Marshal(items)
	if err != nil {
		log.Printf("pagination[%s]: encoding snapshot: %v", c.opts.Name, err)
		return
	}
	if err := c.opts.Snapshots.SaveSnapshot(ctx, c.opts.Name, payload, totalPages); err != nil {
		log.Printf("pagination[%s]: saving snapshot: %v", c.opts.Name, err)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
