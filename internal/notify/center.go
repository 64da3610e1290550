// Package notify keeps the per-category unread badge counts. A Center
// polls the counts endpoint while a session is active and accepts local
// increments and resets between polls.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teamkonekt/konekt/internal/model"
)

// State is the lifecycle state of a Center.
type State int

const (
	Inactive State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// fetchTimeout bounds a single counts request.
const fetchTimeout = 30 * time.Second

// ErrNoSession is returned by Start when the session carries no token.
var ErrNoSession = errors.New("notify: no active session")

// ErrInactive is returned by Refresh when the center is not polling.
var ErrInactive = errors.New("notify: center is inactive")

// Fetcher reads and resets the server-side counts. *api.Client satisfies it.
type Fetcher interface {
	FetchCounts(ctx context.Context) (model.NotificationCounts, error)
	ResetCount(ctx context.Context, cat model.Category) error
}

// Journal records badge increases. It may be nil.
type Journal interface {
	RecordBadgeChange(ctx context.Context, cat model.Category, previous, current int) error
}

// CountsMsg is a tea.Msg carrying a snapshot of the counts. Err is set
// when a background poll failed; Counts is then the last known value.
type CountsMsg struct {
	Counts model.NotificationCounts
	Err    error
}

type change struct {
	cat      model.Category
	previous int
	current  int
}

// Center is the single source of truth for badge counts.
type Center struct {
	fetcher  Fetcher
	journal  Journal
	interval time.Duration

	mu      sync.Mutex
	state   State
	counts  model.NotificationCounts
	gen     uint64
	stopCh  chan struct{}
	done    chan struct{}
	trigger chan struct{}
	updates chan CountsMsg
}

// New creates an inactive center. A non-positive interval falls back to
// the default poll interval.
func New(f Fetcher, interval time.Duration, journal Journal) *Center {
	if interval <= 0 {
		interval = model.DefaultPollIntervalMs * time.Millisecond
	}
	return &Center{
		fetcher:  f,
		journal:  journal,
		interval: interval,
		counts:   model.NewNotificationCounts(),
		trigger:  make(chan struct{}, 1),
		updates:  make(chan CountsMsg, 16),
	}
}

// Start zeroes the counts and begins polling: once immediately, then
// every interval. Starting an active center is a no-op.
func (c *Center) Start(s model.Session) error {
	if !s.Active() {
		return ErrNoSession
	}

	c.mu.Lock()
	if c.state == Active {
		c.mu.Unlock()
		return nil
	}
	c.state = Active
	c.gen++
	c.counts = model.NewNotificationCounts()
	c.stopCh = make(chan struct{})
	c.done = make(chan struct{})
	stop, done, gen := c.stopCh, c.done, c.gen
	c.mu.Unlock()

	go c.run(stop, done, gen)
	c.publish(nil)
	return nil
}

// Stop cancels polling and returns once the poll goroutine has exited,
// so no counts request is issued after Stop returns. Counts are zeroed.
func (c *Center) Stop() {
	c.mu.Lock()
	if c.state != Active {
		c.mu.Unlock()
		return
	}
	close(c.stopCh)
	done := c.done
	c.state = Inactive
	c.gen++
	c.mu.Unlock()

	<-done

	c.mu.Lock()
	c.counts = model.NewNotificationCounts()
	c.mu.Unlock()
	c.publish(nil)
}

// State returns the lifecycle state.
func (c *Center) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active reports whether the center is polling.
func (c *Center) Active() bool {
	return c.State() == Active
}

// Counts returns a snapshot of the counts.
func (c *Center) Counts() model.NotificationCounts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts.Clone()
}

// Count returns one category's count.
func (c *Center) Count(cat model.Category) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[cat]
}

// Increment adds amount to the category locally. The result is clamped at
// zero. The next poll may overwrite it.
func (c *Center) Increment(cat model.Category, amount int) {
	if !cat.Valid() || amount == 0 {
		return
	}

	c.mu.Lock()
	if c.state != Active {
		c.mu.Unlock()
		return
	}
	prev := c.counts[cat]
	c.counts.Add(cat, amount)
	cur := c.counts[cat]
	c.mu.Unlock()

	if cur > prev {
		c.record([]change{{cat: cat, previous: prev, current: cur}})
	}
	c.publish(nil)
}

// Reset zeroes the category locally, then asks the server to reset it.
// When the server call fails the counts are re-fetched instead of
// restored, and the server error is returned.
func (c *Center) Reset(ctx context.Context, cat model.Category) error {
	if !cat.Valid() {
		return fmt.Errorf("notify: unknown category %q", cat)
	}

	c.mu.Lock()
	if c.state != Active {
		c.mu.Unlock()
		return ErrInactive
	}
	c.counts.Set(cat, 0)
	c.mu.Unlock()
	c.publish(nil)

	if err := c.fetcher.ResetCount(ctx, cat); err != nil {
		log.Printf("notify: resetting %s count: %v", cat, err)
		if rerr := c.Refresh(ctx); rerr != nil && !errors.Is(rerr, ErrInactive) {
			log.Printf("notify: reconciling after failed reset: %v", rerr)
		}
		return fmt.Errorf("resetting %s count: %w", cat, err)
	}
	return nil
}

// Refresh fetches the counts and overwrites all four categories.
func (c *Center) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Active {
		c.mu.Unlock()
		return ErrInactive
	}
	gen := c.gen
	c.mu.Unlock()

	counts, err := c.fetcher.FetchCounts(ctx)
	if err != nil {
		return fmt.Errorf("fetching notification counts: %w", err)
	}
	c.apply(counts, gen)
	return nil
}

// Poll asks the poll goroutine for an immediate fetch. It never blocks.
func (c *Center) Poll() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Updates returns the channel of count snapshots.
func (c *Center) Updates() <-chan CountsMsg {
	return c.updates
}

// WaitForUpdate returns a tea.Cmd that waits for the next CountsMsg.
// Call it again after handling each message to keep listening.
func (c *Center) WaitForUpdate() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-c.updates
		if !ok {
			return nil
		}
		return msg
	}
}

func (c *Center) run(stop <-chan struct{}, done chan<- struct{}, gen uint64) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.poll(ctx, gen)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.poll(ctx, gen)
		case <-c.trigger:
			c.poll(ctx, gen)
		}
	}
}

// poll performs one background fetch. Failures are logged and never stop
// the ticker.
func (c *Center) poll(ctx context.Context, gen uint64) {
	fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	counts, err := c.fetcher.FetchCounts(fctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("notify: polling counts: %v", err)
		c.publish(err)
		return
	}
	c.apply(counts, gen)
}

// apply overwrites the counts with a server snapshot taken during
// generation gen. Snapshots from an earlier session are dropped.
func (c *Center) apply(counts model.NotificationCounts, gen uint64) {
	c.mu.Lock()
	if c.state != Active || gen != c.gen {
		c.mu.Unlock()
		return
	}
	var changes []change
	for _, cat := range model.Categories {
		prev := c.counts[cat]
		c.counts.Set(cat, counts[cat])
		if cur := c.counts[cat]; cur > prev {
			changes = append(changes, change{cat: cat, previous: prev, current: cur})
		}
	}
	c.mu.Unlock()

	c.record(changes)
	c.publish(nil)
}

func (c *Center) record(changes []change) {
	if c.journal == nil || len(changes) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, ch := range changes {
		if err := c.journal.RecordBadgeChange(ctx, ch.cat, ch.previous, ch.current); err != nil {
			log.Printf("notify: journaling %s badge: %v", ch.cat, err)
		}
	}
}

// publish sends the current counts without blocking. When the channel is
// full the oldest snapshot is dropped so the newest always gets through.
func (c *Center) publish(err error) {
	msg := CountsMsg{Counts: c.Counts(), Err: err}
	for i := 0; i < 2; i++ {
		select {
		case c.updates <- msg:
			return
		default:
		}
		select {
		case <-c.updates:
		default:
		}
	}
}
