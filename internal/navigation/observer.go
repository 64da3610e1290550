// Package navigation ties screen focus to badge resets and list refreshes.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/teamkonekt/konekt/internal/model"
)

// Screen identifies a top-level screen.
type Screen int

const (
	ScreenHome Screen = iota
	ScreenTasks
	ScreenAnnouncements
	ScreenSuggestionBox
	ScreenEmployees
	ScreenMore
)

var screenNames = map[Screen]string{
	ScreenHome:          "Home",
	ScreenTasks:         "Tasks",
	ScreenAnnouncements: "Announcements",
	ScreenSuggestionBox: "Suggestion Box",
	ScreenEmployees:     "Employees",
	ScreenMore:          "More",
}

func (s Screen) String() string {
	if name, ok := screenNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Screen(%d)", int(s))
}

// Category returns the badge category the screen clears on focus.
// Employees and More have none.
func (s Screen) Category() (model.Category, bool) {
	switch s {
	case ScreenHome:
		return model.CategoryHome, true
	case ScreenTasks:
		return model.CategoryTasks, true
	case ScreenAnnouncements:
		return model.CategoryAnnouncements, true
	case ScreenSuggestionBox:
		return model.CategorySuggestions, true
	}
	return "", false
}

// Resetter clears a badge category. *notify.Center satisfies it.
type Resetter interface {
	Reset(ctx context.Context, cat model.Category) error
}

// RefreshFunc reloads a screen's data when it gains focus.
type RefreshFunc func(ctx context.Context) error

// Observer tracks the focused screen. Each focus transition resets the
// screen's category and runs its refresh hooks once; focusing the screen
// that already has focus does nothing.
type Observer struct {
	resetter Resetter

	mu       sync.Mutex
	current  Screen
	hasFocus bool
	hooks    map[Screen][]RefreshFunc
}

func NewObserver(r Resetter) *Observer {
	return &Observer{
		resetter: r,
		hooks:    make(map[Screen][]RefreshFunc),
	}
}

// OnFocus registers fn to run whenever s gains focus.
func (o *Observer) OnFocus(s Screen, fn RefreshFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hooks[s] = append(o.hooks[s], fn)
}

// Focus records that s has focus. It reports whether this was a
// transition; if so the reset and refresh hooks ran and their errors are
// joined into the returned error.
func (o *Observer) Focus(ctx context.Context, s Screen) (bool, error) {
	o.mu.Lock()
	if o.hasFocus && o.current == s {
		o.mu.Unlock()
		return false, nil
	}
	o.current = s
	o.hasFocus = true
	hooks := append([]RefreshFunc(nil), o.hooks[s]...)
	o.mu.Unlock()

	var errs []error
	if cat, ok := s.Category(); ok && o.resetter != nil {
		if err := o.resetter.Reset(ctx, cat); err != nil {
			errs = append(errs, fmt.Errorf("resetting %s badge: %w", cat, err))
		}
	}
	for _, fn := range hooks {
		if err := fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("refreshing %s: %w", s, err))
		}
	}
	return true, errors.Join(errs...)
}

// Blur clears the focus, e.g. when the app is suspended or the user signs
// out. The next Focus always fires.
func (o *Observer) Blur() {
	o.mu.Lock()
	o.hasFocus = false
	o.mu.Unlock()
}

// Current returns the focused screen.
func (o *Observer) Current() (Screen, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current, o.hasFocus
}
