package store

import (
	"context"
	"time"

	"github.com/teamkonekt/konekt/internal/model"
)

// Store defines the local cache kept between runs. Nothing in it is
// authoritative; the API always wins.
type Store interface {
	// === Seen markers ===

	LastChecked(ctx context.Context, cat model.Category) (time.Time, bool, error)
	MarkChecked(ctx context.Context, cat model.Category, at time.Time) error

	// === First-page snapshots ===

	SaveSnapshot(ctx context.Context, resource string, payload []byte, totalPages int) error
	LoadSnapshot(ctx context.Context, resource string) ([]byte, int, error)

	// === Badge journal ===

	RecordBadgeChange(ctx context.Context, cat model.Category, previous, current int) error
	RecentBadgeEvents(ctx context.Context, limit int) ([]model.BadgeEvent, error)
	MarkBadgeEventsRead(ctx context.Context, cat model.Category) error

	// Clear removes everything cached for the signed-in user.
	Clear(ctx context.Context) error

	Close() error
}
