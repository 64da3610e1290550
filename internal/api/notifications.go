package api

import (
	"context"

	"github.com/teamkonekt/konekt/internal/model"
)

// resetCountRequest is the body of POST /notifications/reset-count/.
type resetCountRequest struct {
	Type string `json:"type"`
}

// FetchCounts returns the authoritative unread counts.
func (c *Client) FetchCounts(ctx context.Context) (model.NotificationCounts, error) {
	var sc model.ServerCounts
	if err := c.Get(ctx, "/notifications/count/", &sc); err != nil {
		return nil, err
	}
	return sc.Counts(), nil
}

// ResetCount asks the server to clear the unread count of a category.
func (c *Client) ResetCount(ctx context.Context, cat model.Category) error {
	return c.Post(ctx, "/notifications/reset-count/", resetCountRequest{Type: cat.ServerKey()}, nil)
}
