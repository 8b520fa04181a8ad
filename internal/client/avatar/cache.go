// Package avatar keeps downloaded profile pictures keyed by the avatar
// reference the backend handed out, and renders them (or a placeholder) as
// data URLs for display.
package avatar

import (
	"context"
	"time"
)

// Entry is one cached image.
type Entry struct {
	Ref         string
	ContentType string
	Data        []byte
	FetchedAt   time.Time
}

// Cache stores avatar images by reference. Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, ref string) (*Entry, error)
	Put(ctx context.Context, e *Entry) error
	Invalidate(ctx context.Context, ref string) error
	Purge(ctx context.Context) error
}
