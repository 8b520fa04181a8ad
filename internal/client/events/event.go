// Package events carries session change notifications to observers.
//
// Observers must treat an Event as a hint: it names what changed, and the
// observer re-reads the session store for the current state. Delivery is
// best-effort; a subscriber that is not keeping up misses events rather than
// blocking the publisher.
package events

import (
	"context"
	"time"
)

type Kind string

const (
	KindLogin          Kind = "login"
	KindLogout         Kind = "logout"
	KindProfileUpdated Kind = "profileUpdated"
	KindAvatarUpdated  Kind = "avatarUpdated"
	KindTokenRefreshed Kind = "tokenRefreshed"
)

type Event struct {
	Kind Kind `json:"kind"`
	// Source identifies the session manager instance that published the event.
	Source string    `json:"source"`
	At     time.Time `json:"at"`
}

// Broker is a publish/subscribe channel for events.
type Broker interface {
	Publish(ctx context.Context, e Event) error
	// Subscribe returns a channel of events and a func that ends the
	// subscription and closes the channel.
	Subscribe() (<-chan Event, func())
	Close() error
}
