// Package session implements the server-side session store: an opaque
// token mapped to a small attribute set with a fixed absolute expiry.
// There is no renewal operation; a session's lifetime is decided at
// creation and never slides on activity.
package session

import (
	"context"
	"time"
)

// Attrs is what a live session carries.
type Attrs struct {
	Username string
}

// Grant is handed to a client after a successful login or sign-up.
type Grant struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

// Store is the session contract: create, look up, destroy. Get returns
// nil once the absolute expiry has passed; enforcement may be lazy.
type Store interface {
	Create(ctx context.Context, username string) (Grant, error)
	Get(ctx context.Context, token string) (*Attrs, error)
	Rebind(ctx context.Context, token, username string) error
	Destroy(ctx context.Context, token string) error
}
