package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// AuthEvent is the payload carried for every login/logout.
type AuthEvent struct {
	Username   string    `json:"username"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Recorder publishes auth events onto a queue. It satisfies the auth
// service's event sink; publish failures are logged and dropped so an
// audit hiccup never fails a login.
type Recorder struct {
	q Queue
}

// NewRecorder wraps a queue.
func NewRecorder(q Queue) *Recorder {
	return &Recorder{q: q}
}

// Record enqueues one event.
func (r *Recorder) Record(ctx context.Context, username, kind string) {
	body, err := json.Marshal(AuthEvent{Username: username, Kind: kind, OccurredAt: time.Now().UTC()})
	if err != nil {
		return
	}
	if err := r.q.Publish(ctx, Message{Type: "auth", Body: body}); err != nil {
		log.Printf("auth event publish failed: %v", err)
	}
}
