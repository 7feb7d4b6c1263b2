// Package presence tracks how many sessions are currently logged in
// and pushes every change to all connected realtime subscribers.
package presence

import (
	"sync"

	"classboard/internal/metrics"
)

// Broadcaster fans a counter value out to the connected subscribers.
type Broadcaster interface {
	Broadcast(count int)
}

// Counter is the process-wide login counter. It starts at zero on
// every process start and is mutated only by the auth service: +1 per
// successful login, -1 per explicit logout. Session expiry does not
// decrement it, so the value can drift above the number of live
// sessions; that gap is a documented property, not an accident.
//
// The broadcast happens under the same lock as the mutation, so
// subscribers always observe values in mutation order.
type Counter struct {
	mu sync.Mutex
	n  int
	bc Broadcaster
}

// NewCounter creates a counter publishing each change through bc.
func NewCounter(bc Broadcaster) *Counter {
	return &Counter{bc: bc}
}

// Login increments the counter, publishes the new value, and returns it.
func (c *Counter) Login() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	c.publish()
	return c.n
}

// Logout decrements the counter, publishes the new value, and returns it.
func (c *Counter) Logout() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n--
	c.publish()
	return c.n
}

// Current reads the counter without mutating it.
func (c *Counter) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset zeroes the counter. Called once at process start.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
	metrics.ActiveLogins.Set(0)
}

func (c *Counter) publish() {
	metrics.ActiveLogins.Set(float64(c.n))
	if c.bc != nil {
		c.bc.Broadcast(c.n)
	}
}
