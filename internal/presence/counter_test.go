package presence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	values []int
}

func (b *recordingBroadcaster) Broadcast(count int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values = append(b.values, count)
}

func (b *recordingBroadcaster) all() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int, len(b.values))
	copy(out, b.values)
	return out
}

func TestCounterPublishesEveryChange(t *testing.T) {
	bc := &recordingBroadcaster{}
	c := NewCounter(bc)

	assert.Equal(t, 1, c.Login())
	assert.Equal(t, 2, c.Login())
	assert.Equal(t, 1, c.Logout())
	assert.Equal(t, 0, c.Logout())

	assert.Equal(t, []int{1, 2, 1, 0}, bc.all())
	assert.Equal(t, 0, c.Current())
}

func TestCounterConcurrentLogins(t *testing.T) {
	const n = 100

	c := NewCounter(&recordingBroadcaster{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Login()
		}()
	}
	wg.Wait()

	assert.Equal(t, n, c.Current())
}

func TestCounterLoginRacingLogoutSerializes(t *testing.T) {
	const pairs = 50

	c := NewCounter(&recordingBroadcaster{})
	var wg sync.WaitGroup
	for i := 0; i < pairs; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Login()
		}()
		go func() {
			defer wg.Done()
			c.Logout()
		}()
	}
	wg.Wait()

	// Paired increments and decrements must never lose an update.
	assert.Equal(t, 0, c.Current())
}

func TestCounterReset(t *testing.T) {
	c := NewCounter(&recordingBroadcaster{})
	c.Login()
	c.Login()
	c.Reset()
	assert.Equal(t, 0, c.Current())
}
