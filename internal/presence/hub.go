package presence

import (
	"encoding/json"
	"log"
	"sync"

	"classboard/internal/metrics"
)

// CountMessage is the only message shape pushed over the realtime
// channel: {"count": n}.
type CountMessage struct {
	Count int `json:"count"`
}

// Hub maintains the set of connected subscribers and fans counter
// values out to them. There is no delivery guarantee beyond "was
// connected at push time": a disconnected client simply misses the
// update and is reconciled with the current value on reconnect.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	// last is the most recently pushed counter value; new subscribers
	// receive it the moment they connect. Every counter mutation goes
	// through Broadcast, so this tracks the counter exactly.
	last int

	broadcast  chan int
	register   chan *Client
	unregister chan *Client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan int, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run handles registrations, disconnects, and pushes. Call it in its
// own goroutine; it runs for the life of the process.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case count := <-h.broadcast:
			h.push(count)
		}
	}
}

// Broadcast queues a counter value for fan-out to every subscriber.
func (h *Hub) Broadcast(count int) {
	h.broadcast <- count
}

// SubscriberCount returns the number of connected clients.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	n := len(h.clients)
	last := h.last
	h.mu.Unlock()
	metrics.Subscribers.Set(float64(n))
	log.Printf("realtime client connected (%d subscribers)", n)

	// Reconciliation push: the new subscriber alone gets the current
	// count, independent of any login/logout fan-out.
	data, err := json.Marshal(CountMessage{Count: last})
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.Subscribers.Set(float64(n))
	log.Printf("realtime client disconnected (%d subscribers)", n)
}

func (h *Hub) push(count int) {
	data, err := json.Marshal(CountMessage{Count: count})
	if err != nil {
		log.Printf("marshal count message failed: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = count
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Send buffer full: the client is slow or gone. Drop it;
			// it will reconcile on reconnect.
			delete(h.clients, client)
			close(client.send)
		}
	}
}
