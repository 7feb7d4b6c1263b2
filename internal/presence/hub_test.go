package presence

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readCount(t *testing.T, conn *websocket.Conn) int {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg CountMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg.Count
}

func TestHubReconciliationPushOnConnect(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	defer srv.Close()

	// A fresh hub has pushed nothing; the first subscriber reconciles to zero.
	first := dialHub(t, srv)
	require.Equal(t, 0, readCount(t, first))

	hub.Broadcast(7)
	require.Equal(t, 7, readCount(t, first))

	// A late subscriber gets the current value on connect, alone.
	second := dialHub(t, srv)
	assert.Equal(t, 7, readCount(t, second))
}

func TestHubFanoutToAllSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	defer srv.Close()

	first := dialHub(t, srv)
	require.Equal(t, 0, readCount(t, first))
	second := dialHub(t, srv)
	require.Equal(t, 0, readCount(t, second))

	hub.Broadcast(1)
	assert.Equal(t, 1, readCount(t, first))
	assert.Equal(t, 1, readCount(t, second))

	hub.Broadcast(2)
	assert.Equal(t, 2, readCount(t, first))
	assert.Equal(t, 2, readCount(t, second))
}

func TestHubDisconnectedClientMissesUpdates(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	defer srv.Close()

	conn := dialHub(t, srv)
	require.Equal(t, 0, readCount(t, conn))
	conn.Close()

	// Wait for the hub to process the disconnect.
	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// Nobody is connected; the intermediate value is simply lost.
	hub.Broadcast(3)
	hub.Broadcast(5)

	// Reconnect: the subscriber converges on the current value, with
	// no replay of anything pushed while it was away.
	reconn := dialHub(t, srv)
	last := readCount(t, reconn)
	for {
		if err := reconn.SetReadDeadline(time.Now().Add(200 * time.Millisecond)); err != nil {
			break
		}
		var msg CountMessage
		if err := reconn.ReadJSON(&msg); err != nil {
			break
		}
		last = msg.Count
	}
	assert.Equal(t, 5, last)
}
