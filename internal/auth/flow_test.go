package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classboard/internal/auth"
	"classboard/internal/presence"
	"classboard/internal/session"
)

func dialAndRead(t *testing.T, srv *httptest.Server) (*websocket.Conn, func() int) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	read := func() int {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg presence.CountMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg.Count
	}
	return conn, read
}

// Full walk of the login/counter/broadcast flow: sign-up leaves the
// counter alone, login pushes the increment to subscribers, a late
// subscriber reconciles to the current value, logout pushes the
// decrement.
func TestLoginCounterBroadcastFlow(t *testing.T) {
	repo := newFakeRepo()
	sessions := session.NewMemory(15 * time.Minute)

	hub := presence.NewHub()
	counter := presence.NewCounter(hub)
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	defer srv.Close()

	svc := auth.NewService(repo, sessions, counter, nil)
	ctx := context.Background()

	_, readFirst := dialAndRead(t, srv)
	require.Equal(t, 0, readFirst())

	// Sign up: session established, counter untouched.
	_, err := svc.SignUp(ctx, "alice", "alice@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, 0, counter.Current())

	// Explicit login: counter goes to 1 and every subscriber hears it.
	grant, err := svc.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, 1, readFirst())

	// A client connecting now reconciles to the current count.
	_, readSecond := dialAndRead(t, srv)
	assert.Equal(t, 1, readSecond())

	// Logout: both subscribers see the decrement.
	require.NoError(t, svc.Logout(ctx, grant.Token))
	assert.Equal(t, 0, readFirst())
	assert.Equal(t, 0, readSecond())
}

// A failed login changes nothing and nothing is pushed.
func TestFailedLoginLeavesCounterUntouched(t *testing.T) {
	repo := newFakeRepo()
	repo.seed("alice", "alice@example.com", "secret")
	sessions := session.NewMemory(15 * time.Minute)

	hub := presence.NewHub()
	counter := presence.NewCounter(hub)
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	defer srv.Close()

	svc := auth.NewService(repo, sessions, counter, nil)

	conn, read := dialAndRead(t, srv)
	require.Equal(t, 0, read())

	_, err := svc.Login(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Equal(t, 0, counter.Current())

	// No push happened: the next read times out.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var msg presence.CountMessage
	assert.Error(t, conn.ReadJSON(&msg))
}
