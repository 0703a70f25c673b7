package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-gr8/gr8/session"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/status"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) session.Snapshot {
	t.Helper()
	var snap session.Snapshot
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&snap))
	return snap
}

func TestPublish_ReachesClient(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dial(t, ts)

	srv.Publish(session.Snapshot{State: "running", PC: 0x0010, Cycles: 42})

	snap := readSnapshot(t, conn)
	assert.Equal(t, "running", snap.State)
	assert.Equal(t, uint16(0x0010), snap.PC)
	assert.Equal(t, uint64(42), snap.Cycles)
}

func TestNewClientGetsLatest(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.Publish(session.Snapshot{State: "stopped", PC: 1})
	srv.Publish(session.Snapshot{State: "stopped", PC: 2})

	conn := dial(t, ts)

	assert.Equal(t, uint16(2), readSnapshot(t, conn).PC)
}

func TestPublish_NeverBlocks(t *testing.T) {
	srv, _ := newTestServer(t)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			srv.Publish(session.Snapshot{Cycles: uint64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked")
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	srv, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/snapshot")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	srv.Publish(session.Snapshot{State: "keyboard", Keyboard: []byte("hi")})

	resp, err = http.Get(ts.URL + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "keyboard", snap.State)
	assert.Equal(t, []byte("hi"), snap.Keyboard)
}

func TestClose_DisconnectsClients(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dial(t, ts)
	srv.Publish(session.Snapshot{})
	readSnapshot(t, conn)

	require.NoError(t, srv.Close())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
