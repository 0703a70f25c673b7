// Package monitor serves the emulator status to websocket clients. The
// emulator publishes a snapshot on every dashboard redraw; clients receive
// the latest one as JSON.
package monitor

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/valerio/go-gr8/gr8/session"
)

const writeWait = time.Second

// Server broadcasts snapshots to every connected client. Publish never
// blocks the emulator loop; a slow client only misses intermediate
// snapshots.
type Server struct {
	upgrader websocket.Upgrader
	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	latest  session.Snapshot
	has     bool

	http *http.Server
}

// New returns a server with its broadcast loop running. Close stops it.
func New() *Server {
	s := &Server{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		clients: make(map[*websocket.Conn]struct{}),
	}
	go s.broadcast()
	return s
}

// Handler returns the server's routes: /status upgrades to a websocket
// stream and /snapshot answers the latest snapshot once.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.serveStatus)
	mux.HandleFunc("/snapshot", s.serveSnapshot)
	return mux
}

// ListenAndServe accepts connections on addr until Close.
func (s *Server) ListenAndServe(addr string) error {
	s.mu.Lock()
	s.http = &http.Server{Addr: addr, Handler: s.Handler()}
	srv := s.http
	s.mu.Unlock()

	slog.Info("Monitor listening", "addr", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errors.Wrap(err, "monitor")
}

// Publish records snap as the latest snapshot and schedules a broadcast.
func (s *Server) Publish(snap session.Snapshot) {
	s.mu.Lock()
	s.latest, s.has = snap, true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Close stops the broadcast loop, the listener and every client.
func (s *Server) Close() error {
	s.stopOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
	if s.http != nil {
		return s.http.Close()
	}
	return nil
}

func (s *Server) broadcast() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		for conn := range s.clients {
			if err := s.send(conn); err != nil {
				slog.Debug("Dropping monitor client", "remote", conn.RemoteAddr(), "error", err)
				conn.Close()
				delete(s.clients, conn)
			}
		}
		s.mu.Unlock()
	}
}

// send writes the latest snapshot to conn. s.mu must be held, which also
// keeps writes to one connection serialized.
func (s *Server) send(conn *websocket.Conn) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(s.latest)
}

func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Monitor upgrade failed", "error", err)
		return
	}

	slog.Info("Monitor client connected", "remote", conn.RemoteAddr())
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	if s.has {
		if err := s.send(conn); err != nil {
			delete(s.clients, conn)
		}
	}
	s.mu.Unlock()

	// Clients never send anything; reading only notices the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
	slog.Info("Monitor client disconnected", "remote", conn.RemoteAddr())
}

func (s *Server) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap, has := s.latest, s.has
	s.mu.Unlock()

	w.Header().Set("Cache-Control", "no-cache")
	if !has {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		slog.Debug("Monitor snapshot write failed", "error", err)
	}
}
