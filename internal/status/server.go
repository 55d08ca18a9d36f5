// Package status serves the bridge's live state to display clients: a JSON
// snapshot at /status and one snapshot per tick over a websocket at /ws.
package status

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"codeberg.org/mutker/lhmosc/internal/errors"
	"codeberg.org/mutker/lhmosc/internal/logger"
	"codeberg.org/mutker/lhmosc/internal/metrics"
	"github.com/gorilla/websocket"
)

const (
	ErrListen = errors.ErrorCode("status_listen_failed")

	writeTimeout = 5 * time.Second

	defaultHistoryLimit = 60
	maxHistoryLimit     = 3600
)

// History reads back recorded polls, newest first.
type History interface {
	Recent(limit int) ([]metrics.Snapshot, error)
}

// Server keeps the latest snapshot and fans it out to websocket clients.
type Server struct {
	mu          sync.RWMutex
	current     Snapshot
	subscribers map[chan Snapshot]struct{}

	history  History
	upgrader websocket.Upgrader
	server   *http.Server
	logger   logger.Logger
}

// New creates a Server with no snapshot published yet.
func New(log logger.Logger) *Server {
	return &Server{
		subscribers: make(map[chan Snapshot]struct{}),
		logger:      log,
	}
}

// SetHistory enables GET /history. Call before serving.
func (s *Server) SetHistory(h History) {
	s.history = h
}

// Publish replaces the current snapshot and notifies every client. Slow
// clients only ever see the newest snapshot.
func (s *Server) Publish(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = snap
	for ch := range s.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Current returns the last published snapshot.
func (s *Server) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Server) subscribe() chan Snapshot {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.current
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan Snapshot) {
	s.mu.Lock()
	delete(s.subscribers, ch)
	s.mu.Unlock()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleStream)
	mux.HandleFunc("/history", s.handleHistory)

	return mux
}

// ListenAndServe serves on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	errFactory := errors.New()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errFactory.Wrap(ErrListen, err)
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: writeTimeout,
	}

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("Status server listening")
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errFactory.Wrap(ErrListen, err)
	}

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	body, err := json.Marshal(s.Current())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode status")
		http.Error(w, "status unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// handleHistory serves up to ?limit= recorded polls, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history not available", http.StatusNotFound)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	snapshots, err := s.history.Recent(limit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read history")
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if snapshots == nil {
		snapshots = []metrics.Snapshot{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshots); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write history")
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	s.logger.Debug().Str("remote", r.RemoteAddr).Msg("Status client connected")

	// Reads only serve to notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			s.logger.Debug().Str("remote", r.RemoteAddr).Msg("Status client disconnected")
			return
		case <-r.Context().Done():
			return
		case snap := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(snap); err != nil {
				s.logger.Debug().Err(err).Msg("Failed to stream status")
				return
			}
		}
	}
}
