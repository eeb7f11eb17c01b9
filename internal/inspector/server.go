// Package inspector serves a small HTTP API for watching intent
// executions: run history, engine status, and a live event stream
// over Server-Sent Events.
package inspector

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cgast/vouch/pkg/events"
	"github.com/cgast/vouch/pkg/history"
)

// Server is the inspector HTTP + SSE server.
type Server struct {
	hist      *history.Store
	logger    *zap.Logger
	mux       *http.ServeMux
	startTime time.Time

	mu      sync.Mutex
	clients map[*sseClient]bool
	trail   *events.Trail
	runs    int
}

// sseClient represents a connected event stream subscriber.
type sseClient struct {
	send chan []byte
}

// New creates a new inspector server. hist may be nil when history
// persistence is disabled.
func New(hist *history.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		hist:      hist,
		logger:    logger,
		mux:       http.NewServeMux(),
		startTime: time.Now(),
		clients:   make(map[*sseClient]bool),
		trail:     events.NewTrail(events.DefaultCapacity),
	}

	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/history", s.handleHistory)
	s.mux.HandleFunc("/events", s.handleEvents)

	return s
}

// Sink returns an event sink that feeds the live stream. Wire it into
// the engine with the intent sink option.
func (s *Server) Sink() events.Sink {
	return func(ev events.Event) {
		s.mu.Lock()
		s.trail.Append(ev)
		if ev.Type == events.TypeComplete || ev.Type == events.TypeFailed {
			s.runs++
		}
		data, err := json.Marshal(ev)
		if err != nil {
			s.mu.Unlock()
			return
		}
		for client := range s.clients {
			select {
			case client.send <- data:
			default:
				// Client is slow, drop the event.
			}
		}
		s.mu.Unlock()
	}
}

// Handler returns the HTTP handler, for mounting in tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving on the given port. Blocks.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, s.mux)
}

// StartAsync starts the server in a goroutine and returns immediately.
func (s *Server) StartAsync(port int) {
	go func() {
		if err := s.Start(port); err != nil {
			s.logger.Error("inspector server stopped", zap.Error(err))
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	seen := len(s.trail.Events())
	discarded := s.trail.Discarded()
	runs := s.runs
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"uptime":           time.Since(s.startTime).String(),
		"runs":             runs,
		"events":           seen,
		"events_discarded": discarded,
		"history_enabled":  s.hist != nil,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		writeJSON(w, []any{})
		return
	}

	summaries, err := s.hist.List(50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, summaries)
}

// handleEvents streams engine events as Server-Sent Events. The
// retained trail is replayed first so a late subscriber still sees
// the current run.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client := &sseClient{send: make(chan []byte, 64)}

	s.mu.Lock()
	replay := s.trail.Events()
	s.clients[client] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, client)
		s.mu.Unlock()
	}()

	for _, ev := range replay {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-client.send:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(data)
}
