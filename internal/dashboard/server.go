// Package dashboard serves the browser view of the latest snapshot and streams new ones over websocket.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"lsratio-go/internal/metrics"
	"lsratio-go/internal/monitor"
)

// Server renders snapshots to HTTP clients. It implements monitor.Renderer.
type Server struct {
	router  *mux.Router
	hub     *Hub
	log     zerolog.Logger
	title   string
	caption string
	now     func() time.Time

	mu      sync.RWMutex
	latest  *monitor.Snapshot
	payload []byte
}

// Option configures Server construction parameters.
type Option func(*Server)

// WithTitle sets the page heading.
func WithTitle(title string) Option {
	return func(s *Server) {
		if title != "" {
			s.title = title
		}
	}
}

// WithCaption sets the line under the heading.
func WithCaption(caption string) Option {
	return func(s *Server) { s.caption = caption }
}

// NewServer wires the routes.
func NewServer(log zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		hub:   NewHub(log),
		log:   log,
		title: "Long/Short Sentiment",
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/ws", s.handleStream).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/readings", s.handleReadings).Methods("GET")
	api.HandleFunc("/readings/{symbol}", s.handleReading).Methods("GET")
	return r
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.router }

// Render stores snap as the latest snapshot and pushes it to stream clients. The store happens
// before the broadcast, so a client registering in between receives the new payload at least once.
func (s *Server) Render(_ context.Context, snap monitor.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.latest = &snap
	s.payload = payload
	s.mu.Unlock()

	s.hub.Broadcast(payload)
	return nil
}

// Latest returns the most recent snapshot, if any.
func (s *Server) Latest() (monitor.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return monitor.Snapshot{}, false
	}
	return *s.latest, true
}

// ListenAndServe blocks until ctx is cancelled, then shuts the server down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("dashboard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.Latest()
	view := newPageView(s.title, s.caption, snap, ok)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, view); err != nil {
		s.log.Error().Err(err).Msg("render page")
	}
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.Latest()
	if !ok {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no snapshot yet"})
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleReading(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	snap, ok := s.Latest()
	if !ok {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no snapshot yet"})
		return
	}
	for _, reading := range snap.Readings {
		if reading.Symbol == symbol {
			respondJSON(w, http.StatusOK, reading)
			return
		}
	}
	respondJSON(w, http.StatusNotFound, map[string]string{"error": "unknown symbol " + symbol})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":         "starting",
		"timestamp":      s.now().UTC().Format(time.RFC3339),
		"stream_clients": s.hub.Len(),
	}
	if snap, ok := s.Latest(); ok {
		failed := 0
		for _, reading := range snap.Readings {
			if !reading.OK() {
				failed++
			}
		}
		health["status"] = "healthy"
		if failed > 0 {
			health["status"] = "degraded"
		}
		health["tick"] = snap.Tick
		health["age_seconds"] = s.now().Sub(snap.FinishedAt).Seconds()
		health["failed_symbols"] = failed
	}
	respondJSON(w, http.StatusOK, health)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r, s.latestPayload)
}

func (s *Server) latestPayload() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payload
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
