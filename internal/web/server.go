package web

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/parleyhq/parley/internal/events"
)

// Server is the read-only session viewer: JSON endpoints over the
// persisted documents plus an SSE stream fed by the state watcher.
type Server struct {
	addr string

	store   *Store
	hub     *Hub
	watcher *Watcher

	httpServer   *http.Server
	httpListener net.Listener
}

// New builds the viewer from the configuration. Does not start
// anything; call Start for that.
func New(cfg Config) (*Server, error) {
	if cfg.Docs == nil {
		return nil, fmt.Errorf("web: document store is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":7333"
	}

	store := NewStore(cfg.Docs)
	hub := NewHub()

	var watcher *Watcher
	if cfg.StateDir != "" {
		var err error
		watcher, err = NewWatcher(cfg.StateDir, store, hub)
		if err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", IndexHandler())
	mux.HandleFunc("/api/debate", DebateHandler(store))
	mux.HandleFunc("/api/loop", LoopHandler(store))
	mux.HandleFunc("/api/history", HistoryHandler(cfg.History))
	mux.HandleFunc("/api/status", StatusHandler(store, hub))
	mux.HandleFunc("/events", EventsHandler(hub))

	return &Server{
		addr:    cfg.Addr,
		store:   store,
		hub:     hub,
		watcher: watcher,
		httpServer: &http.Server{
			Addr:    cfg.Addr,
			Handler: mux,
		},
	}, nil
}

// Start loads the current documents, starts the hub and watcher, and
// begins serving HTTP. Non-blocking; the server runs in goroutines.
func (s *Server) Start() error {
	if err := s.store.ReloadAll(); err != nil {
		log.Printf("WARN: failed to load session documents: %v", err)
	}

	go s.hub.Run()

	if s.watcher != nil {
		if err := s.watcher.Start(); err != nil {
			s.hub.Stop()
			return err
		}
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		if s.watcher != nil {
			s.watcher.Stop()
		}
		s.hub.Stop()
		return fmt.Errorf("HTTP listen: %w", err)
	}
	s.httpListener = listener

	// Ephemeral ports resolve at listen time.
	s.addr = listener.Addr().String()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("WARN: viewer server: %v", err)
		}
	}()

	return nil
}

// Stop performs a graceful shutdown.
func (s *Server) Stop(ctx context.Context) error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.hub.Stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (s *Server) Addr() string {
	return s.addr
}

// EventHandler returns a bus handler that forwards live events to the
// SSE clients, for running the viewer inside another command.
func (s *Server) EventHandler() events.Handler {
	return s.hub.Broadcast
}
