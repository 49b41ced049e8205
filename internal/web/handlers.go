package web

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/parleyhq/parley/internal/debate"
	"github.com/parleyhq/parley/internal/history"
)

// IndexHandler describes the available endpoints.
// GET /
func IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service": "parley",
			"endpoints": []string{
				"/api/debate", "/api/loop", "/api/history", "/api/status", "/events",
			},
		})
	}
}

// DebateHandler returns the persisted debate history as JSON.
// GET /api/debate
func DebateHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		res := store.Debate()
		if res == nil {
			res = &debate.Result{Rounds: []debate.Round{}}
		}
		json.NewEncoder(w).Encode(res)
	}
}

// LoopHandler returns the loop state as JSON.
// GET /api/loop
func LoopHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(store.Loop())
	}
}

// HistoryHandler lists recorded sessions, newest first.
// GET /api/history?type=plan|code&limit=N
// Serves an empty list when no history store is configured.
func HistoryHandler(hist *history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hist == nil {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode([]*history.Summary{})
			return
		}

		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		kind := debate.Kind(r.URL.Query().Get("type"))
		sessions, err := hist.ListSessions(kind, limit)
		if err != nil {
			http.Error(w, "failed to list sessions", http.StatusInternalServerError)
			return
		}
		if sessions == nil {
			sessions = []*history.Summary{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sessions)
	}
}

// StatusHandler returns the aggregate session snapshot.
// GET /api/status
func StatusHandler(store *Store, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		snap := store.Status()
		snap.SSEClients = hub.Count()
		json.NewEncoder(w).Encode(snap)
	}
}

// EventsHandler streams events to the browser over SSE.
// GET /events
func EventsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fmt.Fprintf(w, ": connected\n\n")
		flusher.Flush()

		client := NewClient(generateID())
		hub.Register(client)
		defer hub.Unregister(client)

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-client.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
				flusher.Flush()
			}
		}
	}
}

func generateID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "fallback"
	}
	return hex.EncodeToString(bytes)
}
