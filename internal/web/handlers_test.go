package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/debate"
	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/history"
	"github.com/parleyhq/parley/internal/loop"
	"github.com/parleyhq/parley/internal/state"
)

func loadedStore(t *testing.T, docs state.Store) *Store {
	t.Helper()
	s := NewStore(docs)
	if err := s.ReloadAll(); err != nil {
		t.Fatalf("ReloadAll: %v", err)
	}
	return s
}

func TestIndexHandler_ListsEndpoints(t *testing.T) {
	handler := IndexHandler()
	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", w.Code)
	}
	var body struct {
		Service   string   `json:"service"`
		Endpoints []string `json:"endpoints"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if body.Service != "parley" || len(body.Endpoints) != 5 {
		t.Errorf("index = %+v, expected the 5 endpoints", body)
	}
}

func TestIndexHandler_NotFoundElsewhere(t *testing.T) {
	handler := IndexHandler()
	req := httptest.NewRequest("GET", "/nope", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", w.Code)
	}
}

func TestDebateHandler_EmptyHistory(t *testing.T) {
	handler := DebateHandler(loadedStore(t, state.NewMemStore()))
	req := httptest.NewRequest("GET", "/api/debate", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("Content-Type = %q, expected application/json", ct)
	}
	if !strings.Contains(w.Body.String(), `"rounds":[]`) {
		t.Errorf("body = %s, expected an empty rounds array", w.Body.String())
	}
}

func TestDebateHandler_ReturnsRounds(t *testing.T) {
	docs := state.NewMemStore()
	if err := docs.Save(debate.DocName, sampleDebate()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	handler := DebateHandler(loadedStore(t, docs))
	req := httptest.NewRequest("GET", "/api/debate", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	var res debate.Result
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if res.RoundCount() != 1 {
		t.Fatalf("RoundCount() = %d, expected 1", res.RoundCount())
	}
	if out, ok := res.Rounds[0].Outcome("codex-gpt"); !ok || out.Text != "Agreed." {
		t.Errorf("codex-gpt outcome = %+v, expected its review text", out)
	}
}

func TestLoopHandler_ReturnsState(t *testing.T) {
	docs := state.NewMemStore()
	ls := loop.NewState(loop.DefaultMaxIterations)
	ls.Iteration = 4
	if err := docs.Save(loop.DocName, ls); err != nil {
		t.Fatalf("Save: %v", err)
	}
	handler := LoopHandler(loadedStore(t, docs))
	req := httptest.NewRequest("GET", "/api/loop", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	var got loop.State
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if got.Iteration != 4 || got.MaxIterations != loop.DefaultMaxIterations {
		t.Errorf("loop state = %+v, expected iteration 4 of %d", got, loop.DefaultMaxIterations)
	}
}

func TestStatusHandler_ReturnsSnapshot(t *testing.T) {
	docs := state.NewMemStore()
	if err := docs.Save(debate.DocName, sampleDebate()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	hub := NewHub()
	handler := StatusHandler(loadedStore(t, docs), hub)
	req := httptest.NewRequest("GET", "/api/status", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	var snap StatusSnapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if snap.Debate == nil || snap.Debate.RoundCount != 1 {
		t.Errorf("snapshot debate = %+v, expected one round", snap.Debate)
	}
	if snap.SSEClients != 0 {
		t.Errorf("sse clients = %d, expected 0", snap.SSEClients)
	}
}

func TestHistoryHandler_NoStoreServesEmptyList(t *testing.T) {
	handler := HistoryHandler(nil)
	req := httptest.NewRequest("GET", "/api/history", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("body = %s, expected an empty array", w.Body.String())
	}
}

func TestHistoryHandler_ListsSessions(t *testing.T) {
	hist, err := history.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { hist.Close() })

	for _, kind := range []debate.Kind{debate.KindPlan, debate.KindCode} {
		rec := history.NewSessionRecord("specs/auth.md", kind, sampleDebate().Rounds)
		if err := hist.SaveSession(rec); err != nil {
			t.Fatalf("SaveSession: %v", err)
		}
	}

	handler := HistoryHandler(hist)
	req := httptest.NewRequest("GET", "/api/history?type=plan", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	var sessions []history.Summary
	if err := json.NewDecoder(w.Body).Decode(&sessions); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("listed %d sessions, expected the plan session only", len(sessions))
	}
	if sessions[0].ReviewType != debate.KindPlan {
		t.Errorf("review type = %q, expected plan", sessions[0].ReviewType)
	}
}

func TestHistoryHandler_InvalidLimit(t *testing.T) {
	hist, err := history.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { hist.Close() })

	handler := HistoryHandler(hist)
	req := httptest.NewRequest("GET", "/api/history?limit=zero", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400", w.Code)
	}
}

func TestEventsHandler_SetsHeaders(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	handler := EventsHandler(hub)
	req := httptest.NewRequest("GET", "/events", nil)
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, expected text/event-stream", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, expected no-cache", cc)
	}
	if !strings.HasPrefix(w.Body.String(), ": connected\n\n") {
		t.Errorf("body = %q, expected the connection comment first", w.Body.String())
	}
}

// sseWriter implements http.ResponseWriter and http.Flusher over a pipe
// so the test can read the stream while the handler writes it.
type sseWriter struct {
	header http.Header
	body   io.Writer
}

func (w *sseWriter) Header() http.Header { return w.header }

func (w *sseWriter) Write(b []byte) (int, error) { return w.body.Write(b) }

func (w *sseWriter) WriteHeader(statusCode int) {}

func (w *sseWriter) Flush() {}

func TestEventsHandler_StreamsBroadcasts(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	handler := EventsHandler(hub)
	req := httptest.NewRequest("GET", "/events", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()
	req = req.WithContext(ctx)

	pr, pw := io.Pipe()
	defer pr.Close()

	done := make(chan struct{})
	go func() {
		handler.ServeHTTP(&sseWriter{header: make(http.Header), body: pw}, req)
		pw.Close()
		close(done)
	}()

	// Connection comment first; the pipe write blocks until read.
	buf := make([]byte, 256)
	if _, err := pr.Read(buf); err != nil {
		t.Fatalf("read connection comment: %v", err)
	}

	readDone := make(chan string, 1)
	go func() {
		frame := make([]byte, 1024)
		n, err := pr.Read(frame)
		if err != nil {
			readDone <- ""
			return
		}
		readDone <- string(frame[:n])
	}()
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(events.NewEvent(events.DocumentUpdated, "01SESSION").
		WithPayload(map[string]string{"document": "loop_state"}))

	select {
	case output := <-readDone:
		if !strings.Contains(output, "event: document.updated") {
			t.Errorf("frame = %q, expected the event name line", output)
		}
		if !strings.Contains(output, `"document":"loop_state"`) {
			t.Errorf("frame = %q, expected the payload data", output)
		}
		if !strings.HasSuffix(output, "\n\n") {
			t.Errorf("frame = %q, expected a blank-line terminator", output)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for the event frame")
	}

	cancel()
	<-done
}
