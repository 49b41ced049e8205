package web

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/debate"
	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/loop"
	"github.com/parleyhq/parley/internal/state"
)

func startServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})
	return srv
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d, expected 200", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func TestNew_RequiresDocumentStore(t *testing.T) {
	if _, err := New(Config{Addr: ":0"}); err == nil {
		t.Fatal("expected an error without a document store")
	}
}

func TestServer_ServesSessionDocuments(t *testing.T) {
	docs := state.NewMemStore()
	if err := docs.Save(debate.DocName, sampleDebate()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	srv := startServer(t, Config{Docs: docs})
	base := "http://" + srv.Addr()

	var res debate.Result
	getJSON(t, base+"/api/debate", &res)
	if res.RoundCount() != 1 {
		t.Errorf("debate rounds = %d, expected 1", res.RoundCount())
	}

	var ls loop.State
	getJSON(t, base+"/api/loop", &ls)
	if ls.MaxIterations != loop.DefaultMaxIterations {
		t.Errorf("loop ceiling = %d, expected %d", ls.MaxIterations, loop.DefaultMaxIterations)
	}

	var snap StatusSnapshot
	getJSON(t, base+"/api/status", &snap)
	if snap.Debate == nil || snap.Debate.RoundCount != 1 {
		t.Errorf("status debate = %+v, expected one round", snap.Debate)
	}

	var listed []any
	getJSON(t, base+"/api/history", &listed)
	if len(listed) != 0 {
		t.Errorf("history = %v, expected empty without a store", listed)
	}
}

func TestServer_EphemeralPortResolved(t *testing.T) {
	srv := startServer(t, Config{Docs: state.NewMemStore()})

	if strings.HasSuffix(srv.Addr(), ":0") {
		t.Errorf("Addr() = %q, expected the resolved port", srv.Addr())
	}
}

// sseSession subscribes to the event stream and delivers raw lines.
func sseSession(t *testing.T, base string) (<-chan string, func()) {
	t.Helper()
	req, err := http.NewRequest("GET", base+"/events", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		cancel()
		t.Fatalf("GET /events: %v", err)
	}

	lines := make(chan string, 64)
	go func() {
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()
	return lines, cancel
}

func awaitLine(t *testing.T, lines <-chan string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("stream closed before %q", want)
			}
			if strings.Contains(line, want) {
				return
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %q on the event stream", want)
		}
	}
}

func TestServer_WatcherFeedsEventStream(t *testing.T) {
	dir := t.TempDir()
	docs := state.NewFileStore(dir)
	srv := startServer(t, Config{Docs: docs, StateDir: dir})

	lines, cancel := sseSession(t, "http://"+srv.Addr())
	defer cancel()
	awaitLine(t, lines, ": connected", 2*time.Second)

	st := loop.NewState(loop.DefaultMaxIterations)
	st.Iteration = 1
	if err := docs.Save(loop.DocName, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	awaitLine(t, lines, "event: document.updated", 3*time.Second)

	var got loop.State
	getJSON(t, fmt.Sprintf("http://%s/api/loop", srv.Addr()), &got)
	if got.Iteration != 1 {
		t.Errorf("reloaded iteration = %d, expected 1", got.Iteration)
	}
}

func TestServer_EventHandlerForwardsBusEvents(t *testing.T) {
	srv := startServer(t, Config{Docs: state.NewMemStore()})

	bus := events.NewBus(16)
	t.Cleanup(func() { _ = bus.Close() })
	bus.Subscribe(srv.EventHandler())

	lines, cancel := sseSession(t, "http://"+srv.Addr())
	defer cancel()
	awaitLine(t, lines, ": connected", 2*time.Second)
	time.Sleep(20 * time.Millisecond)

	bus.Emit(events.NewEvent(events.ReviewStarted, "01SESSION"))

	awaitLine(t, lines, "event: review.started", 3*time.Second)
}
