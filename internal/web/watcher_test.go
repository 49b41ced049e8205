package web

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/loop"
	"github.com/parleyhq/parley/internal/state"
)

func TestDocName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/.parley/loop_state.json", "loop_state"},
		{"/tmp/.parley/debate_state.json", "debate_state"},
		{"/tmp/.parley/loop_state.json.tmp", ""},
		{"/tmp/.parley/notes.txt", ""},
		{"workflow_state.json", "workflow_state"},
	}
	for _, tt := range tests {
		if got := docName(tt.path); got != tt.want {
			t.Errorf("docName(%q) = %q, expected %q", tt.path, got, tt.want)
		}
	}
}

// watchFixture starts a watcher over a real FileStore directory with a
// registered SSE client to observe broadcasts.
func watchFixture(t *testing.T) (*state.FileStore, *Store, *Client, *Watcher) {
	t.Helper()
	dir := t.TempDir()
	docs := state.NewFileStore(dir)
	store := NewStore(docs)

	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	client := NewClient("watch-test")
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	w, err := NewWatcher(dir, store, hub)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)
	return docs, store, client, w
}

func awaitEvent(t *testing.T, client *Client, timeout time.Duration) (events.Event, bool) {
	t.Helper()
	select {
	case e := <-client.events:
		return e, true
	case <-time.After(timeout):
		return events.Event{}, false
	}
}

func TestWatcher_ReloadsChangedDocument(t *testing.T) {
	docs, store, client, _ := watchFixture(t)

	st := loop.NewState(loop.DefaultMaxIterations)
	st.Iteration = 3
	if err := docs.Save(loop.DocName, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	evt, ok := awaitEvent(t, client, 3*time.Second)
	if !ok {
		t.Fatal("no broadcast after the document changed")
	}
	if evt.Type != events.DocumentUpdated {
		t.Fatalf("event type = %q, expected %q", evt.Type, events.DocumentUpdated)
	}
	payload, ok := evt.Payload.(map[string]string)
	if !ok || payload["document"] != loop.DocName {
		t.Errorf("payload = %+v, expected the loop document name", evt.Payload)
	}
	if got := store.Loop(); got.Iteration != 3 {
		t.Errorf("reloaded iteration = %d, expected 3", got.Iteration)
	}
}

func TestWatcher_IgnoresUntrackedFiles(t *testing.T) {
	docs, store, client, _ := watchFixture(t)

	dir := docs.Dir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scratch"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scratch.json"), []byte("{}"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if evt, ok := awaitEvent(t, client, 300*time.Millisecond); ok {
		t.Fatalf("unexpected broadcast %+v for untracked files", evt)
	}
	if store.Debate() != nil || store.Workflow() != nil {
		t.Error("untracked files must not change the cached documents")
	}
}

func TestWatcher_CoalescesBursts(t *testing.T) {
	docs, _, client, _ := watchFixture(t)

	st := loop.NewState(loop.DefaultMaxIterations)
	for i := 1; i <= 3; i++ {
		st.Iteration = i
		if err := docs.Save(loop.DocName, st); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	if _, ok := awaitEvent(t, client, 3*time.Second); !ok {
		t.Fatal("no broadcast after the burst")
	}
	// The three writes land within one debounce window, so at most a
	// couple of broadcasts arrive, not one per filesystem event.
	extra := 0
	for {
		if _, ok := awaitEvent(t, client, 200*time.Millisecond); !ok {
			break
		}
		extra++
	}
	if extra > 2 {
		t.Errorf("received %d extra broadcasts, expected the burst coalesced", extra+1)
	}
}

func TestWatcher_StartCreatesStateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".parley")
	store := NewStore(state.NewFileStore(dir))
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	w, err := NewWatcher(dir, store, hub)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("Stat(%q) = %v, %v, expected the directory to exist", dir, info, err)
	}
}
