package web

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/parleyhq/parley/internal/events"
)

// debounceWindow coalesces filesystem event bursts. Atomic saves and
// editors produce several events per logical write.
const debounceWindow = 50 * time.Millisecond

// Watcher reloads viewer documents when the state directory changes and
// broadcasts one update event per changed document.
type Watcher struct {
	dir   string
	store *Store
	hub   *Hub
	fsw   *fsnotify.Watcher
	done  chan struct{}
}

// NewWatcher creates a watcher for the given state directory.
func NewWatcher(dir string, store *Store, hub *Hub) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		dir:   dir,
		store: store,
		hub:   hub,
		fsw:   fsw,
		done:  make(chan struct{}),
	}, nil
}

// Start begins watching the state directory, creating it if needed.
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	if err := w.fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	go w.watchLoop()
	return nil
}

// Stop ends the watch loop and releases the filesystem watcher.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsw.Close()
}

func (w *Watcher) watchLoop() {
	timer := time.NewTimer(0)
	<-timer.C
	pending := make(map[string]struct{})

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			name := docName(event.Name)
			if name == "" {
				continue
			}
			pending[name] = struct{}{}
			timer.Reset(debounceWindow)

		case <-timer.C:
			for name := range pending {
				delete(pending, name)
				w.refresh(name)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("WARN: state watcher: %v", err)
		}
	}
}

// refresh reloads one document and announces the change. Documents the
// store does not track and failed reloads stay silent.
func (w *Watcher) refresh(name string) {
	known, err := w.store.Reload(name)
	if err != nil {
		log.Printf("WARN: failed to reload %s: %v", name, err)
		return
	}
	if !known {
		return
	}
	w.hub.Broadcast(events.NewEvent(events.DocumentUpdated, w.store.Session()).
		WithPayload(map[string]string{"document": name}))
}

// docName maps a changed path to a document name. Only ".json" files in
// the state directory count; the atomic-write ".json.tmp" files do not.
func docName(path string) string {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".json") {
		return ""
	}
	return strings.TrimSuffix(base, ".json")
}
