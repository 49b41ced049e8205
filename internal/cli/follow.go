package cli

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/events"
)

const followInterval = 250 * time.Millisecond

// eventFollower tails the JSON-lines event stream other parley
// processes append to, delivering each parsed event to a handler. The
// file may not exist yet; the follower waits for it.
type eventFollower struct {
	path    string
	handler events.Handler
	done    chan struct{}
	wg      sync.WaitGroup
}

func newEventFollower(path string, handler events.Handler) *eventFollower {
	return &eventFollower{
		path:    path,
		handler: handler,
		done:    make(chan struct{}),
	}
}

// Start begins following from the current end of the log. Lines already
// present belong to past sessions and are skipped.
func (f *eventFollower) Start() {
	f.wg.Add(1)
	go f.follow()
}

// Stop halts the follower and waits for its goroutine to exit.
func (f *eventFollower) Stop() {
	close(f.done)
	f.wg.Wait()
}

func (f *eventFollower) follow() {
	defer f.wg.Done()

	var file *os.File
	for file == nil {
		var err error
		file, err = os.Open(f.path)
		if err != nil {
			if !f.sleep() {
				return
			}
		}
	}
	defer file.Close()
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return
	}

	// A line may arrive in pieces when the seek lands mid-append, so
	// partial reads are buffered until the newline shows up.
	reader := bufio.NewReader(file)
	var pending []byte
	for {
		chunk, err := reader.ReadBytes('\n')
		pending = append(pending, chunk...)
		if err != nil {
			if !f.sleep() {
				return
			}
			continue
		}
		line := bytes.TrimSpace(pending)
		if len(line) > 0 {
			if evt, perr := events.ParseJSONEvent(line); perr == nil {
				f.handler(evt)
			}
		}
		pending = pending[:0]
	}
}

// sleep pauses between polls, reporting false once Stop was called.
func (f *eventFollower) sleep() bool {
	select {
	case <-f.done:
		return false
	case <-time.After(followInterval):
		return true
	}
}
