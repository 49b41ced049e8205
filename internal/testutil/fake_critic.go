package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/critic"
)

// FakeCritic is a scriptable critic.Client for tests. Queued responses
// are consumed in order; the last one repeats once the queue drains.
type FakeCritic struct {
	mu        sync.Mutex
	name      string
	available bool
	delay     time.Duration
	queue     []fakeResponse
	calls     []FakeCall
}

type fakeResponse struct {
	text string
	err  error
}

// FakeCall records one Call invocation.
type FakeCall struct {
	Prompt  string
	Context string
}

// NewFakeCritic creates a critic that responds with text.
func NewFakeCritic(name, text string) *FakeCritic {
	f := &FakeCritic{name: name, available: true}
	return f.Respond(text)
}

// NewFailingCritic creates a critic whose calls fail with err.
func NewFailingCritic(name string, err error) *FakeCritic {
	f := &FakeCritic{name: name, available: true}
	return f.Fail(err)
}

// Respond queues a successful response.
func (f *FakeCritic) Respond(text string) *FakeCritic {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{text: text})
	return f
}

// Fail queues a failing response.
func (f *FakeCritic) Fail(err error) *FakeCritic {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{err: err})
	return f
}

// Delay makes every call block for d before responding, or until the
// caller's context expires.
func (f *FakeCritic) Delay(d time.Duration) *FakeCritic {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
	return f
}

// SetAvailable controls what Available reports.
func (f *FakeCritic) SetAvailable(available bool) *FakeCritic {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available = available
	return f
}

// Call pops the next scripted response.
func (f *FakeCritic) Call(ctx context.Context, prompt, contextText string) (*critic.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Prompt: prompt, Context: contextText})
	delay := f.delay
	var resp fakeResponse
	if len(f.queue) > 0 {
		resp = f.queue[0]
		if len(f.queue) > 1 {
			f.queue = f.queue[1:]
		}
	}
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, critic.NewTimeout(f.name, delay)
		}
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return &critic.Response{
		Source:  f.name,
		Text:    resp.text,
		Elapsed: time.Millisecond,
	}, nil
}

// Name returns the configured critic identity.
func (f *FakeCritic) Name() string {
	return f.name
}

// Available reports the configured availability.
func (f *FakeCritic) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

// Calls returns every recorded invocation.
func (f *FakeCritic) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := make([]FakeCall, len(f.calls))
	copy(calls, f.calls)
	return calls
}

// CallCount returns how many times Call ran.
func (f *FakeCritic) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
