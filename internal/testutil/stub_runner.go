package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// StubRunner is a scripted git runner for contextdir tests. Each Stub
// call queues one response for an exact argument list; a call with
// nothing queued fails loudly instead of shelling out.
type StubRunner struct {
	mu       sync.Mutex
	scripts  map[string][]scriptedExec
	defaults map[string]scriptedExec
	calls    []string
}

type scriptedExec struct {
	out string
	err error
}

func NewStubRunner() *StubRunner {
	return &StubRunner{
		scripts:  make(map[string][]scriptedExec),
		defaults: make(map[string]scriptedExec),
	}
}

// Stub queues a response for the given space-joined argument list.
func (s *StubRunner) Stub(args string, out string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[args] = append(s.scripts[args], scriptedExec{out: out, err: err})
}

// StubDefault sets a response returned whenever the queue for the
// argument list is empty. Unlike Stub, it never depletes.
func (s *StubRunner) StubDefault(args string, out string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults[args] = scriptedExec{out: out, err: err}
}

// Exec pops the next scripted response for the argument list, falling
// back to the default when the queue is empty.
func (s *StubRunner) Exec(ctx context.Context, dir string, args ...string) (string, error) {
	key := strings.Join(args, " ")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, key)
	queue := s.scripts[key]
	if len(queue) == 0 {
		if def, ok := s.defaults[key]; ok {
			return def.out, def.err
		}
		return "", fmt.Errorf("no scripted response for git %s", key)
	}
	s.scripts[key] = queue[1:]
	return queue[0].out, queue[0].err
}

// CallsFor counts Exec invocations matching the argument list.
func (s *StubRunner) CallsFor(args ...string) int {
	key := strings.Join(args, " ")
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, call := range s.calls {
		if call == key {
			n++
		}
	}
	return n
}
