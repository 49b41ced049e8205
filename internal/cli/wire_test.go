package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parleyhq/parley/internal/critic"
)

func testClients(t *testing.T) []critic.Client {
	t.Helper()
	claude, err := critic.NewClaude(critic.Config{})
	if err != nil {
		t.Fatalf("failed to build claude client: %v", err)
	}
	return []critic.Client{claude, critic.NewCodex(critic.Config{Type: critic.TypeCodex})}
}

func TestSelectCritics(t *testing.T) {
	clients := testClients(t)

	selected, err := selectCritics(clients, []string{"codex-gpt"})
	if err != nil {
		t.Fatalf("selectCritics failed: %v", err)
	}
	if len(selected) != 1 || selected[0].Name() != "codex-gpt" {
		t.Errorf("expected [codex-gpt], got %v", criticNames(selected))
	}
}

func TestSelectCritics_PreservesFilterOrder(t *testing.T) {
	clients := testClients(t)

	selected, err := selectCritics(clients, []string{"codex-gpt", "claude-sonnet"})
	if err != nil {
		t.Fatalf("selectCritics failed: %v", err)
	}
	got := criticNames(selected)
	if len(got) != 2 || got[0] != "codex-gpt" || got[1] != "claude-sonnet" {
		t.Errorf("expected [codex-gpt claude-sonnet], got %v", got)
	}
}

func TestSelectCritics_UnknownName(t *testing.T) {
	clients := testClients(t)

	_, err := selectCritics(clients, []string{"gemini"})
	if err == nil {
		t.Fatal("expected an error for an unknown critic")
	}
	if !strings.Contains(err.Error(), "claude-sonnet") {
		t.Errorf("error should list the configured critics, got: %v", err)
	}
}

func TestWireRuntime(t *testing.T) {
	chdir(t, t.TempDir())

	app := New()
	rt, err := app.wireRuntime()
	if err != nil {
		t.Fatalf("wireRuntime failed: %v", err)
	}
	defer rt.Close()

	if rt.Config == nil {
		t.Error("Runtime.Config should be set")
	}
	if rt.Bus == nil {
		t.Error("Runtime.Bus should be set")
	}
	if rt.Store == nil {
		t.Error("Runtime.Store should be set")
	}
	if rt.History == nil {
		t.Error("Runtime.History should be open when recording is enabled")
	}

	// The event stream file is created as part of wiring.
	if _, err := os.Stat(filepath.Join(rt.Config.StateDir, eventLogName)); err != nil {
		t.Errorf("expected the event log to exist: %v", err)
	}
}

func TestRuntimeCritics(t *testing.T) {
	chdir(t, t.TempDir())

	app := New()
	rt, err := app.wireRuntime()
	if err != nil {
		t.Fatalf("wireRuntime failed: %v", err)
	}
	defer rt.Close()

	t.Run("default panel", func(t *testing.T) {
		clients, err := rt.Critics(nil, "")
		if err != nil {
			t.Fatalf("Critics failed: %v", err)
		}
		got := criticNames(clients)
		if len(got) != 2 || got[0] != "claude-sonnet" || got[1] != "codex-gpt" {
			t.Errorf("expected [claude-sonnet codex-gpt], got %v", got)
		}
	})

	t.Run("model override applies to claude only", func(t *testing.T) {
		clients, err := rt.Critics(nil, "opus")
		if err != nil {
			t.Fatalf("Critics failed: %v", err)
		}
		got := criticNames(clients)
		if got[0] != "claude-opus" {
			t.Errorf("expected claude-opus, got %s", got[0])
		}
		if got[1] != "codex-gpt" {
			t.Errorf("expected codex-gpt, got %s", got[1])
		}
	})

	t.Run("invalid model override", func(t *testing.T) {
		if _, err := rt.Critics(nil, "gpt-4"); err == nil {
			t.Error("expected an error for an unknown claude model")
		}
	})

	t.Run("filter", func(t *testing.T) {
		clients, err := rt.Critics([]string{"codex-gpt"}, "")
		if err != nil {
			t.Fatalf("Critics failed: %v", err)
		}
		if len(clients) != 1 || clients[0].Name() != "codex-gpt" {
			t.Errorf("expected [codex-gpt], got %v", criticNames(clients))
		}
	})
}

func TestRuntimeHistoryStore_OpensOnDemand(t *testing.T) {
	chdir(t, t.TempDir())

	app := New()
	rt, err := app.wireRuntime()
	if err != nil {
		t.Fatalf("wireRuntime failed: %v", err)
	}
	defer rt.Close()

	// Drop the eagerly opened store to simulate disabled recording.
	if rt.History != nil {
		rt.History.Close()
		rt.History = nil
	}

	hist, err := rt.HistoryStore()
	if err != nil {
		t.Fatalf("HistoryStore failed: %v", err)
	}
	if hist == nil {
		t.Fatal("expected a history store")
	}
	if rt.History != hist {
		t.Error("HistoryStore should cache the opened store on the runtime")
	}
}
