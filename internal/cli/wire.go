package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/contextdir"
	"github.com/parleyhq/parley/internal/critic"
	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/history"
	"github.com/parleyhq/parley/internal/loop"
	"github.com/parleyhq/parley/internal/notify"
	"github.com/parleyhq/parley/internal/prompts"
	"github.com/parleyhq/parley/internal/review"
	"github.com/parleyhq/parley/internal/state"
)

// eventLogName is the JSON-lines event stream file inside the state
// directory. Commands append to it; watch tails it.
const eventLogName = "events.jsonl"

// Runtime holds the components a command needs, wired from the
// configuration of the current working directory.
type Runtime struct {
	Config  *config.Config
	Root    string
	Bus     *events.Bus
	Store   *state.FileStore
	History *history.Store

	eventLog *os.File
}

// wireRuntime loads configuration and assembles the shared runtime: the
// document store and the event bus with its log, event stream, history
// and notification subscribers. Callers own the result and must Close it.
func (a *App) wireRuntime() (*Runtime, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	a.configureLogging(cfg.LogLevel)
	prompts.SetDefaultDir(cfg.PromptDir)

	rt := &Runtime{
		Config: cfg,
		Root:   root,
		Bus:    events.NewBus(256),
		Store:  state.NewFileStore(cfg.StateDir),
	}
	rt.Bus.Subscribe(events.LogHandler(events.LogConfig{IncludePayload: a.verbose}))

	if f, err := openEventLog(filepath.Join(cfg.StateDir, eventLogName)); err != nil {
		slog.Warn("event stream disabled", "error", err)
	} else {
		rt.eventLog = f
		rt.Bus.Subscribe(events.JSONEmitterHandler(events.NewJSONEmitter(f)))
	}

	notifier, err := notify.FromConfig(notify.Config{
		Type:         cfg.Notify.Type,
		SlackWebhook: cfg.Notify.SlackWebhook,
		WebhookURL:   cfg.Notify.WebhookURL,
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to configure notifier: %w", err)
	}
	rt.Bus.Subscribe(notify.EventHandler(notifier))

	if cfg.History.Enabled {
		hist, err := history.Open(cfg.History.Path)
		if err != nil {
			slog.Warn("history recording disabled", "error", err)
		} else {
			rt.History = hist
			rt.Bus.Subscribe(events.RecordHandler(events.RecordConfig{
				Recorder: hist,
				OnError: func(err error) {
					slog.Warn("failed to record event", "error", err)
				},
			}))
		}
	}
	return rt, nil
}

// openEventLog opens the event stream for appending, creating the state
// directory on first use.
func openEventLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	return f, nil
}

// Close flushes the bus and releases the runtime's resources.
func (rt *Runtime) Close() error {
	var firstErr error
	if rt.Bus != nil {
		if err := rt.Bus.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if rt.History != nil {
		if err := rt.History.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if rt.eventLog != nil {
		if err := rt.eventLog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Critics builds the configured critic clients. A non-empty filter
// narrows the panel by client name, in filter order. A non-empty model
// overrides the model alias of every claude critic.
func (rt *Runtime) Critics(filter []string, model string) ([]critic.Client, error) {
	timeout, err := rt.Config.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("invalid timeout: %w", err)
	}
	clients := make([]critic.Client, 0, len(rt.Config.Critics))
	for _, cc := range rt.Config.Critics {
		c := critic.Config{
			Type:    critic.Type(cc.Type),
			Model:   cc.Model,
			Command: cc.Command,
			Timeout: timeout,
		}
		if model != "" && c.Type == critic.TypeClaude {
			c.Model = model
		}
		client, err := critic.FromConfig(c)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s critic: %w", cc.Type, err)
		}
		clients = append(clients, client)
	}
	if len(filter) == 0 {
		return clients, nil
	}
	return selectCritics(clients, filter)
}

// selectCritics keeps the clients named by the filter, in filter order.
// An unknown name is an error listing what is configured.
func selectCritics(clients []critic.Client, filter []string) ([]critic.Client, error) {
	byName := make(map[string]critic.Client, len(clients))
	for _, c := range clients {
		byName[c.Name()] = c
	}
	selected := make([]critic.Client, 0, len(filter))
	for _, name := range filter {
		c, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown critic %q (configured: %s)",
				name, strings.Join(criticNames(clients), ", "))
		}
		selected = append(selected, c)
	}
	return selected, nil
}

func criticNames(clients []critic.Client) []string {
	names := make([]string, len(clients))
	for i, c := range clients {
		names[i] = c.Name()
	}
	return names
}

// Reviewer builds the parallel reviewer over the given clients with the
// default conflict classification.
func (rt *Runtime) Reviewer(clients []critic.Client) (*review.Parallel, error) {
	timeout, err := rt.Config.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("invalid timeout: %w", err)
	}
	return review.NewParallel(clients, nil, timeout)
}

// MultiReviewer builds the consensus reviewer for panels of three or
// more clients.
func (rt *Runtime) MultiReviewer(clients []critic.Client) (*review.MultiModel, error) {
	timeout, err := rt.Config.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("invalid timeout: %w", err)
	}
	return review.NewMultiModel(clients, timeout)
}

// Collector builds the context collector rooted at the project.
func (rt *Runtime) Collector() *contextdir.Collector {
	return contextdir.NewCollector(rt.Root, rt.Config.Context.SpecsDir, rt.Config.Context.MaxFileBytes)
}

// LoopManager opens the persisted loop session, creating it with the
// given ceiling when absent. A non-positive ceiling uses configuration.
func (rt *Runtime) LoopManager(maxIterations int) (*loop.Manager, error) {
	if maxIterations <= 0 {
		maxIterations = rt.Config.MaxIterations
	}
	return loop.NewManager(rt.Store, maxIterations)
}

// HistoryStore returns the history database, opening it on demand when
// recording is disabled so the history commands still work.
func (rt *Runtime) HistoryStore() (*history.Store, error) {
	if rt.History != nil {
		return rt.History, nil
	}
	hist, err := history.Open(rt.Config.History.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	rt.History = hist
	return hist, nil
}
