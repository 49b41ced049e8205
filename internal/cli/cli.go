// Package cli implements the parley command line interface.
package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// App holds the root command and the state shared by every subcommand.
type App struct {
	rootCmd     *cobra.Command
	versionInfo versionInfo
	verbose     bool
}

type versionInfo struct {
	Version string
	Commit  string
	Date    string
}

// New creates the CLI application with every command registered.
func New() *App {
	app := &App{}
	app.setupRootCmd()
	app.rootCmd.AddCommand(
		NewReviewCmd(app),
		NewDebateCmd(app),
		NewLoopCmd(app),
		NewRunCmd(app),
		NewResumeCmd(app),
		NewHistoryCmd(app),
		NewServeCmd(app),
		NewWatchCmd(app),
		NewVersionCmd(app),
	)
	return app
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion records build metadata for the version command.
func (a *App) SetVersion(version, commit, date string) {
	a.versionInfo = versionInfo{Version: version, Commit: commit, Date: date}
}

func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "parley",
		Short: "Multi-model plan and code review orchestrator",
		Long: `Parley sends plans and diffs to a panel of CLI-based model critics in
parallel, surfaces where they disagree, and drives the review through
bounded debate and refinement loops with a human deciding at each step.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	a.rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")
}

// configureLogging installs the process logger at the configured level.
// The --verbose flag forces debug regardless of configuration.
func (a *App) configureLogging(level string) {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if a.verbose {
		lvl = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
