package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/web"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Addr string
}

// NewServeCmd creates the serve command.
func NewServeCmd(app *App) *cobra.Command {
	opts := ServeOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only session dashboard",
		Long: `Serve exposes the persisted loop, debate and workflow documents plus
the session history over HTTP, with a live event stream that follows
state changes made by other parley commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Serve(cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (default: config, 127.0.0.1:8400)")
	return cmd
}

// Serve runs the dashboard server until interrupted.
func (a *App) Serve(out io.Writer, opts ServeOptions) error {
	rt, err := a.wireRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	addr := opts.Addr
	if addr == "" {
		addr = rt.Config.Web.Addr
	}
	hist, err := rt.HistoryStore()
	if err != nil {
		slog.Warn("serving without session history", "error", err)
	}
	srv, err := web.New(web.Config{
		Addr:     addr,
		StateDir: rt.Config.StateDir,
		Docs:     rt.Store,
		History:  hist,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	fmt.Fprintf(out, "parley dashboard listening on http://%s\n", srv.Addr())
	fmt.Fprintln(out, "Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Fprintln(out, "\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	fmt.Fprintln(out, "Server stopped")
	return nil
}
