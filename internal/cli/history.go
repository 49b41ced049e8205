package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/debate"
	"github.com/parleyhq/parley/internal/history"
)

// NewHistoryCmd creates the history command group.
func NewHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past review sessions",
		Long: `Every recorded review and debate session lands in a local SQLite
database. History lists, shows, searches and prunes them.`,
	}
	cmd.AddCommand(
		newHistoryListCmd(app),
		newHistoryShowCmd(app),
		newHistorySearchCmd(app),
		newHistoryDeleteCmd(app),
	)
	return cmd
}

// HistoryListOptions holds flags for history list.
type HistoryListOptions struct {
	Type  string
	Limit int
	JSON  bool
}

func newHistoryListCmd(app *App) *cobra.Command {
	opts := HistoryListOptions{Limit: 20}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ListHistory(cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "Only sessions of this review type (plan or code)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum sessions to list")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON instead of a table")
	return cmd
}

func newHistoryShowCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session with its rounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ShowSession(cmd.OutOrStdout(), args[0], asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON instead of formatted text")
	return cmd
}

// HistorySearchOptions holds flags for history search.
type HistorySearchOptions struct {
	From string
	To   string
	Type string
	JSON bool
}

func newHistorySearchCmd(app *App) *cobra.Command {
	opts := HistorySearchOptions{}
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search sessions by date range and type",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.SearchHistory(cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.From, "from", "", "Earliest creation date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&opts.To, "to", "", "Latest creation date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "Only sessions of this review type (plan or code)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON instead of a table")
	return cmd
}

func newHistoryDeleteCmd(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete one recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.DeleteSession(cmd.InOrStdin(), cmd.OutOrStdout(), args[0], force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	return cmd
}

// ListHistory prints recorded sessions, newest first.
func (a *App) ListHistory(out io.Writer, opts HistoryListOptions) error {
	rt, err := a.wireRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	hist, err := rt.HistoryStore()
	if err != nil {
		return err
	}
	sums, err := hist.ListSessions(debate.Kind(opts.Type), opts.Limit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	return printSummaries(out, sums, opts.JSON)
}

// ShowSession prints one session with every recorded round.
func (a *App) ShowSession(out io.Writer, id string, asJSON bool) error {
	rt, err := a.wireRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	hist, err := rt.HistoryStore()
	if err != nil {
		return err
	}
	rec, err := hist.GetSession(id)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("session not found: %s", id)
	}
	if asJSON {
		return outputJSON(out, rec)
	}
	fmt.Fprintf(out, "Session:   %s\n", rec.ID)
	fmt.Fprintf(out, "Created:   %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Type:      %s\n", rec.ReviewType)
	fmt.Fprintf(out, "Artifact:  %s\n", rec.Artifact)
	if rec.FinalDecision != "" {
		fmt.Fprintf(out, "Decision:  %s\n", rec.FinalDecision)
	}
	if len(rec.Rounds) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, (&debate.Result{Rounds: rec.Rounds}).FormatHistory())
	}
	return nil
}

// SearchHistory prints the sessions matching a date range and type.
func (a *App) SearchHistory(out io.Writer, opts HistorySearchOptions) error {
	rt, err := a.wireRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	from, err := parseTimeFlag("from", opts.From, false)
	if err != nil {
		return err
	}
	to, err := parseTimeFlag("to", opts.To, true)
	if err != nil {
		return err
	}

	hist, err := rt.HistoryStore()
	if err != nil {
		return err
	}
	sums, err := hist.Search(from, to, debate.Kind(opts.Type))
	if err != nil {
		return fmt.Errorf("failed to search sessions: %w", err)
	}
	return printSummaries(out, sums, opts.JSON)
}

// DeleteSession removes one recorded session.
func (a *App) DeleteSession(in io.Reader, out io.Writer, id string, force bool) error {
	rt, err := a.wireRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	hist, err := rt.HistoryStore()
	if err != nil {
		return err
	}
	if !force && !confirm(in, out, fmt.Sprintf("Delete session %s?", id)) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}
	if err := hist.DeleteSession(id); err != nil {
		return err
	}
	fmt.Fprintf(out, "Session %s deleted.\n", id)
	return nil
}

// printSummaries renders session summaries as a table or JSON.
func printSummaries(out io.Writer, sums []*history.Summary, asJSON bool) error {
	if asJSON {
		if sums == nil {
			sums = []*history.Summary{}
		}
		return outputJSON(out, sums)
	}
	if len(sums) == 0 {
		fmt.Fprintln(out, "No sessions recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTYPE\tROUNDS\tDECISION\tARTIFACT")
	for _, s := range sums {
		decision := s.FinalDecision
		if decision == "" {
			decision = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID,
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			s.ReviewType,
			s.RoundCount,
			decision,
			s.Artifact,
		)
	}
	return tw.Flush()
}

// parseTimeFlag parses a --from/--to value. Date-only values for the
// range end are extended to the end of that day so the range includes it.
func parseTimeFlag(name, value string, rangeEnd bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		if rangeEnd {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --%s value %q: use YYYY-MM-DD or RFC3339", name, value)
}
