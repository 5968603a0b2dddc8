package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sitetag/internal/ir"
	"github.com/roach88/sitetag/internal/netlist"
	"github.com/roach88/sitetag/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	RunID    string
	Label    string
	Kinds    string
	Instance string
	Tag      string
	States   bool
}

// HistoryResult is the JSON payload of the history command. Exactly one
// of the slices is populated, depending on the query.
type HistoryResult struct {
	Runs        []ir.Run           `json:"runs,omitempty"`
	Diagnostics []ir.RunDiagnostic `json:"diagnostics,omitempty"`
	States      []ir.InstanceState `json:"states,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <db>",
		Short: "Inspect recorded check runs",
		Long: `List the runs recorded by "sitetag check --db", or the diagnostics
and instance states one of them produced.

Without filters the runs are listed in the order they were recorded.
Any of --run, --kind, --instance or --tag switches to diagnostics.
--run accepts "latest".

Example:
  sitetag history runs.db
  sitetag history runs.db --run latest --kind conflict
  sitetag history runs.db --run latest --states`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", `run ID, or "latest"`)
	cmd.Flags().StringVar(&opts.Label, "label", "", "only list runs with this label")
	cmd.Flags().StringVar(&opts.Kinds, "kind", "", "comma separated diagnostic kinds (conflict, violation)")
	cmd.Flags().StringVar(&opts.Instance, "instance", "", "only diagnostics at this instance (site:NAME or tile:NAME)")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "only diagnostics for this tag")
	cmd.Flags().BoolVar(&opts.States, "states", false, "print the instance states recorded by --run")

	return cmd
}

func runHistory(opts *HistoryOptions, dbPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	// Opening would create an empty database; history never writes.
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return outputCommandError(formatter, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database not found: %s", dbPath)})
	}
	if opts.States && opts.RunID == "" {
		return outputCommandError(formatter, errors.New("--states requires --run"))
	}

	filter, err := opts.diagnosticFilter()
	if err != nil {
		return outputCommandError(formatter, err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return outputStoreError(formatter, err)
	}
	defer st.Close()

	if opts.RunID == "latest" {
		run, err := st.LatestRun(ctx)
		if err != nil {
			return outputStoreError(formatter, err)
		}
		filter.RunID = run.ID
	} else if opts.RunID != "" {
		if _, err := st.ReadRun(ctx, opts.RunID); err != nil {
			return outputStoreError(formatter, err)
		}
	}

	var result HistoryResult
	switch {
	case opts.States:
		if result.States, err = st.ReadInstanceStates(ctx, filter.RunID); err != nil {
			return outputStoreError(formatter, err)
		}
	case opts.wantsDiagnostics():
		if result.Diagnostics, err = st.ReadDiagnostics(ctx, filter); err != nil {
			return outputStoreError(formatter, err)
		}
	default:
		if result.Runs, err = st.ReadRuns(ctx, store.RunFilter{Label: opts.Label}); err != nil {
			return outputStoreError(formatter, err)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	writeHistoryText(formatter, opts, result)
	return nil
}

func (o *HistoryOptions) wantsDiagnostics() bool {
	return o.RunID != "" || o.Kinds != "" || o.Instance != "" || o.Tag != ""
}

func (o *HistoryOptions) diagnosticFilter() (store.DiagnosticFilter, error) {
	f := store.DiagnosticFilter{RunID: o.RunID, Tag: o.Tag}
	for _, k := range netlist.ParseList(o.Kinds) {
		kind, err := parseDiagnosticKind(k)
		if err != nil {
			return f, err
		}
		f.Kinds = append(f.Kinds, kind)
	}
	if o.Instance != "" {
		key, err := ir.ParseInstanceKey(o.Instance)
		if err != nil {
			return f, err
		}
		f.Instance = &key
	}
	return f, nil
}

func parseDiagnosticKind(s string) (ir.DiagnosticKind, error) {
	switch strings.ToLower(s) {
	case "conflict", string(ir.DiagTagConflict):
		return ir.DiagTagConflict, nil
	case "violation", string(ir.DiagRequirementViolation):
		return ir.DiagRequirementViolation, nil
	default:
		return "", fmt.Errorf("invalid diagnostic kind %q: must be conflict or violation", s)
	}
}

func outputStoreError(formatter *OutputFormatter, err error) error {
	code := ErrCodeStoreFailed
	if errors.Is(err, store.ErrRunNotFound) {
		code = ErrCodeNotFound
	}
	_ = formatter.Error(code, err.Error(), nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %v", code, err))
}

func writeHistoryText(formatter *OutputFormatter, opts *HistoryOptions, result HistoryResult) {
	w := formatter.Writer
	switch {
	case opts.States:
		writeRecordedStates(formatter, result.States)
	case opts.wantsDiagnostics():
		if len(result.Diagnostics) == 0 {
			fmt.Fprintln(w, "no diagnostics")
			return
		}
		for _, d := range result.Diagnostics {
			fmt.Fprintf(w, "%s [%d] %s %s\n", d.RunID, d.Seq, d.Kind, d.Message())
		}
	default:
		if len(result.Runs) == 0 {
			fmt.Fprintln(w, "no runs")
			return
		}
		for _, r := range result.Runs {
			status := "legal"
			if !r.Valid {
				status = "illegal"
			}
			label := ""
			if r.Label != "" {
				label = " label=" + r.Label
			}
			fmt.Fprintf(w, "%4d %s %s placements=%d instances=%d policy=%s%s\n",
				r.Seq, r.ID, status, r.Placements, r.Instances, r.MatchPolicy, label)
		}
	}
}

func writeRecordedStates(formatter *OutputFormatter, states []ir.InstanceState) {
	w := formatter.Writer
	if len(states) == 0 {
		fmt.Fprintln(w, "no instances")
		return
	}
	for _, st := range states {
		marker := "✓"
		if !st.Valid {
			marker = "✗"
		}
		fmt.Fprintf(w, "%s %s (%s)\n", marker, st.Instance, st.Type)
		for _, tag := range sortedTags(st.States) {
			fmt.Fprintf(w, "    %s = %s\n", tag, st.States[tag])
		}
	}
}
