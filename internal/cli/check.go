package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sitetag/internal/compiler"
	"github.com/roach88/sitetag/internal/ctxlog"
	"github.com/roach88/sitetag/internal/engine"
	"github.com/roach88/sitetag/internal/ir"
	"github.com/roach88/sitetag/internal/netlist"
	"github.com/roach88/sitetag/internal/store"
)

// placementFlags are shared by every command that evaluates placements.
type placementFlags struct {
	AllowedSites  string
	FilteredCells string
	Union         bool
}

func (f *placementFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.AllowedSites, "allowed-sites", "", "comma separated sites to keep (default all)")
	cmd.Flags().StringVar(&f.FilteredCells, "filtered-cells", "", "comma separated cell types to drop")
	cmd.Flags().BoolVar(&f.Union, "union", false, "let every matching location contribute, not just the first")
}

func (f *placementFlags) filter() netlist.Filter {
	return netlist.Filter{
		AllowedSites:      netlist.ParseList(f.AllowedSites),
		FilteredCellTypes: netlist.ParseList(f.FilteredCells),
	}
}

func (f *placementFlags) policy() engine.MatchPolicy {
	if f.Union {
		return engine.MatchUnion
	}
	return engine.MatchFirst
}

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	placementFlags
	Workers  int
	Database string
	Label    string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Run    *ir.Run    `json:"run,omitempty"`
	Report *ir.Report `json:"report"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <spec> <placements>",
		Short: "Check a placement file against a constraint spec",
		Long: `Resolve the tag states of every site and tile touched by a placement
file and report every conflict and requirement violation.

Exits 1 when the placement is illegal. With --db the run is recorded and
can be inspected later with "sitetag history".

Example:
  sitetag check ./constraints design.place
  sitetag check --db runs.db --label nightly ./constraints design.place`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], args[1], cmd)
		},
	}

	opts.placementFlags.bind(cmd)
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "resolver goroutines (default number of CPUs)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.Label, "label", "", "label for the recorded run (requires --db)")

	return cmd
}

func runCheck(opts *CheckOptions, specPath, placementPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)
	logger := ctxlog.FromContext(ctx)

	if opts.Label != "" && opts.Database == "" {
		return outputCommandError(formatter, errors.New("--label requires --db"))
	}

	model, err := LoadModel(specPath)
	if err != nil {
		return outputSpecError(formatter, err)
	}
	placements, err := LoadPlacements(placementPath, opts.filter())
	if err != nil {
		return outputCommandError(formatter, err)
	}
	logger.Info("checking placements",
		"spec_hash", model.Hash(),
		"placements", len(placements),
		"policy", opts.policy().String())

	checkOpts := []engine.Option{engine.WithMatchPolicy(opts.policy())}
	if opts.Workers > 0 {
		checkOpts = append(checkOpts, engine.WithWorkers(opts.Workers))
	}
	report, err := engine.Check(ctx, model, placements, checkOpts...)
	if err != nil {
		if engine.IsUsageError(err) {
			_ = formatter.Error(ErrCodeUsage, err.Error(), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: %v", ErrCodeUsage, err))
		}
		return outputCommandError(formatter, err)
	}

	result := CheckResult{Report: report}
	if opts.Database != "" {
		run, err := recordRun(opts, report, cmd)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, ErrCodeStoreFailed, err)
		}
		logger.Info("run recorded", "run_id", run.ID, "seq", run.Seq, "db", opts.Database)
		result.Run = &run
	}

	return outputCheckResult(formatter, result)
}

func recordRun(opts *CheckOptions, report *ir.Report, cmd *cobra.Command) (ir.Run, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return ir.Run{}, err
	}
	defer st.Close()

	gen := opts.RunIDs
	if gen == nil {
		gen = engine.UUIDv7Generator{}
	}
	run := ir.NewRun(gen.Generate(), opts.Label, opts.policy().String(), report)
	return st.WriteRun(commandContext(cmd), run, report)
}

// outputSpecError reports a spec that cannot be used: load problems and
// validation failures are both command errors here.
func outputSpecError(formatter *OutputFormatter, err error) error {
	var specErr *compiler.SpecError
	if errors.As(err, &specErr) {
		_ = formatter.Error(ErrCodeInvalidSpec, err.Error(), specErr.Errors)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: constraint spec has %d error(s)", ErrCodeInvalidSpec, len(specErr.Errors)))
	}
	return outputCommandError(formatter, err)
}

func outputCheckResult(formatter *OutputFormatter, result CheckResult) error {
	report := result.Report
	conflicts, violations := len(report.Conflicts()), len(report.Violations())
	summary := fmt.Sprintf("%d conflict(s), %d violation(s)", conflicts, violations)

	if formatter.Format == "json" {
		if report.Valid {
			return formatter.Success(result)
		}
		if err := formatter.Failure(ErrCodeIllegal, summary, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "placement illegal: "+summary)
	}

	w := formatter.Writer
	if report.Valid {
		fmt.Fprintf(w, "✓ Placement legal (%d placements, %d instances)\n", report.Placements, len(report.Instances))
	} else {
		fmt.Fprintf(w, "✗ Placement illegal: %s\n\n", summary)
		for _, d := range report.Diagnostics {
			fmt.Fprintf(w, "  [%d] %s %s\n", d.Seq, d.Kind, d.Message())
		}
	}
	if result.Run != nil {
		fmt.Fprintf(w, "recorded run %s (seq %d)\n", result.Run.ID, result.Run.Seq)
	}

	if !report.Valid {
		return NewExitError(ExitFailure, "placement illegal: "+summary)
	}
	return nil
}
