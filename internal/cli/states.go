package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sitetag/internal/ctxlog"
	"github.com/roach88/sitetag/internal/engine"
	"github.com/roach88/sitetag/internal/ir"
)

// StatesOptions holds flags for the states command.
type StatesOptions struct {
	*RootOptions
	placementFlags
	Instance string
}

// StatesResult is the JSON payload of the states command.
type StatesResult struct {
	Valid     bool            `json:"valid"`
	Instances []ir.Resolution `json:"instances"`
}

// NewStatesCommand creates the states command.
func NewStatesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "states <spec> <placements>",
		Short: "Print the resolved tag states of every instance",
		Long: `Apply each placement in file order to an incremental evaluator and
print the resolved tag→state map of every site and tile it touched.

Example:
  sitetag states ./constraints design.place
  sitetag states --instance site:SLICE_X0Y0 ./constraints design.place`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStates(opts, args[0], args[1], cmd)
		},
	}

	opts.placementFlags.bind(cmd)
	cmd.Flags().StringVar(&opts.Instance, "instance", "", "only print this instance (site:NAME or tile:NAME)")

	return cmd
}

func runStates(opts *StatesOptions, specPath, placementPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := ctxlog.FromContext(commandContext(cmd))

	var only *ir.InstanceKey
	if opts.Instance != "" {
		key, err := ir.ParseInstanceKey(opts.Instance)
		if err != nil {
			return outputCommandError(formatter, err)
		}
		only = &key
	}

	model, err := LoadModel(specPath)
	if err != nil {
		return outputSpecError(formatter, err)
	}
	placements, err := LoadPlacements(placementPath, opts.filter())
	if err != nil {
		return outputCommandError(formatter, err)
	}

	ev := engine.NewEvaluator(model,
		engine.WithMatchPolicy(opts.policy()),
		engine.WithLogger(logger))
	for _, p := range placements {
		if err := ev.Apply(p); err != nil {
			_ = formatter.Error(ErrCodeUsage, err.Error(), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: %v", ErrCodeUsage, err))
		}
	}

	result := StatesResult{Valid: ev.Valid(), Instances: []ir.Resolution{}}
	for _, key := range ev.Instances() {
		if only != nil && key != *only {
			continue
		}
		if res, ok := ev.Resolution(key); ok {
			result.Instances = append(result.Instances, res)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	writeStatesText(formatter, result.Instances)
	return nil
}

func writeStatesText(formatter *OutputFormatter, instances []ir.Resolution) {
	w := formatter.Writer
	if len(instances) == 0 {
		fmt.Fprintln(w, "no instances")
		return
	}
	for _, res := range instances {
		marker := "✓"
		if !res.Valid() {
			marker = "✗"
		}
		fmt.Fprintf(w, "%s %s (%s)\n", marker, res.Instance, res.Type)
		for _, tag := range sortedTags(res.States) {
			fmt.Fprintf(w, "    %s = %s\n", tag, res.States[tag])
		}
		for _, c := range res.Conflicts {
			fmt.Fprintf(w, "    conflict: %s {%s}\n", c.Tag, strings.Join(c.States, ", "))
		}
		for _, v := range res.Violations {
			fmt.Fprintf(w, "    violation: %s requires %s in {%s}\n", v.Placement, v.Tag, strings.Join(v.Required, ", "))
		}
	}
}

func sortedTags(states map[string]string) []string {
	tags := make([]string, 0, len(states))
	for tag := range states {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}
