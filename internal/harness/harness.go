package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/sitetag/internal/compiler"
	"github.com/roach88/sitetag/internal/engine"
	"github.com/roach88/sitetag/internal/ir"
	"github.com/roach88/sitetag/internal/netlist"
	"github.com/roach88/sitetag/internal/store"
)

// Harness drives an incremental evaluator through a scenario.
type Harness struct {
	model   *engine.Model
	eval    *engine.Evaluator
	policy  engine.MatchPolicy
	clock   *engine.Clock
	parser  *netlist.Parser
	logger  *slog.Logger
	applied []ir.Placement          // currently applied, in apply order
	byCell  map[string]ir.Placement // last placement applied per cell name
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load and validate the scenario's constraint spec
//  2. Apply and undo placements step by step, checking step expectations
//  3. Batch check the placements still applied and record the report in a
//     fresh in-memory store
//  4. Evaluate assertions against the evaluator, the report and the store
//
// An error is returned only when the scenario cannot run at all. Failed
// expectations and assertions are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	model, err := LoadModel(scenario.Spec)
	if err != nil {
		return nil, fmt.Errorf("failed to load spec: %w", err)
	}
	policy, err := engine.ParseMatchPolicy(scenario.MatchPolicy)
	if err != nil {
		return nil, err
	}
	parser, err := netlist.NewParser()
	if err != nil {
		return nil, fmt.Errorf("failed to build placement parser: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		model:  model,
		policy: policy,
		clock:  engine.NewClock(),
		parser: parser,
		logger: logger,
		byCell: make(map[string]ir.Placement),
	}
	h.eval = engine.NewEvaluator(model, engine.WithMatchPolicy(policy), engine.WithLogger(logger))

	result := NewResult()
	if err := h.executeSteps(scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	for _, key := range h.eval.Instances() {
		if res, ok := h.eval.Resolution(key); ok {
			result.Final = append(result.Final, res)
		}
	}

	report, err := engine.Check(ctx, model, h.applied,
		engine.WithMatchPolicy(policy),
		engine.WithLogger(logger),
		engine.WithWorkers(2))
	if err != nil {
		return nil, fmt.Errorf("failed to check applied placements: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	run, err := st.WriteRun(ctx, ir.NewRun(scenario.Name, scenario.Name, policy.String(), report), report)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	actx := &AssertionContext{
		Ctx:       ctx,
		Evaluator: h.eval,
		Report:    report,
		Store:     st,
		RunID:     run.ID,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeSteps runs every step and checks its expect clause.
// Usage errors from the evaluator are recorded in the trace, not returned.
func (h *Harness) executeSteps(steps []Step, result *Result) error {
	for i, step := range steps {
		event := TraceEvent{Seq: h.clock.Next()}

		var stepErr error
		switch {
		case step.Apply != "":
			p, err := h.parsePlacement(step.Apply)
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			event.Op, event.Placement = "apply", p.Key()
			if stepErr = h.eval.Apply(p); stepErr == nil {
				h.applied = append(h.applied, p)
				h.byCell[p.Cell] = p
			}
		default:
			p, ok := h.byCell[step.Undo]
			if !ok {
				return fmt.Errorf("step %d: undo of cell %q that no earlier step applied", i, step.Undo)
			}
			event.Op, event.Placement = "undo", p.Key()
			if stepErr = h.eval.Undo(p); stepErr == nil {
				h.forget(p)
			}
		}

		if stepErr != nil {
			var ue *engine.UsageError
			if !errors.As(stepErr, &ue) {
				return fmt.Errorf("step %d: %w", i, stepErr)
			}
			event.Error = string(ue.Code)
		}

		for _, d := range h.eval.Diagnostics() {
			switch d.Kind {
			case ir.DiagTagConflict:
				event.Conflicts++
			case ir.DiagRequirementViolation:
				event.Violations++
			}
		}
		event.Valid = h.eval.Valid()
		result.AddTrace(event)

		for _, msg := range checkExpect(step.Expect, event) {
			result.AddError(fmt.Sprintf("step %d (%s %s): %s", i, event.Op, event.Placement, msg))
		}

		h.logger.Debug("step completed",
			"step", i,
			"op", event.Op,
			"placement", event.Placement,
			"valid", event.Valid,
			"error", event.Error)
	}
	return nil
}

func (h *Harness) parsePlacement(stmt string) (ir.Placement, error) {
	placements, err := h.parser.ParseString("place " + strings.TrimSpace(stmt) + " ;")
	if err != nil {
		return ir.Placement{}, fmt.Errorf("invalid placement %q: %w", stmt, err)
	}
	if len(placements) != 1 {
		return ir.Placement{}, fmt.Errorf("invalid placement %q: expected exactly one statement", stmt)
	}
	return placements[0], nil
}

// forget drops p from the applied list after a successful undo.
func (h *Harness) forget(p ir.Placement) {
	key := p.Key()
	for i, q := range h.applied {
		if q.Key() == key {
			h.applied = append(h.applied[:i], h.applied[i+1:]...)
			return
		}
	}
}

func checkExpect(expect *StepExpect, event TraceEvent) []string {
	if expect == nil {
		return nil
	}
	var errs []string
	if expect.Error != event.Error {
		errs = append(errs, fmt.Sprintf("expected error %q, got %q", expect.Error, event.Error))
	}
	if expect.Valid != nil && *expect.Valid != event.Valid {
		errs = append(errs, fmt.Sprintf("expected valid=%t, got %t", *expect.Valid, event.Valid))
	}
	if expect.Conflicts != nil && *expect.Conflicts != event.Conflicts {
		errs = append(errs, fmt.Sprintf("expected %d conflict(s), got %d", *expect.Conflicts, event.Conflicts))
	}
	if expect.Violations != nil && *expect.Violations != event.Violations {
		errs = append(errs, fmt.Sprintf("expected %d violation(s), got %d", *expect.Violations, event.Violations))
	}
	return errs
}

// LoadModel loads a constraint spec from a .yaml, .yml or single .cue file
// and builds a validated model from it.
func LoadModel(path string) (*engine.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec *ir.ConstraintSpec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		spec, err = compiler.ParseYAML(data)
	case ".cue":
		value := cuecontext.New().CompileBytes(data, cue.Filename(path))
		if err := value.Err(); err != nil {
			return nil, fmt.Errorf("building CUE value: %w", err)
		}
		spec, err = compiler.CompileConstraints(value)
	default:
		return nil, fmt.Errorf("unsupported spec file %s", path)
	}
	if err != nil {
		return nil, err
	}
	return engine.NewModel(spec)
}
