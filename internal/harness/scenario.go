package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sitetag/internal/ir"
)

// Scenario is a scripted sequence of apply and undo steps against an
// incremental evaluator, followed by assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Spec is the constraint spec (.yaml, .yml or .cue), relative to the
	// scenario file.
	Spec string `yaml:"spec"`

	// MatchPolicy is "first" (default) or "union".
	MatchPolicy string `yaml:"match_policy,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the state after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step applies or undoes one placement. Exactly one of Apply and Undo is set.
type Step struct {
	// Apply is a placement statement without the leading "place" and the
	// trailing ";", e.g. "ram0 RAMD32 at SLICE_X0Y0:SLICEM/H5LUT".
	Apply string `yaml:"apply,omitempty"`

	// Undo names the cell of an earlier apply step.
	Undo string `yaml:"undo,omitempty"`

	// Expect checks the evaluator right after this step.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// StepExpect lists what must hold after a step. Unset fields are not checked.
type StepExpect struct {
	Valid      *bool  `yaml:"valid,omitempty"`
	Conflicts  *int   `yaml:"conflicts,omitempty"`
	Violations *int   `yaml:"violations,omitempty"`
	Error      string `yaml:"error,omitempty"` // expected usage error code
}

// Assertion validates the final evaluator state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "state": Tag resolves to State at Instance
	// - "conflict": Tag is in conflict at Instance (over exactly States, if given)
	// - "violation": a requirement on Tag is violated at Instance (by Cell, if given)
	// - "valid": overall validity equals Valid
	// - "instances": the occupied instances are exactly Instances
	// - "matches_check": a batch check of the applied placements agrees
	// - "stored_diagnostics": the recorded run has Count diagnostics matching Kind and Tag
	Type string `yaml:"type"`

	Instance  string   `yaml:"instance,omitempty"`
	Tag       string   `yaml:"tag,omitempty"`
	State     string   `yaml:"state,omitempty"`
	States    []string `yaml:"states,omitempty"`
	Cell      string   `yaml:"cell,omitempty"`
	Kind      string   `yaml:"kind,omitempty"`
	Valid     *bool    `yaml:"valid,omitempty"`
	Count     *int     `yaml:"count,omitempty"`
	Instances []string `yaml:"instances,omitempty"`
}

// Assertion type constants.
const (
	AssertState             = "state"
	AssertConflict          = "conflict"
	AssertViolation         = "violation"
	AssertValid             = "valid"
	AssertInstances         = "instances"
	AssertMatchesCheck      = "matches_check"
	AssertStoredDiagnostics = "stored_diagnostics"
)

// LoadScenario reads and parses a scenario YAML file.
// The spec path is resolved relative to the scenario file. Unknown fields
// and missing required fields are errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Spec != "" && !filepath.IsAbs(scenario.Spec) {
		scenario.Spec = filepath.Join(filepath.Dir(path), scenario.Spec)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Spec == "" {
		return fmt.Errorf("spec is required")
	}
	if _, err := os.Stat(s.Spec); os.IsNotExist(err) {
		return fmt.Errorf("spec file not found: %s", s.Spec)
	}

	switch s.MatchPolicy {
	case "", "first", "union":
	default:
		return fmt.Errorf("match_policy must be first or union, got %q", s.MatchPolicy)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if (step.Apply == "") == (step.Undo == "") {
			return fmt.Errorf("steps[%d]: exactly one of apply or undo is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needInstance := func() error {
		if a.Instance == "" {
			return fmt.Errorf("assertions[%d]: instance is required for %s", index, a.Type)
		}
		if _, err := ir.ParseInstanceKey(a.Instance); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Tag == "" {
			return fmt.Errorf("assertions[%d]: tag is required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertState:
		if err := needInstance(); err != nil {
			return err
		}
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for state", index)
		}
	case AssertConflict, AssertViolation:
		return needInstance()
	case AssertValid:
		if a.Valid == nil {
			return fmt.Errorf("assertions[%d]: valid is required for valid", index)
		}
	case AssertInstances:
		for _, s := range a.Instances {
			if _, err := ir.ParseInstanceKey(s); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertMatchesCheck:
	case AssertStoredDiagnostics:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for stored_diagnostics", index)
		}
		switch ir.DiagnosticKind(a.Kind) {
		case "", ir.DiagTagConflict, ir.DiagRequirementViolation:
		default:
			return fmt.Errorf("assertions[%d]: unknown diagnostic kind %q", index, a.Kind)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
