package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sitetag/internal/ir"
)

// Snapshot captures the trace and final state of a scenario execution.
type Snapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	Final        []ir.Resolution
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization, since ir.MarshalCanonical only handles primitives and maps.
func (s *Snapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"seq":        event.Seq,
			"op":         event.Op,
			"placement":  string(event.Placement),
			"valid":      event.Valid,
			"conflicts":  event.Conflicts,
			"violations": event.Violations,
		}
		if event.Error != "" {
			eventMap["error"] = event.Error
		}
		trace[i] = eventMap
	}

	final := make([]any, len(s.Final))
	for i, res := range s.Final {
		problems := make([]string, 0, len(res.Conflicts)+len(res.Violations))
		for _, c := range res.Conflicts {
			problems = append(problems, c.String())
		}
		for _, v := range res.Violations {
			problems = append(problems, v.String())
		}
		final[i] = map[string]any{
			"instance": res.Instance.String(),
			"type":     res.Type,
			"states":   res.States,
			"problems": problems,
		}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"final":         final,
	}
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot run. A snapshot mismatch fails t.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}

// MarshalSnapshot renders the canonical JSON snapshot of a result.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Final:        result.Final,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}
