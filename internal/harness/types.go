package harness

import "github.com/roach88/sitetag/internal/ir"

// TraceEvent records one step of a scenario and the evaluator's verdict
// right after it.
type TraceEvent struct {
	Seq        int64           `json:"seq"`
	Op         string          `json:"op"` // "apply" or "undo"
	Placement  ir.PlacementKey `json:"placement"`
	Valid      bool            `json:"valid"`
	Conflicts  int             `json:"conflicts"`
	Violations int             `json:"violations"`
	Error      string          `json:"error,omitempty"` // usage error code, if the step was rejected
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists every failed expectation and assertion.
	Errors []string `json:"errors,omitempty"`

	// Final holds the resolution of every occupied instance after the last step.
	Final []ir.Resolution `json:"final"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Final:  []ir.Resolution{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step event.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
