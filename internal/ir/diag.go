package ir

import (
	"fmt"
	"strings"
)

// ContributionKind distinguishes resolution inputs from post-resolution checks.
type ContributionKind string

const (
	ContributionImplied  ContributionKind = "implied"
	ContributionRequired ContributionKind = "required"
)

// Contribution is a fact derived from one placement.
// Implied contributions set State; required contributions set States.
type Contribution struct {
	Instance  InstanceKey      `json:"instance"`
	Tag       string           `json:"tag"`
	Kind      ContributionKind `json:"kind"`
	State     string           `json:"state,omitempty"`
	States    []string         `json:"states,omitempty"`
	Placement PlacementKey     `json:"placement"`
}

// TagConflict records placements implying different states for one tag
// at one instance.
type TagConflict struct {
	Instance   InstanceKey    `json:"instance"`
	Tag        string         `json:"tag"`
	States     []string       `json:"states"`     // sorted, distinct
	Placements []PlacementKey `json:"placements"` // sorted
}

func (c TagConflict) String() string {
	placements := make([]string, len(c.Placements))
	for i, p := range c.Placements {
		placements[i] = string(p)
	}
	return fmt.Sprintf("%s: tag %s implied as {%s} by %s",
		c.Instance, c.Tag, strings.Join(c.States, ", "), strings.Join(placements, ", "))
}

// RequirementViolation records a placement whose required state set does
// not contain the tag's resolved state.
type RequirementViolation struct {
	Instance  InstanceKey  `json:"instance"`
	Tag       string       `json:"tag"`
	Placement PlacementKey `json:"placement"`
	Resolved  string       `json:"resolved"`
	Required  []string     `json:"required"`
}

func (v RequirementViolation) String() string {
	return fmt.Sprintf("%s: %s requires %s in {%s}, resolved %s",
		v.Instance, v.Placement, v.Tag, strings.Join(v.Required, ", "), v.Resolved)
}

// Resolution is the resolved tag state of one instance.
type Resolution struct {
	Instance   InstanceKey            `json:"instance"`
	Type       string                 `json:"type"` // site type or tile type
	States     map[string]string      `json:"states"`
	Conflicts  []TagConflict          `json:"conflicts,omitempty"`
	Violations []RequirementViolation `json:"violations,omitempty"`
}

// Valid reports whether the instance has no conflicts and no violations.
func (r *Resolution) Valid() bool {
	return len(r.Conflicts) == 0 && len(r.Violations) == 0
}

// DiagnosticKind names a diagnostic category.
type DiagnosticKind string

const (
	DiagTagConflict          DiagnosticKind = "tag_conflict"
	DiagRequirementViolation DiagnosticKind = "requirement_violation"
)

// Diagnostic is the flattened form of a conflict or violation, stamped with
// a logical sequence number for storage and reporting order.
type Diagnostic struct {
	Seq        int64          `json:"seq"`
	Kind       DiagnosticKind `json:"kind"`
	Instance   InstanceKey    `json:"instance"`
	Tag        string         `json:"tag"`
	States     []string       `json:"states"` // conflicting states or required set
	Resolved   string         `json:"resolved,omitempty"`
	Placements []PlacementKey `json:"placements"`
}

// Message renders the diagnostic as a single human-readable line.
func (d Diagnostic) Message() string {
	switch d.Kind {
	case DiagTagConflict:
		return TagConflict{Instance: d.Instance, Tag: d.Tag, States: d.States, Placements: d.Placements}.String()
	case DiagRequirementViolation:
		var p PlacementKey
		if len(d.Placements) > 0 {
			p = d.Placements[0]
		}
		return RequirementViolation{Instance: d.Instance, Tag: d.Tag, Placement: p, Resolved: d.Resolved, Required: d.States}.String()
	default:
		return fmt.Sprintf("%s: %s", d.Instance, d.Kind)
	}
}

// Report is the result of a full-netlist check.
type Report struct {
	SpecHash      string       `json:"spec_hash"`
	PlacementHash string       `json:"placement_hash"`
	Placements    int          `json:"placements"`
	Valid         bool         `json:"valid"`
	Instances     []Resolution `json:"instances"`
	Diagnostics   []Diagnostic `json:"diagnostics,omitempty"`
}

// Conflicts returns every conflict in instance order.
func (r *Report) Conflicts() []TagConflict {
	var out []TagConflict
	for _, inst := range r.Instances {
		out = append(out, inst.Conflicts...)
	}
	return out
}

// Violations returns every requirement violation in instance order.
func (r *Report) Violations() []RequirementViolation {
	var out []RequirementViolation
	for _, inst := range r.Instances {
		out = append(out, inst.Violations...)
	}
	return out
}
