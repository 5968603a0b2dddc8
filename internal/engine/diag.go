package engine

import "github.com/roach88/sitetag/internal/ir"

// appendDiagnostics flattens the conflicts and violations of res, stamping
// each from clock.
func appendDiagnostics(out []ir.Diagnostic, res *ir.Resolution, clock *Clock) []ir.Diagnostic {
	for _, c := range res.Conflicts {
		out = append(out, ir.Diagnostic{
			Seq:        clock.Next(),
			Kind:       ir.DiagTagConflict,
			Instance:   c.Instance,
			Tag:        c.Tag,
			States:     c.States,
			Placements: c.Placements,
		})
	}
	for _, v := range res.Violations {
		out = append(out, ir.Diagnostic{
			Seq:        clock.Next(),
			Kind:       ir.DiagRequirementViolation,
			Instance:   v.Instance,
			Tag:        v.Tag,
			States:     v.Required,
			Resolved:   v.Resolved,
			Placements: []ir.PlacementKey{v.Placement},
		})
	}
	return out
}
