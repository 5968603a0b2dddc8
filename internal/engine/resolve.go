package engine

import (
	"slices"
	"strings"

	"github.com/roach88/sitetag/internal/ir"
)

// Resolve folds the contributions of one instance into its resolved state.
//
// Every tag carried by instanceType appears in States: the implied state
// when all implying placements agree, otherwise the tag's default. When
// implying placements disagree the tag gets exactly one TagConflict and is
// left out of States. Each required contribution is then checked against
// the resolved state. Requirements on a conflicted tag are not reported
// again, and requirements on tags the instance does not carry never fire.
//
// The result does not depend on the order of contribs. Contributions for
// other instances are ignored.
func Resolve(m *Model, key ir.InstanceKey, instanceType string, contribs []ir.Contribution) ir.Resolution {
	res := ir.Resolution{
		Instance: key,
		Type:     instanceType,
		States:   make(map[string]string),
	}

	// tag → state → implying placements
	implied := make(map[string]map[string][]ir.PlacementKey)
	for _, c := range contribs {
		if c.Instance != key || c.Kind != ir.ContributionImplied {
			continue
		}
		if implied[c.Tag] == nil {
			implied[c.Tag] = make(map[string][]ir.PlacementKey)
		}
		implied[c.Tag][c.State] = append(implied[c.Tag][c.State], c.Placement)
	}

	conflicted := make(map[string]bool)
	for _, name := range m.TagsFor(key.Kind, instanceType) {
		byState := implied[name]
		switch len(byState) {
		case 0:
			tag, _ := m.Tag(name)
			res.States[name] = tag.Default
		case 1:
			for state := range byState {
				res.States[name] = state
			}
		default:
			conflicted[name] = true
			res.Conflicts = append(res.Conflicts, newConflict(key, name, byState))
		}
	}

	for _, c := range contribs {
		if c.Instance != key || c.Kind != ir.ContributionRequired || conflicted[c.Tag] {
			continue
		}
		resolved, ok := res.States[c.Tag]
		if !ok || slices.Contains(c.States, resolved) {
			continue
		}
		res.Violations = append(res.Violations, ir.RequirementViolation{
			Instance:  key,
			Tag:       c.Tag,
			Placement: c.Placement,
			Resolved:  resolved,
			Required:  slices.Clone(c.States),
		})
	}

	slices.SortFunc(res.Conflicts, func(a, b ir.TagConflict) int {
		return strings.Compare(a.Tag, b.Tag)
	})
	slices.SortFunc(res.Violations, compareViolations)
	res.Violations = slices.CompactFunc(res.Violations, func(a, b ir.RequirementViolation) bool {
		return compareViolations(a, b) == 0
	})

	return res
}

// newConflict builds the conflict record for one tag.
// States are sorted and distinct; placements are sorted and distinct.
func newConflict(key ir.InstanceKey, tag string, byState map[string][]ir.PlacementKey) ir.TagConflict {
	c := ir.TagConflict{Instance: key, Tag: tag}
	for state, placements := range byState {
		c.States = append(c.States, state)
		c.Placements = append(c.Placements, placements...)
	}
	slices.Sort(c.States)
	slices.Sort(c.Placements)
	c.Placements = slices.Compact(c.Placements)
	return c
}

// compareViolations orders violations by tag, placement key, then required set.
func compareViolations(a, b ir.RequirementViolation) int {
	if c := strings.Compare(a.Tag, b.Tag); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Placement), string(b.Placement)); c != 0 {
		return c
	}
	return slices.Compare(a.Required, b.Required)
}
