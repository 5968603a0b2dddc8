package engine

import (
	"log/slog"

	"github.com/roach88/sitetag/internal/ir"
)

// Extract returns the contributions of one placement.
//
// Rules for p.CellType are visited in declaration order. Within a rule,
// locations are tested in order; a location matches when p.SiteType is in
// its site types and p.BEL satisfies its BEL pattern. Under MatchFirst only
// the first matching location of each rule contributes; under MatchUnion
// every matching location does.
//
// Tags out of scope for the placement's site or tile type contribute
// nothing. References to routed tags contribute nothing because routing
// is not modelled.
//
// Extract is a pure function of (model, placement, policy).
func Extract(m *Model, p ir.Placement, policy MatchPolicy) []ir.Contribution {
	return extract(m, p, policy, nil)
}

func extract(m *Model, p ir.Placement, policy MatchPolicy, logger *slog.Logger) []ir.Contribution {
	var out []ir.Contribution
	key := p.Key()

	for _, rule := range m.RulesForCell(p.CellType) {
		for i := range rule.Locations {
			loc := &rule.Locations[i]
			if !loc.Matches(p.SiteType, p.BEL) {
				continue
			}

			for _, imp := range loc.Implies {
				inst, ok := m.contributionInstance(imp.Tag, p, logger)
				if !ok {
					continue
				}
				out = append(out, ir.Contribution{
					Instance:  inst,
					Tag:       imp.Tag,
					Kind:      ir.ContributionImplied,
					State:     imp.State,
					Placement: key,
				})
			}

			for _, req := range loc.Requires {
				inst, ok := m.contributionInstance(req.Tag, p, logger)
				if !ok {
					continue
				}
				out = append(out, ir.Contribution{
					Instance:  inst,
					Tag:       req.Tag,
					Kind:      ir.ContributionRequired,
					States:    req.States,
					Placement: key,
				})
			}

			if policy == MatchFirst {
				break
			}
		}
	}

	return out
}

// contributionInstance resolves the instance a tag reference from p lands on.
func (m *Model) contributionInstance(name string, p ir.Placement, logger *slog.Logger) (ir.InstanceKey, bool) {
	tag, ok := m.Tag(name)
	if !ok {
		if logger != nil {
			if _, routed := m.RoutedTag(name); routed {
				logger.Debug("routed tag reference skipped",
					"tag", name,
					"placement", p.Key())
			}
		}
		return ir.InstanceKey{}, false
	}

	inst, ok := m.instanceFor(tag, p)
	if !ok && logger != nil {
		logger.Debug("tag out of scope",
			"tag", name,
			"placement", p.Key(),
			"site_type", p.SiteType,
			"tile_type", p.TileType)
	}
	return inst, ok
}
