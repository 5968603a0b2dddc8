package netlist

import (
	"slices"
	"strings"

	"github.com/roach88/sitetag/internal/ir"
)

// Filter narrows a placement list before checking.
type Filter struct {
	// AllowedSites keeps only placements at these sites. Empty keeps all.
	AllowedSites []string

	// FilteredCellTypes drops placements of these cell types.
	FilteredCellTypes []string
}

// ParseList splits a comma separated flag value, dropping empty entries.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Empty reports whether the filter keeps every placement.
func (f Filter) Empty() bool {
	return len(f.AllowedSites) == 0 && len(f.FilteredCellTypes) == 0
}

// Keep reports whether p passes the filter.
func (f Filter) Keep(p ir.Placement) bool {
	if len(f.AllowedSites) > 0 && !slices.Contains(f.AllowedSites, p.Site) {
		return false
	}
	return !slices.Contains(f.FilteredCellTypes, p.CellType)
}

// Apply returns the placements that pass the filter, in input order.
func (f Filter) Apply(placements []ir.Placement) []ir.Placement {
	if f.Empty() {
		return placements
	}
	out := make([]ir.Placement, 0, len(placements))
	for _, p := range placements {
		if f.Keep(p) {
			out = append(out, p)
		}
	}
	return out
}
