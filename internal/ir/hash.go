package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSpec       = "sitetag/spec/v1"
	DomainPlacements = "sitetag/placements/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SpecHash computes the content hash of a constraint spec.
// Declaration order of tags, states, rules and locations is significant
// (first-match evaluation depends on it); set-valued fields are not.
func SpecHash(spec *ConstraintSpec) (string, error) {
	canonical, err := MarshalCanonical(specToCanonical(spec))
	if err != nil {
		return "", fmt.Errorf("SpecHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSpec, canonical), nil
}

// PlacementHash computes an order-independent hash of a placement set.
func PlacementHash(placements []Placement) (string, error) {
	items := make([]any, len(placements))
	for i, p := range placements {
		items[i] = map[string]any{
			"cell":      p.Cell,
			"cell_type": p.CellType,
			"site":      p.Site,
			"site_type": p.SiteType,
			"bel":       p.BEL,
			"tile":      p.Tile,
			"tile_type": p.TileType,
		}
	}
	slices.SortFunc(items, func(a, b any) int {
		ka, kb := placementSortKey(a), placementSortKey(b)
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
	canonical, err := MarshalCanonical(items)
	if err != nil {
		return "", fmt.Errorf("PlacementHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPlacements, canonical), nil
}

func placementSortKey(v any) string {
	m := v.(map[string]any)
	return m["cell"].(string) + "\x00" + m["site"].(string) + "\x00" + m["bel"].(string)
}

// MustSpecHash is like SpecHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSpecHash(spec *ConstraintSpec) string {
	h, err := SpecHash(spec)
	if err != nil {
		panic(err)
	}
	return h
}

func specToCanonical(spec *ConstraintSpec) map[string]any {
	tags := make([]any, len(spec.Tags))
	for i, t := range spec.Tags {
		states := make([]any, len(t.States))
		for j, s := range t.States {
			states[j] = map[string]any{"name": s.Name, "description": s.Description}
		}
		tags[i] = map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"default":     t.Default,
			"states":      states,
			"site_types":  sortedCopy(t.SiteTypes),
			"tile_types":  sortedCopy(t.TileTypes),
		}
	}

	routed := make([]any, len(spec.RoutedTags))
	for i, r := range spec.RoutedTags {
		pins := make([]any, len(r.BelPins))
		for j, p := range r.BelPins {
			pins[j] = map[string]any{"pin": p.Pin, "tag": p.Tag}
		}
		routed[i] = map[string]any{"name": r.Name, "routing_bel": r.RoutingBel, "bel_pins": pins}
	}

	rules := make([]any, len(spec.CellConstraints))
	for i, c := range spec.CellConstraints {
		locs := make([]any, len(c.Locations))
		for j, l := range c.Locations {
			implies := make([]any, len(l.Implies))
			for k, imp := range l.Implies {
				implies[k] = map[string]any{"tag": imp.Tag, "state": imp.State, "port": imp.Port}
			}
			requires := make([]any, len(l.Requires))
			for k, req := range l.Requires {
				requires[k] = map[string]any{"tag": req.Tag, "states": sortedCopy(req.States), "port": req.Port}
			}
			locs[j] = map[string]any{
				"site_types": sortedCopy(l.SiteTypes),
				"bel": map[string]any{
					"kind":  string(l.Bel.Kind),
					"name":  l.Bel.Name,
					"names": sortedCopy(l.Bel.Names),
				},
				"implies":  implies,
				"requires": requires,
			}
		}
		rules[i] = map[string]any{"cells": sortedCopy(c.Cells), "locations": locs}
	}

	return map[string]any{
		"tags":             tags,
		"routed_tags":      routed,
		"cell_constraints": rules,
	}
}

func sortedCopy(s []string) []string {
	out := slices.Clone(s)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return out
}
