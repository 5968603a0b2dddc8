package engine

import (
	"fmt"

	"github.com/roach88/sitetag/internal/ir"
)

// MatchPolicy selects which location alternatives of a rule contribute when
// several match the same placement.
type MatchPolicy int

const (
	// MatchFirst uses only the first matching location of each rule (default).
	MatchFirst MatchPolicy = iota

	// MatchUnion uses every matching location of each rule.
	MatchUnion
)

func (p MatchPolicy) String() string {
	switch p {
	case MatchFirst:
		return "first"
	case MatchUnion:
		return "union"
	default:
		return fmt.Sprintf("MatchPolicy(%d)", int(p))
	}
}

// ParseMatchPolicy parses "first" or "union". Empty means first.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch s {
	case "", "first":
		return MatchFirst, nil
	case "union":
		return MatchUnion, nil
	default:
		return MatchFirst, fmt.Errorf("invalid match policy %q: must be first or union", s)
	}
}

// occupied is an instance a placement sits in, with its type.
type occupied struct {
	key ir.InstanceKey
	typ string
}

// occupiedBy returns the site instance of p and, when p names a tile, its
// tile instance.
func occupiedBy(p ir.Placement) []occupied {
	out := []occupied{{key: ir.SiteKey(p.Site), typ: p.SiteType}}
	if p.Tile != "" {
		out = append(out, occupied{key: ir.TileKey(p.Tile), typ: p.TileType})
	}
	return out
}

// instanceFor returns the instance carrying tag for placement p.
// Returns false when the tag is out of scope for p's site or tile type.
func (m *Model) instanceFor(tag *ir.TagDef, p ir.Placement) (ir.InstanceKey, bool) {
	if !m.TagInScope(tag.Name, p.SiteType, p.TileType) {
		return ir.InstanceKey{}, false
	}
	switch tag.ScopeKind() {
	case ir.ScopeSite:
		return ir.SiteKey(p.Site), true
	case ir.ScopeTile:
		if p.Tile == "" {
			return ir.InstanceKey{}, false
		}
		return ir.TileKey(p.Tile), true
	default:
		return ir.InstanceKey{}, false
	}
}
