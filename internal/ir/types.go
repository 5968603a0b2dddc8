package ir

import "slices"

// ConstraintSpec represents a compiled constraint specification for one
// device family.
type ConstraintSpec struct {
	Tags            []TagDef         `json:"tags"`
	RoutedTags      []RoutedTagDef   `json:"routed_tags,omitempty"`
	CellConstraints []CellConstraint `json:"cell_constraints"`
}

// ScopeKind identifies which kind of instance carries a tag.
type ScopeKind string

const (
	ScopeSite ScopeKind = "site"
	ScopeTile ScopeKind = "tile"
)

// TagDef represents a site-local (or tile-local) configuration mode.
type TagDef struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Default     string     `json:"default"`
	States      []StateDef `json:"states"`
	SiteTypes   []string   `json:"site_types,omitempty"`
	TileTypes   []string   `json:"tile_types,omitempty"`
}

// ScopeKind returns the scoping kind of the tag.
// Returns "" when the tag declares no scope or both kinds; the validator
// rejects both cases.
func (t *TagDef) ScopeKind() ScopeKind {
	switch {
	case len(t.SiteTypes) > 0 && len(t.TileTypes) == 0:
		return ScopeSite
	case len(t.TileTypes) > 0 && len(t.SiteTypes) == 0:
		return ScopeTile
	default:
		return ""
	}
}

// HasState reports whether state is one of the tag's states.
func (t *TagDef) HasState(state string) bool {
	for _, s := range t.States {
		if s.Name == state {
			return true
		}
	}
	return false
}

// StateNames returns the state names in declaration order.
func (t *TagDef) StateNames() []string {
	names := make([]string, len(t.States))
	for i, s := range t.States {
		names[i] = s.Name
	}
	return names
}

// StateDef is one state of a tag. It carries identity and a description only.
type StateDef struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RoutedTagDef is a tag whose value depends on how a routing BEL connects
// its pins. Routed tags are validated but not evaluated.
type RoutedTagDef struct {
	Name       string   `json:"name"`
	RoutingBel string   `json:"routing_bel"`
	BelPins    []BelPin `json:"bel_pins"`
}

// BelPin maps a routing BEL pin to the tag it selects.
type BelPin struct {
	Pin string `json:"pin"`
	Tag string `json:"tag"`
}

// CellConstraint is one rule: the cell types it applies to and a list of
// location alternatives.
type CellConstraint struct {
	Cells     []string   `json:"cells"`
	Locations []Location `json:"locations"`
}

// AppliesTo reports whether the rule lists cellType.
func (c *CellConstraint) AppliesTo(cellType string) bool {
	return slices.Contains(c.Cells, cellType)
}

// Location is one location alternative of a rule.
type Location struct {
	SiteTypes []string   `json:"site_types"`
	Bel       BelPattern `json:"bel"`
	Implies   []Implies  `json:"implies,omitempty"`
	Requires  []Requires `json:"requires,omitempty"`
}

// Matches reports whether a placement at (siteType, bel) satisfies the location.
func (l *Location) Matches(siteType, bel string) bool {
	return slices.Contains(l.SiteTypes, siteType) && l.Bel.Matches(bel)
}

// BelKind selects how a BelPattern matches.
type BelKind string

const (
	BelAny  BelKind = "any"
	BelName BelKind = "name"
	BelSet  BelKind = "set"
)

// ValidBelKinds defines allowed BEL pattern kinds.
var ValidBelKinds = map[BelKind]bool{
	BelAny:  true,
	BelName: true,
	BelSet:  true,
}

// BelPattern matches BEL names within a site.
type BelPattern struct {
	Kind  BelKind  `json:"kind"`
	Name  string   `json:"name,omitempty"`
	Names []string `json:"names,omitempty"`
}

// AnyBel returns a pattern matching every BEL.
func AnyBel() BelPattern { return BelPattern{Kind: BelAny} }

// ExactBel returns a pattern matching one BEL name.
func ExactBel(name string) BelPattern { return BelPattern{Kind: BelName, Name: name} }

// BelSetOf returns a pattern matching any of names.
func BelSetOf(names ...string) BelPattern { return BelPattern{Kind: BelSet, Names: names} }

// Matches reports whether bel satisfies the pattern.
func (p BelPattern) Matches(bel string) bool {
	switch p.Kind {
	case BelAny:
		return true
	case BelName:
		return p.Name == bel
	case BelSet:
		return slices.Contains(p.Names, bel)
	default:
		return false
	}
}

// Implies asserts Tag=State when a cell of the rule is placed at a matching
// location. Port is only set for routed tags.
type Implies struct {
	Tag   string `json:"tag"`
	State string `json:"state"`
	Port  string `json:"port,omitempty"`
}

// Requires asserts that Tag must resolve to one of States.
type Requires struct {
	Tag    string   `json:"tag"`
	States []string `json:"states"`
	Port   string   `json:"port,omitempty"`
}
