package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/sitetag/internal/compiler"
	"github.com/roach88/sitetag/internal/ir"
)

// Model is an immutable, validated constraint spec with lookup tables keyed
// by cell type, site type and tile type.
type Model struct {
	spec     *ir.ConstraintSpec
	hash     string
	tags     map[string]*ir.TagDef
	routed   map[string]*ir.RoutedTagDef
	rules    map[string][]ir.CellConstraint // cell type → rules in declaration order
	siteTags map[string][]string            // site type → tag names in declaration order
	tileTags map[string][]string            // tile type → tag names in declaration order
}

// NewModel validates spec and builds its lookup tables.
// Returns *compiler.SpecError listing every problem when spec is invalid.
// The spec must not be modified afterwards.
func NewModel(spec *ir.ConstraintSpec) (*Model, error) {
	if spec == nil {
		return nil, fmt.Errorf("nil constraint spec")
	}
	if err := compiler.Check(spec); err != nil {
		return nil, err
	}

	hash, err := ir.SpecHash(spec)
	if err != nil {
		return nil, fmt.Errorf("hash constraint spec: %w", err)
	}

	m := &Model{
		spec:     spec,
		hash:     hash,
		tags:     make(map[string]*ir.TagDef, len(spec.Tags)),
		routed:   make(map[string]*ir.RoutedTagDef, len(spec.RoutedTags)),
		rules:    make(map[string][]ir.CellConstraint),
		siteTags: make(map[string][]string),
		tileTags: make(map[string][]string),
	}

	for i := range spec.Tags {
		tag := &spec.Tags[i]
		m.tags[tag.Name] = tag
		for _, st := range tag.SiteTypes {
			if !slices.Contains(m.siteTags[st], tag.Name) {
				m.siteTags[st] = append(m.siteTags[st], tag.Name)
			}
		}
		for _, tt := range tag.TileTypes {
			if !slices.Contains(m.tileTags[tt], tag.Name) {
				m.tileTags[tt] = append(m.tileTags[tt], tag.Name)
			}
		}
	}

	for i := range spec.RoutedTags {
		m.routed[spec.RoutedTags[i].Name] = &spec.RoutedTags[i]
	}

	for _, cc := range spec.CellConstraints {
		for _, cell := range cc.Cells {
			m.rules[cell] = append(m.rules[cell], cc)
		}
	}

	return m, nil
}

// Spec returns the underlying constraint spec. Callers must not modify it.
func (m *Model) Spec() *ir.ConstraintSpec { return m.spec }

// Hash returns the content hash of the spec.
func (m *Model) Hash() string { return m.hash }

// Tag looks up a plain tag by name.
func (m *Model) Tag(name string) (*ir.TagDef, bool) {
	t, ok := m.tags[name]
	return t, ok
}

// RoutedTag looks up a routed tag by name.
func (m *Model) RoutedTag(name string) (*ir.RoutedTagDef, bool) {
	t, ok := m.routed[name]
	return t, ok
}

// RulesForCell returns the rules listing cellType, in declaration order.
// A cell type without rules is unconstrained.
func (m *Model) RulesForCell(cellType string) []ir.CellConstraint {
	return m.rules[cellType]
}

// TagsForSiteType returns the site-scoped tags carried by siteType.
func (m *Model) TagsForSiteType(siteType string) []string {
	return m.siteTags[siteType]
}

// TagsForTileType returns the tile-scoped tags carried by tileType.
func (m *Model) TagsForTileType(tileType string) []string {
	return m.tileTags[tileType]
}

// TagsFor returns the tags carried by an instance of the given kind and type.
func (m *Model) TagsFor(kind ir.ScopeKind, instanceType string) []string {
	switch kind {
	case ir.ScopeSite:
		return m.siteTags[instanceType]
	case ir.ScopeTile:
		return m.tileTags[instanceType]
	default:
		return nil
	}
}

// TagInScope reports whether tag is carried by a site of siteType or a tile
// of tileType, according to the tag's scope kind.
func (m *Model) TagInScope(tag, siteType, tileType string) bool {
	t, ok := m.tags[tag]
	if !ok {
		return false
	}
	switch t.ScopeKind() {
	case ir.ScopeSite:
		return slices.Contains(t.SiteTypes, siteType)
	case ir.ScopeTile:
		return tileType != "" && slices.Contains(t.TileTypes, tileType)
	default:
		return false
	}
}
