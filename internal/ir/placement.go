package ir

import (
	"fmt"
	"strings"
)

// Placement assigns one cell instance to one (site, BEL) pair.
// Tile and TileType are optional; they are only needed when the spec
// contains tile-scoped tags.
type Placement struct {
	Cell     string `json:"cell"`
	CellType string `json:"cell_type"`
	Site     string `json:"site"`
	SiteType string `json:"site_type"`
	BEL      string `json:"bel"`
	Tile     string `json:"tile,omitempty"`
	TileType string `json:"tile_type,omitempty"`
}

// PlacementKey identifies a placement: "cell@site/bel".
type PlacementKey string

// Key returns the placement's identity.
func (p Placement) Key() PlacementKey {
	return PlacementKey(fmt.Sprintf("%s@%s/%s", p.Cell, p.Site, p.BEL))
}

// SiteRef returns the addressable site the placement targets.
func (p Placement) SiteRef() SiteRef {
	return SiteRef{Site: p.Site, SiteType: p.SiteType, Tile: p.Tile, TileType: p.TileType}
}

func (p Placement) String() string {
	return fmt.Sprintf("%s (%s) at %s/%s", p.Cell, p.CellType, p.Site, p.BEL)
}

// SiteRef addresses a site instance on the device.
type SiteRef struct {
	Site     string `json:"site"`
	SiteType string `json:"site_type"`
	Tile     string `json:"tile,omitempty"`
	TileType string `json:"tile_type,omitempty"`
}

// InstanceKey is the stable key of a tag-carrying instance: a site for
// site-scoped tags or a tile for tile-scoped tags.
type InstanceKey struct {
	Kind ScopeKind `json:"kind"`
	Name string    `json:"name"`
}

// SiteKey returns the instance key of a site.
func SiteKey(site string) InstanceKey { return InstanceKey{Kind: ScopeSite, Name: site} }

// TileKey returns the instance key of a tile.
func TileKey(tile string) InstanceKey { return InstanceKey{Kind: ScopeTile, Name: tile} }

func (k InstanceKey) String() string {
	return string(k.Kind) + ":" + k.Name
}

// ParseInstanceKey parses "site:NAME" or "tile:NAME". A bare name is a site.
func ParseInstanceKey(s string) (InstanceKey, error) {
	kind, name, found := strings.Cut(s, ":")
	if !found {
		if s == "" {
			return InstanceKey{}, fmt.Errorf("empty instance key")
		}
		return SiteKey(s), nil
	}
	switch ScopeKind(kind) {
	case ScopeSite, ScopeTile:
	default:
		return InstanceKey{}, fmt.Errorf("invalid instance kind %q: must be site or tile", kind)
	}
	if name == "" {
		return InstanceKey{}, fmt.Errorf("instance key %q has empty name", s)
	}
	return InstanceKey{Kind: ScopeKind(kind), Name: name}, nil
}

// CompareInstanceKeys orders keys by kind, then name.
func CompareInstanceKeys(a, b InstanceKey) int {
	if c := strings.Compare(string(a.Kind), string(b.Kind)); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}
