package compiler

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sitetag/internal/ir"
)

// yamlSpec mirrors the device interchange "constraints" YAML layout.
type yamlSpec struct {
	Tags            []yamlTag            `yaml:"tags"`
	RoutedTags      []yamlRoutedTag      `yaml:"routedTags"`
	CellConstraints []yamlCellConstraint `yaml:"cellConstraints"`
}

type yamlTag struct {
	Tag         string      `yaml:"tag"`
	Description string      `yaml:"description"`
	Default     string      `yaml:"default"`
	States      []yamlState `yaml:"states"`
	SiteTypes   []string    `yaml:"siteTypes"`
	TileTypes   []string    `yaml:"tileTypes"`
}

type yamlState struct {
	State       string `yaml:"state"`
	Description string `yaml:"description"`
}

type yamlRoutedTag struct {
	RoutedTag  string       `yaml:"routedTag"`
	RoutingBel string       `yaml:"routingBel"`
	BelPins    []yamlBelPin `yaml:"belPins"`
}

type yamlBelPin struct {
	Pin string `yaml:"pin"`
	Tag string `yaml:"tag"`
}

type yamlCellConstraint struct {
	Cell      string         `yaml:"cell"`
	Cells     []string       `yaml:"cells"`
	Locations []yamlLocation `yaml:"locations"`
}

type yamlLocation struct {
	SiteTypes []string       `yaml:"siteTypes"`
	Bel       yaml.Node      `yaml:"bel"`
	Implies   []yamlImplies  `yaml:"implies"`
	Requires  []yamlRequires `yaml:"requires"`
}

type yamlRoutedRef struct {
	Tag  string `yaml:"tag"`
	Port string `yaml:"port"`
}

type yamlImplies struct {
	Tag       string         `yaml:"tag"`
	RoutedTag *yamlRoutedRef `yaml:"routedTag"`
	State     string         `yaml:"state"`
}

type yamlRequires struct {
	Tag       string         `yaml:"tag"`
	RoutedTag *yamlRoutedRef `yaml:"routedTag"`
	States    []string       `yaml:"states"`
}

// ParseYAML parses a constraint spec in the interchange YAML layout.
// Unknown fields are rejected so that typos surface as errors instead of
// silently dropped constraints.
func ParseYAML(data []byte) (*ir.ConstraintSpec, error) {
	var raw yamlSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	spec := &ir.ConstraintSpec{}

	for _, t := range raw.Tags {
		tag := ir.TagDef{
			Name:        t.Tag,
			Description: t.Description,
			Default:     t.Default,
			SiteTypes:   t.SiteTypes,
			TileTypes:   t.TileTypes,
		}
		for _, s := range t.States {
			tag.States = append(tag.States, ir.StateDef{Name: s.State, Description: s.Description})
		}
		spec.Tags = append(spec.Tags, tag)
	}

	for _, r := range raw.RoutedTags {
		rt := ir.RoutedTagDef{Name: r.RoutedTag, RoutingBel: r.RoutingBel}
		for _, p := range r.BelPins {
			rt.BelPins = append(rt.BelPins, ir.BelPin{Pin: p.Pin, Tag: p.Tag})
		}
		spec.RoutedTags = append(spec.RoutedTags, rt)
	}

	for i, c := range raw.CellConstraints {
		cc := ir.CellConstraint{}
		if c.Cell != "" {
			cc.Cells = append(cc.Cells, c.Cell)
		}
		cc.Cells = append(cc.Cells, c.Cells...)

		for j, l := range c.Locations {
			field := fmt.Sprintf("cellConstraints[%d].locations[%d]", i, j)
			bel, err := yamlBelPattern(field, &l.Bel)
			if err != nil {
				return nil, err
			}
			loc := ir.Location{SiteTypes: l.SiteTypes, Bel: bel}

			for _, imp := range l.Implies {
				tag, port := imp.Tag, ""
				if imp.RoutedTag != nil {
					tag, port = imp.RoutedTag.Tag, imp.RoutedTag.Port
				}
				loc.Implies = append(loc.Implies, ir.Implies{Tag: tag, State: imp.State, Port: port})
			}
			for _, req := range l.Requires {
				tag, port := req.Tag, ""
				if req.RoutedTag != nil {
					tag, port = req.RoutedTag.Tag, req.RoutedTag.Port
				}
				loc.Requires = append(loc.Requires, ir.Requires{Tag: tag, States: req.States, Port: port})
			}
			cc.Locations = append(cc.Locations, loc)
		}
		spec.CellConstraints = append(spec.CellConstraints, cc)
	}

	return spec, nil
}

// yamlBelPattern decodes the bel union: {anyBel: ~}, {name: X}, or {bels: [...]}.
func yamlBelPattern(field string, n *yaml.Node) (ir.BelPattern, error) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return ir.BelPattern{}, &CompileError{
			Field:   field + ".bel",
			Message: "bel must be a mapping with exactly one of anyBel, name, or bels",
		}
	}

	key, val := n.Content[0].Value, n.Content[1]
	switch key {
	case "anyBel":
		return ir.AnyBel(), nil
	case "name":
		if val.Kind != yaml.ScalarNode || val.Value == "" {
			return ir.BelPattern{}, &CompileError{
				Field:   field + ".bel.name",
				Message: fmt.Sprintf("line %d: name must be a non-empty string", val.Line),
			}
		}
		return ir.ExactBel(val.Value), nil
	case "bels":
		var names []string
		if err := val.Decode(&names); err != nil {
			return ir.BelPattern{}, &CompileError{
				Field:   field + ".bel.bels",
				Message: fmt.Sprintf("line %d: %v", val.Line, err),
			}
		}
		return ir.BelSetOf(names...), nil
	default:
		return ir.BelPattern{}, &CompileError{
			Field:   field + ".bel",
			Message: fmt.Sprintf("line %d: unknown bel kind %q", n.Content[0].Line, key),
		}
	}
}
