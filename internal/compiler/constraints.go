package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/sitetag/internal/ir"
)

// CompileConstraints parses a CUE value into a ConstraintSpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value is the package root, e.g.:
//
//	tag: HLUT_STATE: {
//		default:    "LUT"
//		site_types: ["SLICEM"]
//		states: {LUT: "plain LUT", RAM32: "32-deep RAM"}
//	}
//	cell_constraint: ramd32: {
//		cells: ["RAMD32"]
//		locations: [{
//			site_types: ["SLICEM"]
//			bels: ["H5LUT", "H6LUT"]
//			implies: [{tag: "HLUT_STATE", state: "RAM32"}]
//		}]
//	}
//
// Struct field order is significant: rules and locations are evaluated in
// declaration order.
func CompileConstraints(v cue.Value) (*ir.ConstraintSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ConstraintSpec{}

	if err := eachField(v, "tag", func(name string, tv cue.Value) error {
		tag, err := compileTag(name, tv)
		if err != nil {
			return err
		}
		spec.Tags = append(spec.Tags, tag)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := eachField(v, "routed_tag", func(name string, rv cue.Value) error {
		rt, err := compileRoutedTag(name, rv)
		if err != nil {
			return err
		}
		spec.RoutedTags = append(spec.RoutedTags, rt)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := eachField(v, "cell_constraint", func(label string, cv cue.Value) error {
		cc, err := compileCellConstraint(label, cv)
		if err != nil {
			return err
		}
		spec.CellConstraints = append(spec.CellConstraints, cc)
		return nil
	}); err != nil {
		return nil, err
	}

	if len(spec.Tags) == 0 && len(spec.CellConstraints) == 0 {
		return nil, &CompileError{
			Field:   "spec",
			Message: "no tags or cell constraints found",
			Pos:     v.Pos(),
		}
	}

	return spec, nil
}

// eachField calls fn for every field of the struct at path, in declaration order.
// A missing path is not an error.
func eachField(v cue.Value, path string, fn func(label string, fv cue.Value) error) error {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return nil
	}
	iter, err := sv.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Label(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

// compileTag parses one tag definition.
func compileTag(name string, v cue.Value) (ir.TagDef, error) {
	tag := ir.TagDef{Name: name}
	field := "tag." + name

	var err error
	if tag.Description, err = optionalString(v, "description"); err != nil {
		return tag, err
	}

	// Default is required. A missing default is reported with position here;
	// an empty one is left for Validate.
	defVal := v.LookupPath(cue.ParsePath("default"))
	if !defVal.Exists() {
		return tag, &CompileError{
			Field:   field + ".default",
			Message: "default is required",
			Pos:     v.Pos(),
		}
	}
	if tag.Default, err = defVal.String(); err != nil {
		return tag, formatCUEError(err)
	}

	if tag.SiteTypes, err = optionalStringList(v, "site_types"); err != nil {
		return tag, err
	}
	if tag.TileTypes, err = optionalStringList(v, "tile_types"); err != nil {
		return tag, err
	}

	statesVal := v.LookupPath(cue.ParsePath("states"))
	if !statesVal.Exists() {
		return tag, &CompileError{
			Field:   field + ".states",
			Message: "states are required",
			Pos:     v.Pos(),
		}
	}
	iter, err := statesVal.Fields()
	if err != nil {
		return tag, formatCUEError(err)
	}
	for iter.Next() {
		desc, err := iter.Value().String()
		if err != nil {
			return tag, formatCUEError(err)
		}
		tag.States = append(tag.States, ir.StateDef{
			Name:        iter.Label(),
			Description: desc,
		})
	}

	return tag, nil
}

// compileRoutedTag parses one routed tag definition.
func compileRoutedTag(name string, v cue.Value) (ir.RoutedTagDef, error) {
	rt := ir.RoutedTagDef{Name: name}

	var err error
	if rt.RoutingBel, err = optionalString(v, "routing_bel"); err != nil {
		return rt, err
	}

	pinsVal := v.LookupPath(cue.ParsePath("bel_pins"))
	if !pinsVal.Exists() {
		return rt, nil
	}
	iter, err := pinsVal.List()
	if err != nil {
		return rt, formatCUEError(err)
	}
	for iter.Next() {
		pin, err := requiredString(iter.Value(), "pin", "routed_tag."+name+".bel_pins")
		if err != nil {
			return rt, err
		}
		tag, err := requiredString(iter.Value(), "tag", "routed_tag."+name+".bel_pins")
		if err != nil {
			return rt, err
		}
		rt.BelPins = append(rt.BelPins, ir.BelPin{Pin: pin, Tag: tag})
	}

	return rt, nil
}

// compileCellConstraint parses one cell constraint rule.
// Both "cell" (single) and "cells" (list) are accepted.
func compileCellConstraint(label string, v cue.Value) (ir.CellConstraint, error) {
	cc := ir.CellConstraint{}
	field := "cell_constraint." + label

	cell, err := optionalString(v, "cell")
	if err != nil {
		return cc, err
	}
	if cell != "" {
		cc.Cells = append(cc.Cells, cell)
	}
	cells, err := optionalStringList(v, "cells")
	if err != nil {
		return cc, err
	}
	cc.Cells = append(cc.Cells, cells...)

	locsVal := v.LookupPath(cue.ParsePath("locations"))
	if !locsVal.Exists() {
		return cc, &CompileError{
			Field:   field + ".locations",
			Message: "locations are required",
			Pos:     v.Pos(),
		}
	}
	iter, err := locsVal.List()
	if err != nil {
		return cc, formatCUEError(err)
	}
	i := 0
	for iter.Next() {
		loc, err := compileLocation(fmt.Sprintf("%s.locations[%d]", field, i), iter.Value())
		if err != nil {
			return cc, err
		}
		cc.Locations = append(cc.Locations, loc)
		i++
	}

	return cc, nil
}

// compileLocation parses one location alternative.
// Exactly one of any_bel, bel, or bels must be present.
func compileLocation(field string, v cue.Value) (ir.Location, error) {
	loc := ir.Location{}

	var err error
	if loc.SiteTypes, err = optionalStringList(v, "site_types"); err != nil {
		return loc, err
	}

	loc.Bel, err = compileBelPattern(field, v)
	if err != nil {
		return loc, err
	}

	impliesVal := v.LookupPath(cue.ParsePath("implies"))
	if impliesVal.Exists() {
		iter, err := impliesVal.List()
		if err != nil {
			return loc, formatCUEError(err)
		}
		for iter.Next() {
			iv := iter.Value()
			tag, err := requiredString(iv, "tag", field+".implies")
			if err != nil {
				return loc, err
			}
			state, err := requiredString(iv, "state", field+".implies")
			if err != nil {
				return loc, err
			}
			port, err := optionalString(iv, "port")
			if err != nil {
				return loc, err
			}
			loc.Implies = append(loc.Implies, ir.Implies{Tag: tag, State: state, Port: port})
		}
	}

	requiresVal := v.LookupPath(cue.ParsePath("requires"))
	if requiresVal.Exists() {
		iter, err := requiresVal.List()
		if err != nil {
			return loc, formatCUEError(err)
		}
		for iter.Next() {
			rv := iter.Value()
			tag, err := requiredString(rv, "tag", field+".requires")
			if err != nil {
				return loc, err
			}
			states, err := optionalStringList(rv, "states")
			if err != nil {
				return loc, err
			}
			port, err := optionalString(rv, "port")
			if err != nil {
				return loc, err
			}
			loc.Requires = append(loc.Requires, ir.Requires{Tag: tag, States: states, Port: port})
		}
	}

	return loc, nil
}

func compileBelPattern(field string, v cue.Value) (ir.BelPattern, error) {
	anyVal := v.LookupPath(cue.ParsePath("any_bel"))
	belVal := v.LookupPath(cue.ParsePath("bel"))
	belsVal := v.LookupPath(cue.ParsePath("bels"))

	count := 0
	for _, fv := range []cue.Value{anyVal, belVal, belsVal} {
		if fv.Exists() {
			count++
		}
	}
	if count != 1 {
		return ir.BelPattern{}, &CompileError{
			Field:   field + ".bel",
			Message: "exactly one of any_bel, bel, or bels is required",
			Pos:     v.Pos(),
		}
	}

	switch {
	case anyVal.Exists():
		b, err := anyVal.Bool()
		if err != nil {
			return ir.BelPattern{}, formatCUEError(err)
		}
		if !b {
			return ir.BelPattern{}, &CompileError{
				Field:   field + ".any_bel",
				Message: "any_bel must be true when present",
				Pos:     anyVal.Pos(),
			}
		}
		return ir.AnyBel(), nil
	case belVal.Exists():
		name, err := belVal.String()
		if err != nil {
			return ir.BelPattern{}, formatCUEError(err)
		}
		return ir.ExactBel(name), nil
	default:
		names, err := stringList(belsVal)
		if err != nil {
			return ir.BelPattern{}, err
		}
		return ir.BelSetOf(names...), nil
	}
}

func requiredString(v cue.Value, path, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field + "." + path,
			Message: path + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalStringList(v cue.Value, path string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return nil, nil
	}
	return stringList(fv)
}

func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
