package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/sitetag/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Tag errors (E101-E109)
	ErrTagNoDefault       = "E101" // default is required
	ErrDefaultNotInStates = "E102" // default must be one of the states
	ErrTagNoStates        = "E103" // at least one state required
	ErrDuplicateState     = "E104" // duplicate state within a tag
	ErrDuplicateTag       = "E105" // duplicate tag or routed tag name
	ErrAmbiguousScope     = "E106" // both site types and tile types
	ErrTagNoScope         = "E107" // neither site types nor tile types

	// Cell constraint errors (E110-E119)
	ErrRuleNoCells       = "E110" // at least one cell type required
	ErrLocationNoSites   = "E111" // at least one site type required
	ErrInvalidBelPattern = "E112" // bel pattern missing or ambiguous
	ErrUndefinedTag      = "E113" // implies/requires references unknown tag
	ErrUndefinedState    = "E114" // implies/requires references unknown state
	ErrEmptyRequires     = "E115" // requires with no states
	ErrPortMisuse        = "E116" // port on a plain tag, or missing on a routed tag
	ErrUnknownPinTag     = "E117" // routed tag bel pin references unknown tag
	ErrRoutedCycle       = "E118" // routed tag reference cycle
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// SpecError is returned when a constraint spec fails validation.
// It lists every problem found, not just the first.
type SpecError struct {
	Errors []ValidationError
}

func (e *SpecError) Error() string {
	if len(e.Errors) == 1 {
		return "invalid constraint spec: " + e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("invalid constraint spec (%d errors):\n  %s", len(e.Errors), strings.Join(msgs, "\n  "))
}

// IsSpecError reports whether err is (or wraps) a *SpecError.
func IsSpecError(err error) bool {
	var se *SpecError
	return errors.As(err, &se)
}

// Check validates spec and returns a *SpecError when anything is wrong.
func Check(spec *ir.ConstraintSpec) error {
	if errs := Validate(spec); len(errs) > 0 {
		return &SpecError{Errors: errs}
	}
	return nil
}

// Validate validates a constraint spec against schema rules.
// Returns all errors found (does not fail-fast).
func Validate(spec *ir.ConstraintSpec) []ValidationError {
	var errs []ValidationError

	tags := make(map[string]*ir.TagDef, len(spec.Tags))
	routed := make(map[string]*ir.RoutedTagDef, len(spec.RoutedTags))

	for i := range spec.Tags {
		tag := &spec.Tags[i]
		errs = append(errs, validateTag(i, tag)...)

		// E105: duplicate tag name
		if _, dup := tags[tag.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("tags[%d].name", i),
				Message: fmt.Sprintf("duplicate tag name: %q", tag.Name),
				Code:    ErrDuplicateTag,
			})
			continue
		}
		tags[tag.Name] = tag
	}

	for i := range spec.RoutedTags {
		rt := &spec.RoutedTags[i]
		_, dupTag := tags[rt.Name]
		_, dupRouted := routed[rt.Name]
		if dupTag || dupRouted {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("routed_tags[%d].name", i),
				Message: fmt.Sprintf("duplicate tag name: %q", rt.Name),
				Code:    ErrDuplicateTag,
			})
			continue
		}
		routed[rt.Name] = rt
	}

	// E117: bel pins must reference known tags
	for i, rt := range spec.RoutedTags {
		for j, pin := range rt.BelPins {
			_, isTag := tags[pin.Tag]
			_, isRouted := routed[pin.Tag]
			if !isTag && !isRouted {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("routed_tags[%d].bel_pins[%d].tag", i, j),
					Message: fmt.Sprintf("bel pin %q references unknown tag %q", pin.Pin, pin.Tag),
					Code:    ErrUnknownPinTag,
				})
			}
		}
	}

	// E118: routed tag references must not form a cycle
	for _, c := range AnalyzeRoutedCycles(spec.RoutedTags) {
		errs = append(errs, ValidationError{
			Field:   "routed_tags." + c.Path[0],
			Message: c.Message,
			Code:    ErrRoutedCycle,
		})
	}

	for i, cc := range spec.CellConstraints {
		errs = append(errs, validateCellConstraint(i, &cc, tags, routed)...)
	}

	return errs
}

func validateTag(i int, tag *ir.TagDef) []ValidationError {
	var errs []ValidationError
	field := fmt.Sprintf("tags[%d]", i)

	// E103: at least one state
	if len(tag.States) == 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".states",
			Message: fmt.Sprintf("tag %q must have at least one state", tag.Name),
			Code:    ErrTagNoStates,
		})
	}

	// E104: duplicate state
	seen := make(map[string]bool, len(tag.States))
	for j, s := range tag.States {
		if seen[s.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.states[%d]", field, j),
				Message: fmt.Sprintf("duplicate state %q in tag %q", s.Name, tag.Name),
				Code:    ErrDuplicateState,
			})
		}
		seen[s.Name] = true
	}

	// E101/E102: default present and a member of states
	switch {
	case strings.TrimSpace(tag.Default) == "":
		errs = append(errs, ValidationError{
			Field:   field + ".default",
			Message: fmt.Sprintf("tag %q must have a default state", tag.Name),
			Code:    ErrTagNoDefault,
		})
	case len(tag.States) > 0 && !tag.HasState(tag.Default):
		errs = append(errs, ValidationError{
			Field:   field + ".default",
			Message: fmt.Sprintf("default %q is not a state of tag %q", tag.Default, tag.Name),
			Code:    ErrDefaultNotInStates,
		})
	}

	// E106/E107: exactly one scope kind
	switch {
	case len(tag.SiteTypes) > 0 && len(tag.TileTypes) > 0:
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("tag %q declares both site types and tile types", tag.Name),
			Code:    ErrAmbiguousScope,
		})
	case len(tag.SiteTypes) == 0 && len(tag.TileTypes) == 0:
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("tag %q declares neither site types nor tile types", tag.Name),
			Code:    ErrTagNoScope,
		})
	}

	return errs
}

func validateCellConstraint(i int, cc *ir.CellConstraint, tags map[string]*ir.TagDef, routed map[string]*ir.RoutedTagDef) []ValidationError {
	var errs []ValidationError
	field := fmt.Sprintf("cell_constraints[%d]", i)

	// E110: at least one cell type
	if len(cc.Cells) == 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".cells",
			Message: "cell constraint must list at least one cell type",
			Code:    ErrRuleNoCells,
		})
	}

	for j, loc := range cc.Locations {
		lfield := fmt.Sprintf("%s.locations[%d]", field, j)

		// E111: at least one site type
		if len(loc.SiteTypes) == 0 {
			errs = append(errs, ValidationError{
				Field:   lfield + ".site_types",
				Message: "location must list at least one site type",
				Code:    ErrLocationNoSites,
			})
		}

		// E112: bel pattern well formed
		if msg := belPatternProblem(loc.Bel); msg != "" {
			errs = append(errs, ValidationError{
				Field:   lfield + ".bel",
				Message: msg,
				Code:    ErrInvalidBelPattern,
			})
		}

		for k, imp := range loc.Implies {
			f := fmt.Sprintf("%s.implies[%d]", lfield, k)
			errs = append(errs, validateRef(f, imp.Tag, imp.Port, []string{imp.State}, tags, routed)...)
		}

		for k, req := range loc.Requires {
			f := fmt.Sprintf("%s.requires[%d]", lfield, k)
			// E115: requires with no states
			if len(req.States) == 0 {
				errs = append(errs, ValidationError{
					Field:   f + ".states",
					Message: fmt.Sprintf("requires on tag %q lists no states", req.Tag),
					Code:    ErrEmptyRequires,
				})
			}
			errs = append(errs, validateRef(f, req.Tag, req.Port, req.States, tags, routed)...)
		}
	}

	return errs
}

// validateRef checks a tag reference from implies or requires.
// Plain tags take no port and states must belong to the tag. Routed tags need
// a port naming one of their bel pins, and states are checked against the tag
// selected by that pin when it is a plain tag.
func validateRef(field, tagName, port string, states []string, tags map[string]*ir.TagDef, routed map[string]*ir.RoutedTagDef) []ValidationError {
	var errs []ValidationError

	if tag, ok := tags[tagName]; ok {
		if port != "" {
			errs = append(errs, ValidationError{
				Field:   field + ".port",
				Message: fmt.Sprintf("port %q given for plain tag %q", port, tagName),
				Code:    ErrPortMisuse,
			})
		}
		return append(errs, undefinedStates(field, tag, states)...)
	}

	rt, ok := routed[tagName]
	if !ok {
		return []ValidationError{{
			Field:   field + ".tag",
			Message: fmt.Sprintf("undefined tag %q", tagName),
			Code:    ErrUndefinedTag,
		}}
	}

	if port == "" {
		return []ValidationError{{
			Field:   field + ".port",
			Message: fmt.Sprintf("routed tag %q requires a port", tagName),
			Code:    ErrPortMisuse,
		}}
	}

	for _, pin := range rt.BelPins {
		if pin.Pin != port {
			continue
		}
		if tag, ok := tags[pin.Tag]; ok {
			errs = append(errs, undefinedStates(field, tag, states)...)
		}
		return errs
	}

	return []ValidationError{{
		Field:   field + ".port",
		Message: fmt.Sprintf("routed tag %q has no bel pin %q", tagName, port),
		Code:    ErrPortMisuse,
	}}
}

// undefinedStates reports E114 for every state not defined on tag.
func undefinedStates(field string, tag *ir.TagDef, states []string) []ValidationError {
	var errs []ValidationError
	for _, s := range states {
		if !tag.HasState(s) {
			errs = append(errs, ValidationError{
				Field:   field + ".state",
				Message: fmt.Sprintf("undefined state %q for tag %q", s, tag.Name),
				Code:    ErrUndefinedState,
			})
		}
	}
	return errs
}

// belPatternProblem returns a description of what is wrong with p, or "".
func belPatternProblem(p ir.BelPattern) string {
	switch p.Kind {
	case ir.BelAny:
		if p.Name != "" || len(p.Names) > 0 {
			return "any_bel pattern must not name BELs"
		}
	case ir.BelName:
		if p.Name == "" {
			return "bel pattern requires a BEL name"
		}
		if len(p.Names) > 0 {
			return "bel pattern is ambiguous: both name and names set"
		}
	case ir.BelSet:
		if len(p.Names) == 0 {
			return "bels pattern requires at least one BEL name"
		}
		if p.Name != "" {
			return "bel pattern is ambiguous: both name and names set"
		}
	case "":
		return "location must specify any_bel, bel, or bels"
	default:
		return fmt.Sprintf("unknown bel pattern kind %q", p.Kind)
	}
	return ""
}
