package engine

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/sitetag/internal/ir"
)

// Evaluator tracks applied placements and keeps every occupied instance
// resolved.
//
// Apply and Undo re-resolve only the instances the placement sits in, so
// their cost is proportional to the contributions at those instances, not
// to the netlist.
//
// Thread-safety: none. Use one Evaluator per search worker; the Model may
// be shared.
type Evaluator struct {
	model  *Model
	policy MatchPolicy
	logger *slog.Logger

	applied   map[ir.PlacementKey]ir.Placement
	cells     map[string]ir.PlacementKey
	instances map[ir.InstanceKey]*instanceState
}

// instanceState is the mutable record of one occupied instance.
type instanceState struct {
	typ        string
	placements []ir.PlacementKey // occupying placements, apply order
	contribs   []ir.Contribution // apply order
	resolution ir.Resolution
}

// NewEvaluator creates an empty evaluator over m.
// Options: WithMatchPolicy, WithLogger.
func NewEvaluator(m *Model, opts ...Option) *Evaluator {
	cfg := newConfig(opts)
	logger := cfg.logger
	if logger == nil {
		logger = discardLogger()
	}
	return &Evaluator{
		model:     m,
		policy:    cfg.policy,
		logger:    logger,
		applied:   make(map[ir.PlacementKey]ir.Placement),
		cells:     make(map[string]ir.PlacementKey),
		instances: make(map[ir.InstanceKey]*instanceState),
	}
}

// Apply adds p's contributions and re-resolves the instances p sits in.
// Returns a *UsageError with ErrCodeAlreadyApplied if p or another
// placement of p's cell is applied, and with ErrCodeTypeMismatch if p names
// an occupied site or tile with a different type. The evaluator is
// unchanged on error.
func (e *Evaluator) Apply(p ir.Placement) error {
	key := p.Key()
	if _, ok := e.applied[key]; ok {
		return NewAlreadyAppliedError(key)
	}
	if other, ok := e.cells[p.Cell]; ok {
		return NewCellPlacedError(ErrCodeAlreadyApplied, key, other)
	}
	touched := occupiedBy(p)
	for _, o := range touched {
		if inst, ok := e.instances[o.key]; ok && inst.typ != o.typ {
			return NewTypeMismatchError(key, o.key, inst.typ, o.typ)
		}
	}
	e.applied[key] = p
	e.cells[p.Cell] = key

	for _, o := range touched {
		inst, ok := e.instances[o.key]
		if !ok {
			inst = &instanceState{typ: o.typ}
			e.instances[o.key] = inst
		}
		inst.placements = append(inst.placements, key)
	}

	for _, c := range extract(e.model, p, e.policy, e.logger) {
		inst := e.instances[c.Instance]
		inst.contribs = append(inst.contribs, c)
	}

	for _, o := range touched {
		e.resolve(o.key)
	}

	e.logger.Debug("placement applied",
		"placement", key,
		"site", p.Site,
		"valid", e.IsValid(p.SiteRef()))
	return nil
}

// Undo removes exactly the contributions p introduced and re-resolves the
// instances p sat in. An instance left with no placements is dropped, so
// Apply followed by Undo restores the prior state.
// Returns a *UsageError with ErrCodeNotApplied if p is not applied.
func (e *Evaluator) Undo(p ir.Placement) error {
	key := p.Key()
	applied, ok := e.applied[key]
	if !ok {
		return NewNotAppliedError(key)
	}
	delete(e.applied, key)
	delete(e.cells, applied.Cell)

	for _, o := range occupiedBy(applied) {
		inst := e.instances[o.key]
		if inst == nil {
			continue
		}
		inst.placements = slices.DeleteFunc(inst.placements, func(k ir.PlacementKey) bool {
			return k == key
		})
		if len(inst.placements) == 0 {
			delete(e.instances, o.key)
			continue
		}
		inst.contribs = slices.DeleteFunc(inst.contribs, func(c ir.Contribution) bool {
			return c.Placement == key
		})
		e.resolve(o.key)
	}

	e.logger.Debug("placement undone", "placement", key, "site", applied.Site)
	return nil
}

func (e *Evaluator) resolve(key ir.InstanceKey) {
	inst := e.instances[key]
	inst.resolution = Resolve(e.model, key, inst.typ, inst.contribs)
}

// Applied reports whether p is currently applied.
func (e *Evaluator) Applied(p ir.Placement) bool {
	_, ok := e.applied[p.Key()]
	return ok
}

// IsValid reports whether the site and, when named, its tile are free of
// conflicts and violations. Unoccupied instances are valid.
func (e *Evaluator) IsValid(site ir.SiteRef) bool {
	if !e.instanceValid(ir.SiteKey(site.Site)) {
		return false
	}
	if site.Tile != "" && !e.instanceValid(ir.TileKey(site.Tile)) {
		return false
	}
	return true
}

func (e *Evaluator) instanceValid(key ir.InstanceKey) bool {
	inst, ok := e.instances[key]
	return !ok || inst.resolution.Valid()
}

// Valid reports whether every occupied instance is valid.
func (e *Evaluator) Valid() bool {
	for _, inst := range e.instances {
		if !inst.resolution.Valid() {
			return false
		}
	}
	return true
}

// Resolution returns a copy of the resolution of an occupied instance.
func (e *Evaluator) Resolution(key ir.InstanceKey) (ir.Resolution, bool) {
	inst, ok := e.instances[key]
	if !ok {
		return ir.Resolution{}, false
	}
	res := inst.resolution
	res.States = maps.Clone(res.States)
	res.Conflicts = slices.Clone(res.Conflicts)
	res.Violations = slices.Clone(res.Violations)
	return res, true
}

// State returns the resolved state of tag at an occupied instance.
// Returns false when the instance is unoccupied, the tag is not carried by
// it, or the tag is in conflict.
func (e *Evaluator) State(key ir.InstanceKey, tag string) (string, bool) {
	inst, ok := e.instances[key]
	if !ok {
		return "", false
	}
	state, ok := inst.resolution.States[tag]
	return state, ok
}

// Contributions returns the active contributions at an instance in apply order.
func (e *Evaluator) Contributions(key ir.InstanceKey) []ir.Contribution {
	inst, ok := e.instances[key]
	if !ok || len(inst.contribs) == 0 {
		return nil
	}
	return slices.Clone(inst.contribs)
}

// Instances returns the occupied instances, sorted.
func (e *Evaluator) Instances() []ir.InstanceKey {
	keys := slices.Collect(maps.Keys(e.instances))
	slices.SortFunc(keys, ir.CompareInstanceKeys)
	return keys
}

// Diagnostics returns every conflict and violation in instance order,
// numbered from 1.
func (e *Evaluator) Diagnostics() []ir.Diagnostic {
	clock := NewClock()
	var out []ir.Diagnostic
	for _, key := range e.Instances() {
		out = appendDiagnostics(out, &e.instances[key].resolution, clock)
	}
	return out
}
