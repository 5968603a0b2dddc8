package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/sitetag/internal/ctxlog"
	"github.com/roach88/sitetag/internal/ir"
)

// bucket holds the contributions of one occupied instance.
type bucket struct {
	key      ir.InstanceKey
	typ      string
	contribs []ir.Contribution
}

// Check resolves a whole netlist.
//
// Contributions are extracted for every placement, bucketed by instance, and
// the buckets are resolved on a bounded worker pool (WithWorkers). Buckets
// share no mutable state. The report lists instances sorted by key and is
// identical for any worker count and any permutation of placements.
//
// A cell appearing twice returns a *UsageError with
// ErrCodeDuplicatePlacement; a site or tile named with two types returns
// ErrCodeTypeMismatch. Conflicts and violations never abort the check; they
// are returned in the report.
//
// The logger is taken from ctx (see ctxlog) unless WithLogger is given.
func Check(ctx context.Context, m *Model, placements []ir.Placement, opts ...Option) (*ir.Report, error) {
	cfg := newConfig(opts)
	logger := cfg.logger
	if logger == nil {
		logger = ctxlog.FromContext(ctx)
	}
	clock := cfg.clock
	if clock == nil {
		clock = NewClock()
	}

	buckets := make(map[ir.InstanceKey]*bucket)
	cells := make(map[string]ir.PlacementKey, len(placements))
	for _, p := range placements {
		key := p.Key()
		if other, ok := cells[p.Cell]; ok {
			if other == key {
				return nil, NewDuplicatePlacementError(key)
			}
			return nil, NewCellPlacedError(ErrCodeDuplicatePlacement, key, other)
		}
		cells[p.Cell] = key

		for _, o := range occupiedBy(p) {
			b, ok := buckets[o.key]
			if !ok {
				buckets[o.key] = &bucket{key: o.key, typ: o.typ}
				continue
			}
			if b.typ != o.typ {
				return nil, NewTypeMismatchError(key, o.key, b.typ, o.typ)
			}
		}
		for _, c := range extract(m, p, cfg.policy, logger) {
			b := buckets[c.Instance]
			b.contribs = append(b.contribs, c)
		}
	}

	keys := slices.Collect(maps.Keys(buckets))
	slices.SortFunc(keys, ir.CompareInstanceKeys)

	workers := min(cfg.workers, max(len(keys), 1))
	logger.Debug("check started",
		"placements", len(placements),
		"instances", len(keys),
		"workers", workers,
		"policy", cfg.policy.String())

	results := make([]ir.Resolution, len(keys))
	if err := resolveParallel(ctx, m, keys, buckets, results, workers); err != nil {
		return nil, err
	}

	placementHash, err := ir.PlacementHash(placements)
	if err != nil {
		return nil, fmt.Errorf("hash placements: %w", err)
	}

	report := &ir.Report{
		SpecHash:      m.Hash(),
		PlacementHash: placementHash,
		Placements:    len(placements),
		Valid:         true,
		Instances:     results,
	}
	for i := range results {
		if !results[i].Valid() {
			report.Valid = false
		}
		report.Diagnostics = appendDiagnostics(report.Diagnostics, &results[i], clock)
	}

	logger.Debug("check finished",
		"valid", report.Valid,
		"diagnostics", len(report.Diagnostics))
	return report, nil
}

// resolveParallel resolves buckets[keys[i]] into results[i] on n workers.
// Each worker writes only its own result slots.
func resolveParallel(ctx context.Context, m *Model, keys []ir.InstanceKey, buckets map[ir.InstanceKey]*bucket, results []ir.Resolution, n int) error {
	jobs := make(chan int)
	var wg sync.WaitGroup

	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				b := buckets[keys[i]]
				results[i] = Resolve(m, b.key, b.typ, b.contribs)
			}
		}()
	}

	var err error
feed:
	for i := range keys {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return fmt.Errorf("check cancelled: %w", err)
	}
	return nil
}
