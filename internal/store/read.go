package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/sitetag/internal/ir"
	"github.com/roach88/sitetag/internal/queryir"
	"github.com/roach88/sitetag/internal/querysql"
)

var (
	runColumns = []string{
		"id", "seq", "label", "spec_hash", "placement_hash", "placement_count",
		"instance_count", "valid", "match_policy", "engine_version", "ir_version",
	}
	instanceStateColumns = []string{
		"run_id", "instance_kind", "instance", "instance_type", "states", "valid",
	}
	diagnosticColumns = []string{
		"run_id", "seq", "kind", "instance_kind", "instance", "tag", "states", "resolved", "placements",
	}
)

// RunFilter selects recorded runs. The zero value matches every run.
type RunFilter struct {
	ID    string
	Label string
}

// Query builds the QueryIR for the filter.
func (f RunFilter) Query() queryir.Select {
	var preds []queryir.Predicate
	if f.ID != "" {
		preds = append(preds, queryir.Equals{Field: "id", Value: f.ID})
	}
	if f.Label != "" {
		preds = append(preds, queryir.Equals{Field: "label", Value: f.Label})
	}
	return queryir.Select{From: "runs", Filter: conjunction(preds), Columns: runColumns}
}

// DiagnosticFilter selects recorded diagnostics. Empty fields match all.
type DiagnosticFilter struct {
	RunID    string
	Kinds    []ir.DiagnosticKind
	Instance *ir.InstanceKey
	Tag      string
}

// Query builds the QueryIR for the filter.
func (f DiagnosticFilter) Query() queryir.Select {
	var preds []queryir.Predicate
	if f.RunID != "" {
		preds = append(preds, queryir.Equals{Field: "run_id", Value: f.RunID})
	}
	if len(f.Kinds) > 0 {
		kinds := make([]any, len(f.Kinds))
		for i, k := range f.Kinds {
			kinds[i] = string(k)
		}
		preds = append(preds, queryir.In{Field: "kind", Values: kinds})
	}
	if f.Instance != nil {
		preds = append(preds,
			queryir.Equals{Field: "instance_kind", Value: string(f.Instance.Kind)},
			queryir.Equals{Field: "instance", Value: f.Instance.Name},
		)
	}
	if f.Tag != "" {
		preds = append(preds, queryir.Equals{Field: "tag", Value: f.Tag})
	}
	return queryir.Select{From: "diagnostics", Filter: conjunction(preds), Columns: diagnosticColumns}
}

func conjunction(preds []queryir.Predicate) queryir.Predicate {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return queryir.And{Predicates: preds}
	}
}

// ReadRuns returns the runs matching f, ordered by seq.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadRuns(ctx context.Context, f RunFilter) ([]ir.Run, error) {
	runs := []ir.Run{}
	err := s.selectRows(ctx, f.Query(), func(rows *sql.Rows) error {
		var r ir.Run
		var valid int
		if err := rows.Scan(
			&r.ID, &r.Seq, &r.Label, &r.SpecHash, &r.PlacementHash, &r.Placements,
			&r.Instances, &valid, &r.MatchPolicy, &r.EngineVersion, &r.IRVersion,
		); err != nil {
			return fmt.Errorf("scan run: %w", err)
		}
		r.Valid = valid != 0
		runs = append(runs, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns one run by ID, or an error wrapping ErrRunNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	runs, err := s.ReadRuns(ctx, RunFilter{ID: id})
	if err != nil {
		return ir.Run{}, err
	}
	if len(runs) == 0 {
		return ir.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return runs[0], nil
}

// LatestRun returns the run with the highest seq, or ErrRunNotFound when
// the store is empty.
func (s *Store) LatestRun(ctx context.Context) (ir.Run, error) {
	runs, err := s.ReadRuns(ctx, RunFilter{})
	if err != nil {
		return ir.Run{}, err
	}
	if len(runs) == 0 {
		return ir.Run{}, ErrRunNotFound
	}
	return runs[len(runs)-1], nil
}

// ReadInstanceStates returns the resolved states recorded by a run,
// ordered by instance kind then name.
func (s *Store) ReadInstanceStates(ctx context.Context, runID string) ([]ir.InstanceState, error) {
	q := queryir.Select{
		From:    "instance_states",
		Filter:  queryir.Equals{Field: "run_id", Value: runID},
		Columns: instanceStateColumns,
	}

	states := []ir.InstanceState{}
	err := s.selectRows(ctx, q, func(rows *sql.Rows) error {
		var st ir.InstanceState
		var kind, statesJSON string
		var valid int
		if err := rows.Scan(&st.RunID, &kind, &st.Instance.Name, &st.Type, &statesJSON, &valid); err != nil {
			return fmt.Errorf("scan instance state: %w", err)
		}
		st.Instance.Kind = ir.ScopeKind(kind)
		st.Valid = valid != 0
		m, err := unmarshalStates(statesJSON)
		if err != nil {
			return err
		}
		st.States = m
		states = append(states, st)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read instance states: %w", err)
	}
	return states, nil
}

// ReadDiagnostics returns the diagnostics matching f, ordered by run then
// diagnostic seq. Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadDiagnostics(ctx context.Context, f DiagnosticFilter) ([]ir.RunDiagnostic, error) {
	diags := []ir.RunDiagnostic{}
	err := s.selectRows(ctx, f.Query(), func(rows *sql.Rows) error {
		var d ir.RunDiagnostic
		var kind, instKind, statesJSON, placementsJSON string
		if err := rows.Scan(
			&d.RunID, &d.Seq, &kind, &instKind, &d.Instance.Name,
			&d.Tag, &statesJSON, &d.Resolved, &placementsJSON,
		); err != nil {
			return fmt.Errorf("scan diagnostic: %w", err)
		}
		d.Kind = ir.DiagnosticKind(kind)
		d.Instance.Kind = ir.ScopeKind(instKind)

		var err error
		if d.States, err = unmarshalStrings(statesJSON); err != nil {
			return err
		}
		if d.Placements, err = unmarshalPlacements(placementsJSON); err != nil {
			return err
		}
		diags = append(diags, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read diagnostics: %w", err)
	}
	return diags, nil
}

// selectRows compiles q and calls scan once per row.
func (s *Store) selectRows(ctx context.Context, q queryir.Select, scan func(*sql.Rows) error) error {
	query, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return fmt.Errorf("query %s: %w", q.From, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", q.From, err)
	}
	return nil
}
