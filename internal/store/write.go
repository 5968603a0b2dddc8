package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/sitetag/internal/ir"
)

// WriteRun records a check run with every instance state and diagnostic
// from report, in one transaction.
//
// The run's Seq is assigned here as one past the highest stored seq. Uses
// ON CONFLICT(id) DO NOTHING for idempotency: writing an ID that already
// exists changes nothing and returns the stored run.
func (s *Store) WriteRun(ctx context.Context, run ir.Run, report *ir.Report) (ir.Run, error) {
	if run.ID == "" {
		return ir.Run{}, fmt.Errorf("write run: empty run id")
	}
	if report == nil {
		return ir.Run{}, fmt.Errorf("write run %s: nil report", run.ID)
	}

	inserted, err := s.writeRunTx(ctx, &run, report)
	if err != nil {
		return ir.Run{}, fmt.Errorf("write run %s: %w", run.ID, err)
	}
	if !inserted {
		return s.ReadRun(ctx, run.ID)
	}
	return run, nil
}

func (s *Store) writeRunTx(ctx context.Context, run *ir.Run, report *ir.Report) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return false, fmt.Errorf("next seq: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, label, spec_hash, placement_hash, placement_count, instance_count,
		 valid, match_policy, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		seq,
		run.Label,
		run.SpecHash,
		run.PlacementHash,
		run.Placements,
		run.Instances,
		boolToInt(run.Valid),
		run.MatchPolicy,
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return false, fmt.Errorf("insert run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert run: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	run.Seq = seq

	if err := insertInstanceStates(ctx, tx, run.ID, report.Instances); err != nil {
		return false, err
	}
	if err := insertDiagnostics(ctx, tx, run.ID, report.Diagnostics); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func insertInstanceStates(ctx context.Context, tx *sql.Tx, runID string, instances []ir.Resolution) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO instance_states
		(run_id, instance_kind, instance, instance_type, states, valid)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare instance states: %w", err)
	}
	defer stmt.Close()

	for i := range instances {
		res := &instances[i]
		statesJSON, err := marshalStates(res.States)
		if err != nil {
			return fmt.Errorf("instance %s: %w", res.Instance, err)
		}
		if _, err := stmt.ExecContext(ctx,
			runID,
			string(res.Instance.Kind),
			res.Instance.Name,
			res.Type,
			statesJSON,
			boolToInt(res.Valid()),
		); err != nil {
			return fmt.Errorf("insert instance %s: %w", res.Instance, err)
		}
	}
	return nil
}

func insertDiagnostics(ctx context.Context, tx *sql.Tx, runID string, diags []ir.Diagnostic) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO diagnostics
		(run_id, seq, kind, instance_kind, instance, tag, states, resolved, placements)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare diagnostics: %w", err)
	}
	defer stmt.Close()

	for _, d := range diags {
		statesJSON, err := marshalStrings(d.States)
		if err != nil {
			return fmt.Errorf("diagnostic %d: %w", d.Seq, err)
		}
		placementsJSON, err := marshalPlacements(d.Placements)
		if err != nil {
			return fmt.Errorf("diagnostic %d: %w", d.Seq, err)
		}
		if _, err := stmt.ExecContext(ctx,
			runID,
			d.Seq,
			string(d.Kind),
			string(d.Instance.Kind),
			d.Instance.Name,
			d.Tag,
			statesJSON,
			d.Resolved,
			placementsJSON,
		); err != nil {
			return fmt.Errorf("insert diagnostic %d: %w", d.Seq, err)
		}
	}
	return nil
}
