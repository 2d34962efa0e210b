package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/mj1618/desktop-flow/internal/store"
)

// Store is a SQLite backed store.Store.
type Store struct {
	db *sql.DB
}

// Open connects to the database at dbPath and migrates it.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := Connect(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListFlows(ctx context.Context) ([]model.Flow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.name, s.record
		FROM flows f
		LEFT JOIN steps s ON s.flow_name = f.name
		ORDER BY f.name, s.position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	defer rows.Close()

	var (
		out   []model.Flow
		names []string
		recs  = map[string]model.FlowRecord{}
	)
	for rows.Next() {
		var name string
		var raw sql.NullString
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}
		if _, seen := recs[name]; !seen {
			names = append(names, name)
			recs[name] = model.FlowRecord{}
		}
		if !raw.Valid {
			continue
		}
		rec, err := decodeStep(name, raw.String)
		if err != nil {
			return nil, err
		}
		recs[name] = append(recs[name], rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	out = make([]model.Flow, 0, len(names))
	for _, name := range names {
		f, err := model.FlowFromRecord(name, recs[name])
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Store) SaveFlows(ctx context.Context, flows []model.Flow) error {
	for _, f := range flows {
		if err := store.ValidateFlow(f); err != nil {
			return err
		}
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM flows`); err != nil {
			return fmt.Errorf("failed to clear flows: %w", err)
		}
		for _, f := range flows {
			if err := putFlow(ctx, tx, f); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetFlow(ctx context.Context, name string) (model.Flow, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM flows WHERE name = ?`, name).Scan(&exists)
	if err == sql.ErrNoRows {
		return model.Flow{}, fmt.Errorf("flow %q: %w", name, store.ErrNotFound)
	}
	if err != nil {
		return model.Flow{}, fmt.Errorf("failed to get flow %q: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT record FROM steps WHERE flow_name = ? ORDER BY position`, name)
	if err != nil {
		return model.Flow{}, fmt.Errorf("failed to get steps for flow %q: %w", name, err)
	}
	defer rows.Close()

	rec := model.FlowRecord{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return model.Flow{}, fmt.Errorf("failed to scan step: %w", err)
		}
		step, err := decodeStep(name, raw)
		if err != nil {
			return model.Flow{}, err
		}
		rec = append(rec, step)
	}
	if err := rows.Err(); err != nil {
		return model.Flow{}, fmt.Errorf("failed to get steps for flow %q: %w", name, err)
	}
	return model.FlowFromRecord(name, rec)
}

func (s *Store) SaveFlow(ctx context.Context, flow model.Flow) error {
	if err := store.ValidateFlow(flow); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return putFlow(ctx, tx, flow)
	})
}

func (s *Store) DeleteFlow(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM flows WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete flow %q: %w", name, err)
	}
	return affected(res, "flow", name)
}

func (s *Store) ListWorkflows(ctx context.Context) ([]model.Workflow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.name, e.flow_name
		FROM workflows w
		LEFT JOIN workflow_entries e ON e.workflow_name = w.name
		ORDER BY w.name, e.position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	var out []model.Workflow
	for rows.Next() {
		var name string
		var flow sql.NullString
		if err := rows.Scan(&name, &flow); err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Name != name {
			out = append(out, model.Workflow{Name: name, Flows: []string{}})
		}
		if flow.Valid {
			last := &out[len(out)-1]
			last.Flows = append(last.Flows, flow.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	if out == nil {
		out = []model.Workflow{}
	}
	return out, nil
}

func (s *Store) SaveWorkflows(ctx context.Context, workflows []model.Workflow) error {
	for _, wf := range workflows {
		if err := store.ValidateWorkflow(wf); err != nil {
			return err
		}
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM workflows`); err != nil {
			return fmt.Errorf("failed to clear workflows: %w", err)
		}
		for _, wf := range workflows {
			if err := putWorkflow(ctx, tx, wf); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetWorkflow(ctx context.Context, name string) (model.Workflow, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM workflows WHERE name = ?`, name).Scan(&exists)
	if err == sql.ErrNoRows {
		return model.Workflow{}, fmt.Errorf("workflow %q: %w", name, store.ErrNotFound)
	}
	if err != nil {
		return model.Workflow{}, fmt.Errorf("failed to get workflow %q: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT flow_name FROM workflow_entries WHERE workflow_name = ? ORDER BY position`, name)
	if err != nil {
		return model.Workflow{}, fmt.Errorf("failed to get entries for workflow %q: %w", name, err)
	}
	defer rows.Close()

	wf := model.Workflow{Name: name, Flows: []string{}}
	for rows.Next() {
		var flow string
		if err := rows.Scan(&flow); err != nil {
			return model.Workflow{}, fmt.Errorf("failed to scan workflow entry: %w", err)
		}
		wf.Flows = append(wf.Flows, flow)
	}
	if err := rows.Err(); err != nil {
		return model.Workflow{}, fmt.Errorf("failed to get entries for workflow %q: %w", name, err)
	}
	return wf, nil
}

func (s *Store) SaveWorkflow(ctx context.Context, wf model.Workflow) error {
	if err := store.ValidateWorkflow(wf); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return putWorkflow(ctx, tx, wf)
	})
}

func (s *Store) DeleteWorkflow(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete workflow %q: %w", name, err)
	}
	return affected(res, "workflow", name)
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func putFlow(ctx context.Context, tx *sql.Tx, f model.Flow) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO flows (name) VALUES (?)
		ON CONFLICT(name) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`, f.Name); err != nil {
		return fmt.Errorf("failed to save flow %q: %w", f.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM steps WHERE flow_name = ?`, f.Name); err != nil {
		return fmt.Errorf("failed to clear steps for flow %q: %w", f.Name, err)
	}
	for i, rec := range model.FlowToRecord(f) {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode step %d of flow %q: %w", i+1, f.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO steps (flow_name, position, record) VALUES (?, ?, ?)`,
			f.Name, i, string(raw)); err != nil {
			return fmt.Errorf("failed to save step %d of flow %q: %w", i+1, f.Name, err)
		}
	}
	return nil
}

func putWorkflow(ctx context.Context, tx *sql.Tx, wf model.Workflow) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO workflows (name) VALUES (?)
		ON CONFLICT(name) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`, wf.Name); err != nil {
		return fmt.Errorf("failed to save workflow %q: %w", wf.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM workflow_entries WHERE workflow_name = ?`, wf.Name); err != nil {
		return fmt.Errorf("failed to clear entries for workflow %q: %w", wf.Name, err)
	}
	for i, flow := range wf.Flows {
		if _, err := tx.ExecContext(ctx, `INSERT INTO workflow_entries (workflow_name, position, flow_name) VALUES (?, ?, ?)`,
			wf.Name, i, flow); err != nil {
			return fmt.Errorf("failed to save entry %d of workflow %q: %w", i+1, wf.Name, err)
		}
	}
	return nil
}

func decodeStep(flow, raw string) (model.StepRecord, error) {
	var rec model.StepRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return rec, fmt.Errorf("flow %q: corrupt step record: %w", flow, err)
	}
	return rec, nil
}

func affected(res sql.Result, kind, name string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s %q: %w", kind, name, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, name, store.ErrNotFound)
	}
	return nil
}
