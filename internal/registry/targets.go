package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const targetColumns = `skill_id, tool_id, mode, target_path, synced_at`

func scanTarget(row rowScanner) (*SyncTarget, error) {
	var (
		t      SyncTarget
		mode   string
		synced int64
	)
	if err := row.Scan(&t.SkillID, &t.ToolID, &mode, &t.TargetPath, &synced); err != nil {
		return nil, err
	}
	t.Mode = Mode(mode)
	t.SyncedAt = fromMillis(synced)
	return &t, nil
}

// UpsertTarget records (or replaces) the materialization of a skill in a tool.
func (s *Store) UpsertTarget(ctx context.Context, t *SyncTarget) error {
	if t.SyncedAt.IsZero() {
		t.SyncedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_targets (skill_id, tool_id, mode, target_path, synced_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (skill_id, tool_id) DO UPDATE SET
			mode = excluded.mode,
			target_path = excluded.target_path,
			synced_at = excluded.synced_at`,
		t.SkillID, t.ToolID, string(t.Mode), t.TargetPath, toMillis(t.SyncedAt))
	if err != nil {
		return fmt.Errorf("upsert target %s/%s: %w", t.SkillID, t.ToolID, err)
	}
	return nil
}

// GetTarget returns the sync target for a (skill, tool) pair.
func (s *Store) GetTarget(ctx context.Context, skillID, toolID string) (*SyncTarget, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+targetColumns+` FROM sync_targets WHERE skill_id = ? AND tool_id = ?`,
		skillID, toolID)
	t, err := scanTarget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("target %s/%s: %w", skillID, toolID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get target %s/%s: %w", skillID, toolID, err)
	}
	return t, nil
}

// ListTargets returns the sync targets of one skill ordered by tool id.
func (s *Store) ListTargets(ctx context.Context, skillID string) ([]*SyncTarget, error) {
	return s.queryTargets(ctx,
		`SELECT `+targetColumns+` FROM sync_targets WHERE skill_id = ? ORDER BY tool_id`, skillID)
}

// ListAllTargets returns every sync target.
func (s *Store) ListAllTargets(ctx context.Context) ([]*SyncTarget, error) {
	return s.queryTargets(ctx, `SELECT `+targetColumns+` FROM sync_targets ORDER BY skill_id, tool_id`)
}

func (s *Store) queryTargets(ctx context.Context, query string, args ...any) ([]*SyncTarget, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var targets []*SyncTarget
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// DeleteTarget removes a sync target record. Deleting a missing record is
// not an error.
func (s *Store) DeleteTarget(ctx context.Context, skillID, toolID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sync_targets WHERE skill_id = ? AND tool_id = ?`, skillID, toolID)
	if err != nil {
		return fmt.Errorf("delete target %s/%s: %w", skillID, toolID, err)
	}
	return nil
}
