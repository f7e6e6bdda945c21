package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const keyPreferredTools = "preferred_tools"

// PreferredTools returns the persisted preferred tool ids. ok is false when
// no preference was ever saved, which callers treat as "all installed tools";
// an explicitly saved empty list returns ok == true.
func (s *Store) PreferredTools(ctx context.Context) (ids []string, ok bool, err error) {
	var raw string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, keyPreferredTools).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get preferred tools: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false, fmt.Errorf("decode preferred tools: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, true, nil
}

// SetPreferredTools persists the ordered preferred tool ids.
func (s *Store) SetPreferredTools(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode preferred tools: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		keyPreferredTools, string(data))
	if err != nil {
		return fmt.Errorf("set preferred tools: %w", err)
	}
	return nil
}

// ClearPreferredTools removes the preference so defaults apply again.
func (s *Store) ClearPreferredTools(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, keyPreferredTools); err != nil {
		return fmt.Errorf("clear preferred tools: %w", err)
	}
	return nil
}

// ListCustomTools returns user-defined tools ordered by key.
func (s *Store) ListCustomTools(ctx context.Context) ([]*CustomTool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, label, skills_dir, detect_dir, created_at FROM custom_tools ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list custom tools: %w", err)
	}
	defer rows.Close()

	var out []*CustomTool
	for rows.Next() {
		var (
			t       CustomTool
			created int64
		)
		if err := rows.Scan(&t.Key, &t.Label, &t.SkillsDir, &t.DetectDir, &created); err != nil {
			return nil, fmt.Errorf("scan custom tool: %w", err)
		}
		t.CreatedAt = fromMillis(created)
		out = append(out, &t)
	}
	return out, rows.Err()
}

// SaveCustomTool inserts or replaces a custom tool.
func (s *Store) SaveCustomTool(ctx context.Context, t *CustomTool) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO custom_tools (key, label, skills_dir, detect_dir, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			label = excluded.label,
			skills_dir = excluded.skills_dir,
			detect_dir = excluded.detect_dir`,
		t.Key, t.Label, t.SkillsDir, t.DetectDir, toMillis(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("save custom tool %s: %w", t.Key, err)
	}
	return nil
}

// DeleteCustomTool removes a custom tool.
func (s *Store) DeleteCustomTool(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM custom_tools WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete custom tool %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("custom tool %s: %w", key, ErrNotFound)
	}
	return nil
}
