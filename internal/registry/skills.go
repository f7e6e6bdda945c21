package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const skillColumns = `id, name, description, source_type, source_ref, source_subpath,
	source_branch, central_path, content_hash, sort_order, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSkill(row rowScanner) (*Skill, error) {
	var (
		sk               Skill
		created, updated int64
		sourceType       string
	)
	err := row.Scan(&sk.ID, &sk.Name, &sk.Description, &sourceType, &sk.SourceRef,
		&sk.SourceSubpath, &sk.SourceBranch, &sk.CentralPath, &sk.ContentHash,
		&sk.SortOrder, &created, &updated)
	if err != nil {
		return nil, err
	}
	sk.SourceType = SourceType(sourceType)
	sk.CreatedAt = fromMillis(created)
	sk.UpdatedAt = fromMillis(updated)
	return &sk, nil
}

// NameKey is the uniqueness key for skill names. Names are compared
// case-insensitively so that two tools' folders on a case-insensitive
// filesystem never map to two registry rows.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CreateSkill inserts sk, assigning it the next sort_order (count of
// existing skills) and stamping its timestamps.
func (s *Store) CreateSkill(ctx context.Context, sk *Skill) error {
	now := time.Now()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM skills`).Scan(&count); err != nil {
			return fmt.Errorf("count skills: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO skills (id, name, name_key, description, source_type, source_ref,
				source_subpath, source_branch, central_path, content_hash, sort_order,
				created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sk.ID, sk.Name, NameKey(sk.Name), sk.Description, string(sk.SourceType),
			sk.SourceRef, sk.SourceSubpath, sk.SourceBranch, sk.CentralPath,
			sk.ContentHash, count, toMillis(now), toMillis(now))
		if err != nil {
			return fmt.Errorf("insert skill %s: %w", sk.Name, err)
		}
		sk.SortOrder = count
		return nil
	})
	if err != nil {
		return err
	}
	sk.CreatedAt = now
	sk.UpdatedAt = now
	s.logger.Debug("skill row created", zap.String("id", sk.ID), zap.Int("sort_order", sk.SortOrder))
	return nil
}

// UpdateSkill rewrites the mutable columns of an existing skill. ID,
// CentralPath, SortOrder and CreatedAt are left untouched.
func (s *Store) UpdateSkill(ctx context.Context, sk *Skill) error {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE skills SET name = ?, name_key = ?, description = ?, source_type = ?,
			source_ref = ?, source_subpath = ?, source_branch = ?, content_hash = ?,
			updated_at = ?
		WHERE id = ?`,
		sk.Name, NameKey(sk.Name), sk.Description, string(sk.SourceType), sk.SourceRef,
		sk.SourceSubpath, sk.SourceBranch, sk.ContentHash, toMillis(now), sk.ID)
	if err != nil {
		return fmt.Errorf("update skill %s: %w", sk.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update skill %s: %w", sk.ID, ErrNotFound)
	}
	sk.UpdatedAt = now
	return nil
}

// GetSkill returns a skill by id.
func (s *Store) GetSkill(ctx context.Context, id string) (*Skill, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+skillColumns+` FROM skills WHERE id = ?`, id)
	sk, err := scanSkill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("skill %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get skill %s: %w", id, err)
	}
	return sk, nil
}

// FindSkillByName returns the skill whose name matches case-insensitively.
func (s *Store) FindSkillByName(ctx context.Context, name string) (*Skill, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+skillColumns+` FROM skills WHERE name_key = ?`, NameKey(name))
	sk, err := scanSkill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("skill %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find skill %q: %w", name, err)
	}
	return sk, nil
}

// ListSkills returns all skills ordered by sort_order.
func (s *Store) ListSkills(ctx context.Context) ([]*Skill, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+skillColumns+` FROM skills ORDER BY sort_order, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	var skills []*Skill
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		skills = append(skills, sk)
	}
	return skills, rows.Err()
}

// DeleteSkill removes a skill and all its sync targets, then renumbers the
// remaining skills densely, in one transaction.
func (s *Store) DeleteSkill(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sync_targets WHERE skill_id = ?`, id); err != nil {
			return fmt.Errorf("delete targets of %s: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM skills WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete skill %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("skill %s: %w", id, ErrNotFound)
		}
		ids, err := orderedIDs(ctx, tx)
		if err != nil {
			return err
		}
		return renumber(ctx, tx, ids)
	})
}

// ReorderSkills assigns sort_order to match ids. Existing ids missing from
// the list keep their relative order and are appended after it; unknown
// and repeated ids are ignored.
func (s *Store) ReorderSkills(ctx context.Context, ids []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := orderedIDs(ctx, tx)
		if err != nil {
			return err
		}
		return renumber(ctx, tx, MergeOrder(current, ids))
	})
}

// MergeOrder returns requested (restricted to ids present in current,
// first occurrence wins) followed by the rest of current in order.
func MergeOrder(current, requested []string) []string {
	known := make(map[string]bool, len(current))
	for _, id := range current {
		known[id] = true
	}

	out := make([]string, 0, len(current))
	placed := make(map[string]bool, len(current))
	for _, id := range requested {
		if known[id] && !placed[id] {
			out = append(out, id)
			placed[id] = true
		}
	}
	for _, id := range current {
		if !placed[id] {
			out = append(out, id)
		}
	}
	return out
}

func orderedIDs(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM skills ORDER BY sort_order, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list skill ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan skill id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func renumber(ctx context.Context, tx *sql.Tx, ids []string) error {
	stmt, err := tx.PrepareContext(ctx, `UPDATE skills SET sort_order = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare renumber: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, i, id); err != nil {
			return fmt.Errorf("renumber %s: %w", id, err)
		}
	}
	return nil
}
