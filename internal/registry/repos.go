package registry

import (
	"context"
	"fmt"
	"time"
)

// UpsertRepo records a git source as recently used. Bookmarks are unique by
// owner/name (case-insensitive); an existing one gets the new branch, URL
// and a fresh updated_at.
func (s *Store) UpsertRepo(ctx context.Context, r *RepoBookmark) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO repo_bookmarks (owner, name, branch, url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner, name) DO UPDATE SET
			branch = excluded.branch,
			url = excluded.url,
			updated_at = excluded.updated_at`,
		r.Owner, r.Name, r.Branch, r.URL, toMillis(now), toMillis(now))
	if err != nil {
		return fmt.Errorf("upsert repo %s: %w", r.FullName(), err)
	}
	r.UpdatedAt = now
	return nil
}

// ListRepos returns bookmarks, most recently used first.
func (s *Store) ListRepos(ctx context.Context) ([]*RepoBookmark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner, name, branch, url, created_at, updated_at
		FROM repo_bookmarks ORDER BY updated_at DESC, owner, name`)
	if err != nil {
		return nil, fmt.Errorf("list repos: %w", err)
	}
	defer rows.Close()

	var repos []*RepoBookmark
	for rows.Next() {
		var (
			r                RepoBookmark
			created, updated int64
		)
		if err := rows.Scan(&r.Owner, &r.Name, &r.Branch, &r.URL, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan repo: %w", err)
		}
		r.CreatedAt = fromMillis(created)
		r.UpdatedAt = fromMillis(updated)
		repos = append(repos, &r)
	}
	return repos, rows.Err()
}

// DeleteRepo removes a bookmark.
func (s *Store) DeleteRepo(ctx context.Context, owner, name string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM repo_bookmarks WHERE owner = ? AND name = ?`, owner, name)
	if err != nil {
		return fmt.Errorf("delete repo %s/%s: %w", owner, name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("repo %s/%s: %w", owner, name, ErrNotFound)
	}
	return nil
}
