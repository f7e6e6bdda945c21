package skills

import (
	"context"
	"errors"
	"strings"

	"github.com/jywlabs/skillhub/internal/gitsource"
	"github.com/jywlabs/skillhub/internal/registry"
)

// AddSkillRepo bookmarks a repository for later selection.
func (e *Engine) AddSkillRepo(ctx context.Context, url, branch string) (*registry.RepoBookmark, error) {
	src, err := gitsource.ParseSource(url, branch)
	if err != nil {
		return nil, &ValidationError{Field: "url", Message: err.Error()}
	}
	if src.Local || src.Owner == "" || src.Name == "" {
		return nil, &ValidationError{Field: "url", Message: "must name an owner and a repository"}
	}
	b := &registry.RepoBookmark{Owner: src.Owner, Name: src.Name, Branch: src.Branch, URL: src.CloneURL}
	if err := e.store.UpsertRepo(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetSkillRepos returns bookmarks, most recently used first.
func (e *Engine) GetSkillRepos(ctx context.Context) ([]*registry.RepoBookmark, error) {
	return e.store.ListRepos(ctx)
}

// RemoveSkillRepo deletes the bookmark for owner/name.
func (e *Engine) RemoveSkillRepo(ctx context.Context, owner, name string) error {
	owner, name = strings.TrimSpace(owner), strings.TrimSpace(name)
	if owner == "" || name == "" {
		return &ValidationError{Field: "repo", Message: "owner and name are required"}
	}
	err := e.store.DeleteRepo(ctx, owner, name)
	if errors.Is(err, registry.ErrNotFound) {
		return &NotFoundError{Entity: "repo", ID: owner + "/" + name}
	}
	return err
}
