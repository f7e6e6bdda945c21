// Package skills installs skills into the Central Store, materializes them
// inside tool directories and discovers skills already on disk.
package skills

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jywlabs/skillhub/internal/central"
	"github.com/jywlabs/skillhub/internal/config"
	"github.com/jywlabs/skillhub/internal/gitsource"
	"github.com/jywlabs/skillhub/internal/registry"
	"github.com/jywlabs/skillhub/internal/tools"
	"go.uber.org/zap"
)

// Options wires an Engine to its collaborators.
type Options struct {
	Store    *registry.Store
	Tools    *tools.Registry
	Central  *central.Store
	Fetcher  gitsource.Fetcher // nil disables git installs
	LinkMode string            // config.LinkAuto when empty
	Logger   *zap.Logger
}

// Engine is the skill installation and synchronization engine. Its methods
// are safe for concurrent use: work on one skill id is serialized, work on
// distinct ids may overlap.
type Engine struct {
	store    *registry.Store
	tools    *tools.Registry
	central  *central.Store
	fetcher  gitsource.Fetcher
	linkMode string
	logger   *zap.Logger

	locks   *keyedMutex
	orderMu sync.Mutex // sort_order writers
	now     func() time.Time
}

// New creates an Engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	linkMode := opts.LinkMode
	if linkMode == "" {
		linkMode = config.LinkAuto
	}
	return &Engine{
		store:    opts.Store,
		tools:    opts.Tools,
		central:  opts.Central,
		fetcher:  opts.Fetcher,
		linkMode: linkMode,
		logger:   logger,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// ListSkills returns every skill in sort order.
func (e *Engine) ListSkills(ctx context.Context) ([]*registry.Skill, error) {
	return e.store.ListSkills(ctx)
}

// GetSkill returns a skill by id.
func (e *Engine) GetSkill(ctx context.Context, id string) (*registry.Skill, error) {
	sk, err := e.store.GetSkill(ctx, id)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, &NotFoundError{Entity: "skill", ID: id}
	}
	return sk, err
}

// FindSkill resolves ref as a skill id, then as a name.
func (e *Engine) FindSkill(ctx context.Context, ref string) (*registry.Skill, error) {
	sk, err := e.store.GetSkill(ctx, ref)
	if err == nil {
		return sk, nil
	}
	if !errors.Is(err, registry.ErrNotFound) {
		return nil, err
	}
	sk, err = e.store.FindSkillByName(ctx, ref)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, &NotFoundError{Entity: "skill", ID: ref}
	}
	return sk, err
}

// ListTargets returns the materializations of one skill.
func (e *Engine) ListTargets(ctx context.Context, skillID string) ([]*registry.SyncTarget, error) {
	return e.store.ListTargets(ctx, skillID)
}

// Tools returns every known tool.
func (e *Engine) Tools(ctx context.Context) ([]tools.Info, error) {
	return e.tools.Tools(ctx)
}

// PreferredTools returns the saved default sync targets. ok is false when
// no preference was ever saved.
func (e *Engine) PreferredTools(ctx context.Context) (ids []string, ok bool, err error) {
	return e.store.PreferredTools(ctx)
}

// SetPreferredTools saves the default sync targets. Unknown tool ids are
// rejected; nil clears the preference.
func (e *Engine) SetPreferredTools(ctx context.Context, ids []string) error {
	if ids == nil {
		return e.store.ClearPreferredTools(ctx)
	}
	clean := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		if _, err := e.tools.Lookup(ctx, id); err != nil {
			if errors.Is(err, tools.ErrUnknownTool) {
				return &ValidationError{Field: "tools", Message: fmt.Sprintf("unknown tool %q", id)}
			}
			return err
		}
		seen[id] = true
		clean = append(clean, id)
	}
	return e.store.SetPreferredTools(ctx, clean)
}

// DefaultTargets returns the tools a new skill is synced to: the preferred
// tools that are installed, or every installed tool when no preference is
// saved.
func (e *Engine) DefaultTargets(ctx context.Context) ([]string, error) {
	all, err := e.tools.Tools(ctx)
	if err != nil {
		return nil, err
	}
	installed := make(map[string]bool, len(all))
	var ids []string
	for _, t := range all {
		if t.Installed {
			installed[t.ID] = true
			ids = append(ids, t.ID)
		}
	}

	prefs, ok, err := e.store.PreferredTools(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return ids, nil
	}
	out := make([]string, 0, len(prefs))
	for _, id := range prefs {
		if installed[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// SaveCustomTool validates and stores a user-defined tool.
func (e *Engine) SaveCustomTool(ctx context.Context, ct *registry.CustomTool) error {
	if err := tools.ValidateCustom(ct); err != nil {
		return &ValidationError{Field: "tool", Message: err.Error()}
	}
	return e.store.SaveCustomTool(ctx, ct)
}

// RemoveCustomTool deletes a user-defined tool. Existing materializations
// are left in place.
func (e *Engine) RemoveCustomTool(ctx context.Context, key string) error {
	err := e.store.DeleteCustomTool(ctx, key)
	if errors.Is(err, registry.ErrNotFound) {
		return &NotFoundError{Entity: "tool", ID: key}
	}
	return err
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// newSkillID derives a stable id from name, the creation time and a random
// suffix, so equal names never collide.
func newSkillID(name string, now time.Time) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		slug = "skill"
	}
	if len(slug) > 40 {
		slug = strings.TrimRight(slug[:40], "-")
	}
	return fmt.Sprintf("%s-%d-%s", slug, now.UnixMilli(), uuid.NewString()[:8])
}
