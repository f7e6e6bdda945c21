package skills

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jywlabs/skillhub/internal/fsutil"
	"github.com/jywlabs/skillhub/internal/registry"
	"github.com/jywlabs/skillhub/internal/tools"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// scanConcurrency bounds how many tool directories are read at once.
const scanConcurrency = 4

// Variant is one on-disk copy of a skill inside a tool directory.
type Variant struct {
	Tool             string
	ToolLabel        string
	Path             string
	IsLink           bool
	LinkTarget       string
	ContentHash      string
	ConflictingTools []string
}

// Group collects the variants that share a skill name.
type Group struct {
	Name            string
	ExistingSkillID string // set when a registered skill has this name
	Variants        []Variant
}

// HasConflict reports whether any variant differs from another.
func (g Group) HasConflict() bool {
	for _, v := range g.Variants {
		if len(v.ConflictingTools) > 0 {
			return true
		}
	}
	return false
}

// OnboardingPlan summarizes skills found in tool directories that the
// registry does not track yet.
type OnboardingPlan struct {
	TotalToolsScanned int
	TotalSkillsFound  int
	Groups            []Group
}

// GetOnboardingPlan scans every installed tool's skills directory. It reads
// only; nothing is written to disk or to the registry. Entries starting with
// a dot, links into the Central Store and recorded materializations are
// skipped.
func (e *Engine) GetOnboardingPlan(ctx context.Context) (*OnboardingPlan, error) {
	all, err := e.tools.Tools(ctx)
	if err != nil {
		return nil, err
	}
	var installed []tools.Info
	for _, t := range all {
		if t.Installed {
			installed = append(installed, t)
		}
	}

	recs, err := e.store.ListAllTargets(ctx)
	if err != nil {
		return nil, err
	}
	tracked := make(map[string]bool, len(recs))
	for _, r := range recs {
		tracked[filepath.Clean(r.TargetPath)] = true
	}

	skills, err := e.store.ListSkills(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]string, len(skills))
	for _, sk := range skills {
		known[registry.NameKey(sk.Name)] = sk.ID
	}

	found := make([][]Variant, len(installed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for i, tool := range installed {
		g.Go(func() error {
			vs, err := e.scanTool(gctx, tool, tracked)
			if err != nil {
				return fmt.Errorf("scan %s: %w", tool.ID, err)
			}
			found[i] = vs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plan := &OnboardingPlan{TotalToolsScanned: len(installed)}
	byName := make(map[string]*Group)
	var order []string
	for _, vs := range found {
		for _, v := range vs {
			plan.TotalSkillsFound++
			name := filepath.Base(v.Path)
			key := registry.NameKey(name)
			grp, ok := byName[key]
			if !ok {
				grp = &Group{Name: name, ExistingSkillID: known[key]}
				byName[key] = grp
				order = append(order, key)
			}
			grp.Variants = append(grp.Variants, v)
		}
	}

	for _, key := range order {
		grp := byName[key]
		markConflicts(grp.Variants)
		plan.Groups = append(plan.Groups, *grp)
	}
	sort.SliceStable(plan.Groups, func(i, j int) bool {
		return strings.ToLower(plan.Groups[i].Name) < strings.ToLower(plan.Groups[j].Name)
	})

	e.logger.Info("onboarding scan finished",
		zap.Int("tools", plan.TotalToolsScanned),
		zap.Int("skills", plan.TotalSkillsFound),
		zap.Int("groups", len(plan.Groups)))
	return plan, nil
}

// scanTool lists the untracked skill folders in one tool directory.
func (e *Engine) scanTool(ctx context.Context, tool tools.Info, tracked map[string]bool) ([]Variant, error) {
	entries, err := os.ReadDir(tool.SkillsRoot)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Variant
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		p := filepath.Join(tool.SkillsRoot, name)
		if !fsutil.IsDir(p) || tracked[p] || e.central.Contains(p) {
			continue
		}

		v := Variant{Tool: tool.ID, ToolLabel: tool.Label, Path: p, IsLink: fsutil.IsLink(p)}
		if v.IsLink {
			v.LinkTarget = fsutil.Resolve(p)
		}
		hash, err := fsutil.HashDir(p, e.central.Ignore())
		if err != nil {
			e.logger.Warn("cannot hash skill folder", zap.String("path", p), zap.Error(err))
		}
		v.ContentHash = hash
		out = append(out, v)
	}
	return out, nil
}

// markConflicts fills ConflictingTools: two variants conflict unless they
// resolve to the same folder or hash equal.
func markConflicts(vs []Variant) {
	resolved := make([]string, len(vs))
	for i, v := range vs {
		resolved[i] = fsutil.Resolve(v.Path)
	}
	for i := range vs {
		for j := range vs {
			if i == j || vs[i].Tool == vs[j].Tool {
				continue
			}
			if resolved[i] == resolved[j] {
				continue
			}
			if vs[i].ContentHash != "" && vs[i].ContentHash == vs[j].ContentHash {
				continue
			}
			vs[i].ConflictingTools = append(vs[i].ConflictingTools, vs[j].Tool)
		}
	}
}
