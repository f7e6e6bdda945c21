package skills

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jywlabs/skillhub/internal/fsutil"
	"github.com/jywlabs/skillhub/internal/registry"
	"github.com/jywlabs/skillhub/internal/tools"
	"go.uber.org/zap"
)

// SyncResult describes the materialization a sync left in place.
type SyncResult struct {
	ToolID     string
	Mode       registry.Mode
	TargetPath string
	Unchanged  bool // an intact materialization was already recorded
	Adopted    bool // existing content at the target was taken over
}

// SyncSkillToTool materializes a skill in a tool's skills directory as
// <skills root>/<skillName>. centralPath and skillName may be empty to use
// the skill's own.
//
// An intact, recorded materialization makes this a no-op. Unrecorded
// content at the target is taken over when it is a link to centralPath or
// byte-identical to it; anything else fails with a TargetExists conflict
// unless overwrite is set.
func (e *Engine) SyncSkillToTool(ctx context.Context, centralPath, skillID, toolID, skillName string, overwrite bool) (*SyncResult, error) {
	if skillID == "" {
		return nil, &ValidationError{Field: "skillId", Message: "must not be empty"}
	}
	if toolID == "" {
		return nil, &ValidationError{Field: "toolId", Message: "must not be empty"}
	}

	unlock := e.locks.Lock(skillKey(skillID))
	defer unlock()

	sk, err := e.GetSkill(ctx, skillID)
	if err != nil {
		return nil, err
	}
	if centralPath == "" {
		centralPath = sk.CentralPath
	} else if !fsutil.SamePath(centralPath, sk.CentralPath) {
		return nil, &ValidationError{Field: "centralPath", Message: fmt.Sprintf("%s does not belong to skill %s", centralPath, sk.ID)}
	}
	if skillName == "" {
		skillName = sk.Name
	}
	if strings.ContainsAny(skillName, `/\`) || strings.HasPrefix(skillName, ".") {
		return nil, &ValidationError{Field: "skillName", Message: fmt.Sprintf("%q cannot be a folder name", skillName)}
	}
	if !fsutil.IsDir(centralPath) {
		return nil, ioError(centralPath, errors.New("central copy is missing"))
	}

	tool, err := e.lookupTool(ctx, toolID)
	if err != nil {
		return nil, err
	}
	if !tool.Installed {
		return nil, &SourceError{Kind: SourceToolNotInstalled, Tool: tool.ID, Path: tool.DetectPath}
	}
	return e.syncLocked(ctx, sk, centralPath, skillName, tool, overwrite)
}

func (e *Engine) lookupTool(ctx context.Context, id string) (tools.Info, error) {
	tool, err := e.tools.Lookup(ctx, id)
	if errors.Is(err, tools.ErrUnknownTool) {
		return tools.Info{}, &NotFoundError{Entity: "tool", ID: id}
	}
	return tool, err
}

func (e *Engine) syncLocked(ctx context.Context, sk *registry.Skill, centralPath, skillName string, tool tools.Info, overwrite bool) (*SyncResult, error) {
	target := filepath.Join(tool.SkillsRoot, skillName)
	log := e.logger.With(zap.String("skill", sk.Name), zap.String("tool", tool.ID))

	rec, err := e.store.GetTarget(ctx, sk.ID, tool.ID)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		rec = nil
	case err != nil:
		return nil, err
	}

	if rec != nil {
		if rec.TargetPath == target && !overwrite && intact(rec, centralPath) {
			log.Debug("already synced", zap.String("target", target))
			return &SyncResult{ToolID: tool.ID, Mode: rec.Mode, TargetPath: target, Unchanged: true}, nil
		}
		if rec.TargetPath != target {
			if err := e.dematerialize(rec, centralPath); err != nil {
				return nil, err
			}
		}
	}

	adopted := false
	if fsutil.Exists(target) {
		switch {
		case rec != nil && rec.TargetPath == target:
			// Our own materialization, damaged or being refreshed.
		case linksTo(target, centralPath):
			log.Info("adopting existing link", zap.String("target", target))
			return e.record(ctx, sk.ID, tool.ID, registry.ModeLink, target, true)
		case e.sameContent(target, centralPath):
			log.Info("replacing identical copy", zap.String("target", target))
			adopted = true
		case !overwrite:
			return nil, &ConflictError{Kind: TargetExists, Path: target, Tool: tool.ID}
		}
		if err := fsutil.Remove(target); err != nil {
			return nil, ioError(target, err)
		}
	}

	mode, err := e.materialize(centralPath, target, tool)
	if err != nil {
		return nil, ioError(target, err)
	}
	log.Info("synced", zap.String("mode", string(mode)), zap.String("target", target))
	return e.record(ctx, sk.ID, tool.ID, mode, target, adopted)
}

func (e *Engine) record(ctx context.Context, skillID, toolID string, mode registry.Mode, target string, adopted bool) (*SyncResult, error) {
	rec := &registry.SyncTarget{
		SkillID:    skillID,
		ToolID:     toolID,
		Mode:       mode,
		TargetPath: target,
		SyncedAt:   e.now(),
	}
	if err := e.store.UpsertTarget(ctx, rec); err != nil {
		return nil, err
	}
	return &SyncResult{ToolID: toolID, Mode: mode, TargetPath: target, Adopted: adopted}, nil
}

func (e *Engine) sameContent(target, centralPath string) bool {
	if !fsutil.IsDir(target) {
		return false
	}
	a, err := fsutil.HashDir(target, e.central.Ignore())
	if err != nil {
		return false
	}
	b, err := fsutil.HashDir(centralPath, e.central.Ignore())
	return err == nil && a == b
}

// UnsyncSkillFromTool removes a skill's materialization from one tool and
// forgets it. A known skill and tool without a record is a no-op; an
// unknown skill or tool is a NotFoundError.
func (e *Engine) UnsyncSkillFromTool(ctx context.Context, skillID, toolID string) error {
	unlock := e.locks.Lock(skillKey(skillID))
	defer unlock()

	rec, err := e.store.GetTarget(ctx, skillID, toolID)
	if errors.Is(err, registry.ErrNotFound) {
		if _, err := e.GetSkill(ctx, skillID); err != nil {
			return err
		}
		if _, err := e.lookupTool(ctx, toolID); err != nil {
			return err
		}
		return nil
	}
	if err != nil {
		return err
	}

	centralPath := ""
	if sk, err := e.store.GetSkill(ctx, skillID); err == nil {
		centralPath = sk.CentralPath
	}
	if err := e.dematerialize(rec, centralPath); err != nil {
		return err
	}
	if err := e.store.DeleteTarget(ctx, skillID, toolID); err != nil {
		return err
	}
	e.logger.Info("unsynced", zap.String("skill", skillID), zap.String("tool", toolID))
	return nil
}

// SyncStatus is the outcome of one tool in a batch sync.
type SyncStatus string

const (
	StatusSynced   SyncStatus = "synced"
	StatusSkipped  SyncStatus = "skipped" // already synced
	StatusConflict SyncStatus = "conflict"
	StatusFailed   SyncStatus = "failed"
)

// SyncOutcome reports one tool of a batch sync.
type SyncOutcome struct {
	Tool   string
	Status SyncStatus
	Result *SyncResult
	Err    error
}

// SyncToTools syncs one skill to each tool in order. A failure on one tool
// neither stops nor undoes the others. Nil toolIDs means DefaultTargets.
func (e *Engine) SyncToTools(ctx context.Context, skillID string, toolIDs []string, overwrite bool) ([]SyncOutcome, error) {
	sk, err := e.GetSkill(ctx, skillID)
	if err != nil {
		return nil, err
	}
	if toolIDs == nil {
		if toolIDs, err = e.DefaultTargets(ctx); err != nil {
			return nil, err
		}
	}

	outcomes := make([]SyncOutcome, 0, len(toolIDs))
	for _, id := range toolIDs {
		res, err := e.SyncSkillToTool(ctx, sk.CentralPath, sk.ID, id, sk.Name, overwrite)
		out := SyncOutcome{Tool: id, Result: res, Err: err}
		switch {
		case err == nil && res.Unchanged:
			out.Status = StatusSkipped
		case err == nil:
			out.Status = StatusSynced
		case IsConflict(err, ""):
			out.Status = StatusConflict
		default:
			out.Status = StatusFailed
			e.logger.Warn("sync failed", zap.String("skill", sk.Name), zap.String("tool", id), zap.Error(err))
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// refreshCopies re-copies copy-mode materializations after the central copy
// changed. The caller holds the skill lock.
func (e *Engine) refreshCopies(ctx context.Context, sk *registry.Skill) {
	recs, err := e.store.ListTargets(ctx, sk.ID)
	if err != nil {
		e.logger.Warn("failed to list targets", zap.String("skill", sk.ID), zap.Error(err))
		return
	}
	for _, rec := range recs {
		if rec.Mode != registry.ModeCopy {
			continue
		}
		tool, err := e.lookupTool(ctx, rec.ToolID)
		if err == nil {
			_, err = e.syncLocked(ctx, sk, sk.CentralPath, filepath.Base(rec.TargetPath), tool, true)
		}
		if err != nil {
			e.logger.Warn("failed to refresh copy",
				zap.String("skill", sk.Name), zap.String("tool", rec.ToolID), zap.Error(err))
		}
	}
}

// ReorderSkills sets the display order. Skills missing from ids keep their
// relative order after the listed ones; unknown ids are ignored.
func (e *Engine) ReorderSkills(ctx context.Context, ids []string) error {
	e.orderMu.Lock()
	defer e.orderMu.Unlock()
	return e.store.ReorderSkills(ctx, ids)
}

// DeleteSkill unsyncs every target of a skill, deletes its row and removes
// its central copy.
func (e *Engine) DeleteSkill(ctx context.Context, id string) error {
	unlock := e.locks.Lock(skillKey(id))
	defer unlock()

	sk, err := e.GetSkill(ctx, id)
	if err != nil {
		return err
	}
	recs, err := e.store.ListTargets(ctx, id)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := e.dematerialize(rec, sk.CentralPath); err != nil {
			return err
		}
	}

	// The folder is moved aside first so a failed row delete can put it
	// back, and a failed removal leaves a folder Sweep collects.
	retired, err := e.central.Retire(sk.CentralPath)
	if err != nil {
		return ioError(sk.CentralPath, err)
	}

	e.orderMu.Lock()
	err = e.store.DeleteSkill(ctx, id)
	e.orderMu.Unlock()
	if err != nil {
		if rerr := e.central.Restore(retired, sk.CentralPath); rerr != nil {
			e.logger.Error("failed to restore central copy",
				zap.String("path", sk.CentralPath), zap.String("retired", retired), zap.Error(rerr))
		}
		if errors.Is(err, registry.ErrNotFound) {
			return &NotFoundError{Entity: "skill", ID: id}
		}
		return err
	}

	if retired != "" {
		if err := e.central.Remove(retired); err != nil {
			e.logger.Warn("failed to remove central copy", zap.String("path", retired), zap.Error(err))
		}
	}
	e.logger.Info("deleted skill", zap.String("id", id), zap.String("name", sk.Name), zap.Int("targets", len(recs)))
	return nil
}
