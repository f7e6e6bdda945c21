package skills

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jywlabs/skillhub/internal/config"
	"github.com/jywlabs/skillhub/internal/fsutil"
	"github.com/jywlabs/skillhub/internal/registry"
	"github.com/jywlabs/skillhub/internal/tools"
	"go.uber.org/zap"
)

// materialize places centralPath at target, which must not exist. It links
// when the tool and linkMode allow it and copies otherwise, returning the
// mode actually used.
func (e *Engine) materialize(centralPath, target string, tool tools.Info) (registry.Mode, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}

	if e.linkAllowed(tool) {
		// Absolute target: tool directories live outside the central store.
		err := os.Symlink(centralPath, target)
		if err == nil {
			return registry.ModeLink, nil
		}
		if e.linkMode == config.LinkOnly {
			return "", fmt.Errorf("link %s: %w", target, err)
		}
		e.logger.Debug("symlink failed, copying instead",
			zap.String("tool", tool.ID), zap.String("target", target), zap.Error(err))
	}

	if err := fsutil.CopyDir(centralPath, target, e.central.Ignore()); err != nil {
		_ = fsutil.Remove(target)
		return "", fmt.Errorf("copy to %s: %w", target, err)
	}
	return registry.ModeCopy, nil
}

func (e *Engine) linkAllowed(tool tools.Info) bool {
	switch e.linkMode {
	case config.CopyOnly:
		return false
	case config.LinkOnly:
		return true
	}
	return tool.LinkSupported
}

// linksTo reports whether the symlink at p points at centralPath, even when
// centralPath no longer exists.
func linksTo(p, centralPath string) bool {
	if !fsutil.IsLink(p) {
		return false
	}
	if dest, ok := fsutil.LinkTarget(p); ok && filepath.Clean(dest) == filepath.Clean(centralPath) {
		return true
	}
	return fsutil.PointsTo(p, centralPath)
}

// intact reports whether rec's materialization is still in place.
func intact(rec *registry.SyncTarget, centralPath string) bool {
	switch rec.Mode {
	case registry.ModeLink:
		return fsutil.IsDir(rec.TargetPath) && linksTo(rec.TargetPath, centralPath)
	case registry.ModeCopy:
		return fsutil.IsDir(rec.TargetPath) && !fsutil.IsLink(rec.TargetPath)
	}
	return false
}

// owned reports whether the content at rec.TargetPath is ours to remove:
// a link to centralPath, or the directory we copied.
func owned(rec *registry.SyncTarget, centralPath string) bool {
	if linksTo(rec.TargetPath, centralPath) {
		return true
	}
	return rec.Mode == registry.ModeCopy && fsutil.IsDir(rec.TargetPath) && !fsutil.IsLink(rec.TargetPath)
}

// dematerialize removes rec's materialization if it is still ours. Content
// that was replaced by something else is left alone.
func (e *Engine) dematerialize(rec *registry.SyncTarget, centralPath string) error {
	if !fsutil.Exists(rec.TargetPath) {
		return nil
	}
	if !owned(rec, centralPath) {
		e.logger.Warn("leaving foreign content in place",
			zap.String("tool", rec.ToolID), zap.String("path", rec.TargetPath))
		return nil
	}
	if err := fsutil.Remove(rec.TargetPath); err != nil {
		return ioError(rec.TargetPath, err)
	}
	return nil
}
