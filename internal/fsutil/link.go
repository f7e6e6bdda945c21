package fsutil

import (
	"os"
	"path/filepath"
)

// IsLink reports whether path itself is a symlink.
func IsLink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// Exists reports whether anything (including a dangling link) is at path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsDir reports whether path is a directory or a link to one.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// LinkTarget returns the raw target of the symlink at path, made absolute
// relative to the link's directory.
func LinkTarget(path string) (string, bool) {
	dest, err := os.Readlink(path)
	if err != nil {
		return "", false
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(filepath.Dir(path), dest)
	}
	return filepath.Clean(dest), true
}

// Resolve returns the fully evaluated path, or the cleaned absolute input
// when it cannot be evaluated.
func Resolve(path string) string {
	if r, err := filepath.EvalSymlinks(path); err == nil {
		return r
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// SamePath reports whether a and b resolve to the same location.
func SamePath(a, b string) bool {
	return Resolve(a) == Resolve(b)
}

// PointsTo reports whether the symlink at link resolves to target.
func PointsTo(link, target string) bool {
	if !IsLink(link) {
		return false
	}
	return SamePath(link, target)
}

// Within reports whether path resolves to root or somewhere below it.
func Within(path, root string) bool {
	rel, err := filepath.Rel(Resolve(root), Resolve(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !startsWithParent(rel))
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}

// Remove deletes a link without following it, or a directory tree.
func Remove(path string) error {
	if IsLink(path) {
		return os.Remove(path)
	}
	return os.RemoveAll(path)
}
