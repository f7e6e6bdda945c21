package fsutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Ignore matches slash-separated paths relative to a skill root against
// doublestar patterns. A nil Ignore matches nothing.
type Ignore []string

// Match reports whether rel (relative, OS separators) is ignored.
func (ig Ignore) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, p := range ig {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		// "dir/**" also covers the directory itself
		if ok, _ := doublestar.Match(p, rel+"/"); ok {
			return true
		}
	}
	return false
}

// CopyDir recursively copies src into dst, which must not exist yet.
// Symlinks inside src are followed when they point at files and recreated
// as links otherwise. Ignored paths are skipped.
func CopyDir(src, dst string, ignore Ignore) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("copy %s: not a directory", src)
	}
	if err := os.MkdirAll(dst, info.Mode().Perm()|0o700); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	// WalkDir does not descend into symlinked directories, so resolve the root first.
	root, err := filepath.EvalSymlinks(src)
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if ignore.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			fi, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, fi.Mode().Perm()|0o700)
		case d.Type()&fs.ModeSymlink != 0:
			return copyLink(path, target)
		default:
			return copyFile(path, target)
		}
	})
}

// copyLink copies the file a symlink points at, or recreates the link when
// the target is a directory or dangling.
func copyLink(path, target string) error {
	if isFileLink(path) {
		return copyFile(path, target)
	}
	dest, err := os.Readlink(path)
	if err != nil {
		return fmt.Errorf("read link %s: %w", path, err)
	}
	return os.Symlink(dest, target)
}

// copyFile copies src to dst preserving permissions.
func copyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy data: %w", err)
	}

	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("close destination: %w", err)
	}
	return nil
}
