package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// HashDir returns a sha256 over every non-ignored file's relative path and
// bytes, walked in lexical order. It hashes what CopyDir would produce: a
// link to a regular file counts as that file, other links by their target.
// Two trees hash equal iff their copies are byte-identical.
func HashDir(root string, ignore Ignore) (string, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", root, err)
	}

	h := sha256.New()
	err = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(resolved, path)
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
		if d.IsDir() {
			return nil
		}

		fmt.Fprintf(h, "%s\x00", filepath.ToSlash(rel))
		// Links to regular files are copied as files, so hash their bytes.
		if d.Type()&fs.ModeSymlink != 0 && !isFileLink(path) {
			dest, err := os.Readlink(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(h, "link:%s\x00", dest)
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(h, f); err != nil {
			return err
		}
		h.Write([]byte{0})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", root, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isFileLink(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// HasContent reports whether root holds at least one non-ignored regular file.
func HasContent(root string, ignore Ignore) (bool, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return false, err
	}
	found := false
	err = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(resolved, path)
		if rel != "." && ignore.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found, err
}
