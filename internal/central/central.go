// Package central manages the Central Store: the directory that holds the
// canonical copy of every installed skill.
package central

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jywlabs/skillhub/internal/fsutil"
	"go.uber.org/zap"
)

// ErrInvalidName is returned for names that cannot be used as a folder name.
var ErrInvalidName = errors.New("invalid skill name")

const (
	tmpPrefix = ".tmp-"
	oldPrefix = ".old-"
)

// Store is the Central Store rooted at a single directory.
type Store struct {
	root   string
	ignore fsutil.Ignore
	logger *zap.Logger
}

// New returns a Store rooted at root. Paths matching ignore are never copied in.
func New(root string, ignore []string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{root: filepath.Clean(root), ignore: fsutil.Ignore(ignore), logger: logger}
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Ignore returns the patterns excluded from copies.
func (s *Store) Ignore() fsutil.Ignore {
	return s.ignore
}

// ValidateName checks that name can be used as a single folder name.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case name != strings.TrimSpace(name):
		return fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalidName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\:`) || strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}

// PathFor returns the folder a skill called name occupies.
func (s *Store) PathFor(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, name), nil
}

// Contains reports whether path resolves inside the store.
func (s *Store) Contains(path string) bool {
	return fsutil.Within(path, s.root) && !fsutil.SamePath(path, s.root)
}

// Install copies src into dest, replacing whatever dest held. The copy is
// staged next to dest and swapped in with renames, so readers see either
// the old or the new folder. It returns the content hash of the installed
// folder.
func (s *Store) Install(src, dest string) (string, error) {
	if filepath.Dir(filepath.Clean(dest)) != s.root {
		return "", fmt.Errorf("install %s: not a direct child of %s", dest, s.root)
	}
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return "", fmt.Errorf("create central store: %w", err)
	}

	tmp := filepath.Join(s.root, tmpPrefix+uuid.NewString())
	if err := fsutil.CopyDir(src, tmp, s.ignore); err != nil {
		_ = os.RemoveAll(tmp)
		return "", fmt.Errorf("copy into central store: %w", err)
	}
	hash, err := fsutil.HashDir(tmp, nil)
	if err != nil {
		_ = os.RemoveAll(tmp)
		return "", err
	}

	if err := s.swap(tmp, dest); err != nil {
		_ = os.RemoveAll(tmp)
		return "", err
	}
	s.logger.Debug("installed into central store", zap.String("path", dest), zap.String("hash", hash))
	return hash, nil
}

// swap moves tmp to dest, restoring the previous dest on failure.
func (s *Store) swap(tmp, dest string) error {
	if !fsutil.Exists(dest) {
		if err := os.Rename(tmp, dest); err != nil {
			return fmt.Errorf("move into place: %w", err)
		}
		return nil
	}

	old := filepath.Join(s.root, oldPrefix+uuid.NewString())
	if err := os.Rename(dest, old); err != nil {
		return fmt.Errorf("move previous version aside: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		if rerr := os.Rename(old, dest); rerr != nil {
			s.logger.Error("failed to restore previous version",
				zap.String("path", dest), zap.String("backup", old), zap.Error(rerr))
		}
		return fmt.Errorf("move into place: %w", err)
	}
	if err := fsutil.Remove(old); err != nil {
		s.logger.Warn("failed to remove previous version", zap.String("path", old), zap.Error(err))
	}
	return nil
}

// Remove deletes a skill folder. Paths outside the store are refused.
func (s *Store) Remove(path string) error {
	if !s.Contains(path) {
		return fmt.Errorf("remove %s: outside central store %s", path, s.root)
	}
	if err := fsutil.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Retire moves a skill folder aside under a name Sweep collects and returns
// its new path. A missing folder returns "".
func (s *Store) Retire(path string) (string, error) {
	if !s.Contains(path) {
		return "", fmt.Errorf("retire %s: outside central store %s", path, s.root)
	}
	if !fsutil.Exists(path) {
		return "", nil
	}
	old := filepath.Join(s.root, oldPrefix+uuid.NewString())
	if err := os.Rename(path, old); err != nil {
		return "", fmt.Errorf("retire %s: %w", path, err)
	}
	return old, nil
}

// Restore moves a folder returned by Retire back to path.
func (s *Store) Restore(retired, path string) error {
	if retired == "" {
		return nil
	}
	if err := os.Rename(retired, path); err != nil {
		return fmt.Errorf("restore %s: %w", path, err)
	}
	return nil
}

// Sweep removes staging folders left behind by an interrupted Install and
// folders retired by a delete that did not finish.
func (s *Store) Sweep() error {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read central store: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, tmpPrefix) && !strings.HasPrefix(name, oldPrefix) {
			continue
		}
		p := filepath.Join(s.root, name)
		s.logger.Info("removing leftover staging folder", zap.String("path", p))
		if err := fsutil.Remove(p); err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}
