package gitsource

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jywlabs/skillhub/internal/skillmd"
)

// Candidate is an installable skill folder found in a repository.
type Candidate struct {
	Subpath     string // "" for a skill at the repository root
	Name        string
	Description string
}

var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// Discover lists every folder under root that carries a SKILL.md. Skill
// folders other than root are not searched for nested skills. A manifest
// that cannot be parsed still yields a candidate named after its folder.
// fallbackName names a root-level skill whose manifest has no name.
func Discover(root, fallbackName string) ([]Candidate, error) {
	var found []Candidate
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && (skippedDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if _, err := os.Stat(filepath.Join(p, skillmd.FileName)); err != nil {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			rel = ""
		}

		m, _, _ := skillmd.Read(p)
		name := m.Name
		if name == "" {
			name = d.Name()
			if rel == "" && fallbackName != "" {
				name = fallbackName
			}
		}
		found = append(found, Candidate{Subpath: rel, Name: name, Description: m.Description})
		if rel == "" {
			return nil
		}
		return filepath.SkipDir
	})
	if err != nil {
		return nil, fmt.Errorf("discover skills: %w", err)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Subpath < found[j].Subpath })
	return found, nil
}
