package skills

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jywlabs/skillhub/internal/central"
	"github.com/jywlabs/skillhub/internal/config"
	"github.com/jywlabs/skillhub/internal/gitsource"
	"github.com/jywlabs/skillhub/internal/registry"
	"github.com/jywlabs/skillhub/internal/tools"
)

// fakeFetcher serves repositories from local trees keyed by clone URL.
type fakeFetcher struct {
	repos   map[string]string
	fetched []string
}

func (f *fakeFetcher) root(src gitsource.Source) (string, error) {
	dir, ok := f.repos[src.CloneURL+"#"+src.Branch]
	if !ok {
		dir, ok = f.repos[src.CloneURL]
	}
	if !ok {
		return "", &gitsource.Error{Kind: gitsource.KindNotFound, URL: src.URL, Err: os.ErrNotExist}
	}
	return dir, nil
}

func (f *fakeFetcher) ListCandidates(ctx context.Context, src gitsource.Source) ([]gitsource.Candidate, error) {
	root, err := f.root(src)
	if err != nil {
		return nil, err
	}
	base := filepath.Join(root, filepath.FromSlash(src.Subpath))
	cands, err := gitsource.Discover(base, src.Name)
	if err != nil {
		return nil, err
	}
	for i := range cands {
		cands[i].Subpath = strings.Trim(src.Subpath+"/"+cands[i].Subpath, "/")
	}
	return cands, nil
}

func (f *fakeFetcher) FetchSkill(ctx context.Context, src gitsource.Source, subpath string) (string, error) {
	root, err := f.root(src)
	if err != nil {
		return "", err
	}
	f.fetched = append(f.fetched, subpath)
	return filepath.Join(root, filepath.FromSlash(subpath)), nil
}

type harness struct {
	t       *testing.T
	ctx     context.Context
	home    string
	store   *registry.Store
	central *central.Store
	fetcher *fakeFetcher
	engine  *Engine
}

func newHarness(t *testing.T) *harness {
	return newHarnessMode(t, config.LinkAuto)
}

func newHarnessMode(t *testing.T, linkMode string) *harness {
	t.Helper()
	ctx := context.Background()

	store, err := registry.Open(ctx, filepath.Join(t.TempDir(), "registry.db"), nil)
	if err != nil {
		t.Fatalf("registry.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	home := t.TempDir()
	h := &harness{
		t:       t,
		ctx:     ctx,
		home:    home,
		store:   store,
		central: central.New(filepath.Join(t.TempDir(), "skills"), []string{".git/**", ".DS_Store"}, nil),
		fetcher: &fakeFetcher{repos: map[string]string{}},
	}
	h.engine = New(Options{
		Store:    store,
		Tools:    tools.NewRegistry(home, store),
		Central:  h.central,
		Fetcher:  h.fetcher,
		LinkMode: linkMode,
	})
	return h
}

// installTool marks a built-in tool as installed and returns its info.
func (h *harness) installTool(id string) tools.Info {
	h.t.Helper()
	info, err := h.engine.tools.Lookup(h.ctx, id)
	if err != nil {
		h.t.Fatalf("Lookup(%s) error = %v", id, err)
	}
	if err := os.MkdirAll(info.DetectPath, 0755); err != nil {
		h.t.Fatal(err)
	}
	info.Installed = true
	return info
}

// writeTree creates files under dir.
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

// localSkill creates a skill folder called name and returns its path.
func localSkill(t *testing.T, name, body string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	writeTree(t, dir, map[string]string{"SKILL.md": body})
	return dir
}

func (h *harness) mustInstall(name, body string) *InstallResult {
	h.t.Helper()
	res, err := h.engine.InstallLocalSkill(h.ctx, localSkill(h.t, name, body), false)
	if err != nil {
		h.t.Fatalf("InstallLocalSkill(%s) error = %v", name, err)
	}
	return res
}

func (h *harness) targets(skillID string) []*registry.SyncTarget {
	h.t.Helper()
	recs, err := h.store.ListTargets(h.ctx, skillID)
	if err != nil {
		h.t.Fatalf("ListTargets() error = %v", err)
	}
	return recs
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read %s: %v", p, err)
	}
	return string(data)
}
