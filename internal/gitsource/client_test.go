package gitsource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/jywlabs/skillhub/internal/config"
)

// createTestRepo creates a git repository holding files and commits them.
func createTestRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}

	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		t.Fatalf("Failed to stage: %v", err)
	}
	_, err = worktree.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	return dir
}

func testClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(config.GitConfig{Timeout: time.Minute, CacheTTL: time.Minute}, nil)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_ListCandidates(t *testing.T) {
	dir := createTestRepo(t, map[string]string{
		"README.md":                "# skills\n",
		"skills/pdf/SKILL.md":      "---\nname: pdf\ndescription: Read PDFs\n---\n",
		"skills/docx/SKILL.md":     "# Docx\n\nEdit documents.\n",
		"skills/docx/ref/SKILL.md": "---\nname: nested\n---\n",
		"node_modules/x/SKILL.md":  "---\nname: vendored\n---\n",
	})
	src, err := ParseSource(dir, "")
	if err != nil {
		t.Fatalf("ParseSource() error = %v", err)
	}

	cands, err := testClient(t).ListCandidates(context.Background(), src)
	if err != nil {
		t.Fatalf("ListCandidates() error = %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("ListCandidates() returned %d candidates, want 2: %+v", len(cands), cands)
	}
	if cands[0].Subpath != "skills/docx" || cands[0].Name != "docx" || cands[0].Description != "Edit documents." {
		t.Errorf("cands[0] = %+v", cands[0])
	}
	if cands[1].Subpath != "skills/pdf" || cands[1].Name != "pdf" || cands[1].Description != "Read PDFs" {
		t.Errorf("cands[1] = %+v", cands[1])
	}
}

func TestClient_ListCandidates_Subpath(t *testing.T) {
	dir := createTestRepo(t, map[string]string{
		"a/one/SKILL.md": "# one\n",
		"b/two/SKILL.md": "# two\n",
	})
	src, _ := ParseSource(dir, "")
	src.Subpath = "b"

	cands, err := testClient(t).ListCandidates(context.Background(), src)
	if err != nil {
		t.Fatalf("ListCandidates() error = %v", err)
	}
	if len(cands) != 1 || cands[0].Subpath != "b/two" {
		t.Errorf("ListCandidates() = %+v, want only b/two", cands)
	}
}

func TestClient_RootSkill(t *testing.T) {
	dir := createTestRepo(t, map[string]string{
		"SKILL.md": "Just a skill.\n",
	})
	src, _ := ParseSource(dir, "")

	cands, err := testClient(t).ListCandidates(context.Background(), src)
	if err != nil {
		t.Fatalf("ListCandidates() error = %v", err)
	}
	if len(cands) != 1 || cands[0].Subpath != "" || cands[0].Name != filepath.Base(dir) {
		t.Errorf("ListCandidates() = %+v", cands)
	}
}

func TestClient_FetchSkill(t *testing.T) {
	dir := createTestRepo(t, map[string]string{
		"skills/pdf/SKILL.md":  "# pdf\n",
		"skills/pdf/script.py": "print(1)\n",
	})
	src, _ := ParseSource(dir, "")
	c := testClient(t)

	got, err := c.FetchSkill(context.Background(), src, "skills/pdf")
	if err != nil {
		t.Fatalf("FetchSkill() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(got, "script.py"))
	if err != nil || string(data) != "print(1)\n" {
		t.Errorf("fetched script.py = %q, %v", data, err)
	}

	again, err := c.FetchSkill(context.Background(), src, "skills/pdf")
	if err != nil {
		t.Fatalf("FetchSkill() second call error = %v", err)
	}
	if again != got {
		t.Errorf("FetchSkill() did not reuse checkout: %q vs %q", again, got)
	}

	_, err = c.FetchSkill(context.Background(), src, "skills/missing")
	var ge *Error
	if !errors.As(err, &ge) || ge.Kind != KindNotFound {
		t.Errorf("FetchSkill(missing) error = %v, want KindNotFound", err)
	}
}

func TestClient_CacheExpiry(t *testing.T) {
	dir := createTestRepo(t, map[string]string{"s/SKILL.md": "# s\n"})
	src, _ := ParseSource(dir, "")
	c := testClient(t)

	now := time.Now()
	c.now = func() time.Time { return now }
	first, err := c.FetchSkill(context.Background(), src, "")
	if err != nil {
		t.Fatalf("FetchSkill() error = %v", err)
	}

	now = now.Add(2 * time.Minute)
	second, err := c.FetchSkill(context.Background(), src, "")
	if err != nil {
		t.Fatalf("FetchSkill() error = %v", err)
	}
	if first == second {
		t.Error("expired checkout was reused")
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Errorf("expired checkout %s still on disk", first)
	}
}

func TestClient_MissingRepository(t *testing.T) {
	src, _ := ParseSource(filepath.Join(t.TempDir(), "nope"), "")

	_, err := testClient(t).ListCandidates(context.Background(), src)
	var ge *Error
	if !errors.As(err, &ge) {
		t.Fatalf("ListCandidates() error = %v, want *Error", err)
	}
	if ge.Kind == KindNetwork || ge.Kind == KindTimeout {
		t.Errorf("Kind = %q, want a non-retryable kind", ge.Kind)
	}
}

func TestClient_Close(t *testing.T) {
	dir := createTestRepo(t, map[string]string{"s/SKILL.md": "# s\n"})
	src, _ := ParseSource(dir, "")
	c := NewClient(config.GitConfig{}, nil)

	got, err := c.FetchSkill(context.Background(), src, "s")
	if err != nil {
		t.Fatalf("FetchSkill() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(got); !os.IsNotExist(err) {
		t.Errorf("checkout %s survived Close()", got)
	}
}
