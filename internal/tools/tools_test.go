package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jywlabs/skillhub/internal/registry"
)

type fakeCustom struct {
	tools []*registry.CustomTool
	err   error
}

func (f fakeCustom) ListCustomTools(context.Context) ([]*registry.CustomTool, error) {
	return f.tools, f.err
}

func TestBuiltinsRegistered(t *testing.T) {
	got := Builtins()
	if len(got) != 14 {
		t.Fatalf("len(Builtins()) = %d, want 14", len(got))
	}
	seen := map[string]bool{}
	for _, a := range got {
		if seen[a.ID] {
			t.Errorf("duplicate adapter id %q", a.ID)
		}
		seen[a.ID] = true
	}
	for _, id := range []string{"cursor", "claude_code", "codex", "windsurf"} {
		if !seen[id] {
			t.Errorf("built-in %q not registered", id)
		}
	}
}

func TestRegistryResolve(t *testing.T) {
	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, ".codex"), 0755); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry(home, nil)
	codex, err := r.Lookup(context.Background(), "codex")
	if err != nil {
		t.Fatalf("Lookup(codex) error = %v", err)
	}
	if !codex.Installed {
		t.Error("codex should be installed when ~/.codex exists")
	}
	if want := filepath.Join(home, ".codex", "skills"); codex.SkillsRoot != want {
		t.Errorf("SkillsRoot = %q, want %q", codex.SkillsRoot, want)
	}
	if codex.LinkSupported != (runtime.GOOS != "windows") {
		t.Errorf("LinkSupported = %v on %s", codex.LinkSupported, runtime.GOOS)
	}

	opencode, _ := r.Lookup(context.Background(), "opencode")
	if opencode.Installed {
		t.Error("opencode should not be installed")
	}
	if want := filepath.Join(home, ".config", "opencode", "skill"); opencode.SkillsRoot != want {
		t.Errorf("SkillsRoot = %q, want %q", opencode.SkillsRoot, want)
	}
}

func TestRegistryLookupUnknown(t *testing.T) {
	r := NewRegistry(t.TempDir(), nil)
	_, err := r.Lookup(context.Background(), "vim")
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("Lookup(vim) error = %v, want ErrUnknownTool", err)
	}
}

func TestRegistryCustomTools(t *testing.T) {
	home := t.TempDir()
	r := NewRegistry(home, fakeCustom{tools: []*registry.CustomTool{
		{Key: "zed", Label: "Zed", SkillsDir: ".zed/skills", DetectDir: ".zed"},
	}})

	all, err := r.Tools(context.Background())
	if err != nil {
		t.Fatalf("Tools() error = %v", err)
	}
	if len(all) != 15 {
		t.Fatalf("len(Tools()) = %d, want 15", len(all))
	}
	last := all[len(all)-1]
	if last.ID != "zed" || !last.Custom {
		t.Errorf("custom tool = %+v", last)
	}

	failing := NewRegistry(home, fakeCustom{err: errors.New("db down")})
	if _, err := failing.Tools(context.Background()); err == nil {
		t.Error("Tools() should surface custom source errors")
	}
}

func TestValidateCustom(t *testing.T) {
	tests := []struct {
		name    string
		tool    registry.CustomTool
		wantErr bool
	}{
		{"valid", registry.CustomTool{Key: "zed", SkillsDir: ".zed/skills", DetectDir: ".zed"}, false},
		{"bad key", registry.CustomTool{Key: "Zed Editor", SkillsDir: "a", DetectDir: "b"}, true},
		{"reserved key", registry.CustomTool{Key: "cursor", SkillsDir: "a", DetectDir: "b"}, true},
		{"absolute dir", registry.CustomTool{Key: "x", SkillsDir: "/etc/skills", DetectDir: "b"}, true},
		{"escaping dir", registry.CustomTool{Key: "x", SkillsDir: "../skills", DetectDir: "b"}, true},
		{"empty detect", registry.CustomTool{Key: "x", SkillsDir: "a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := tt.tool
			err := ValidateCustom(&ct)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCustom() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && ct.Label == "" {
				t.Error("ValidateCustom() should default Label to Key")
			}
		})
	}
}
