package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/jywlabs/skillhub/internal/gitsource"
	"github.com/jywlabs/skillhub/internal/registry"
	"github.com/jywlabs/skillhub/internal/skills"
)

func TestPrinterStatusLines(t *testing.T) {
	tests := []struct {
		name  string
		print func(p *Printer)
		want  string
	}{
		{"success", func(p *Printer) { p.Success("installed %s", "pdf") }, "✓ installed pdf\n"},
		{"warn", func(p *Printer) { p.Warn("skipped %d", 2) }, "! skipped 2\n"},
		{"failure", func(p *Printer) { p.Failure("broken") }, "✗ broken\n"},
		{"info", func(p *Printer) { p.Info("plain") }, "plain\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.print(New(&buf))
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInstalled(t *testing.T) {
	tests := []struct {
		name string
		res  skills.InstallResult
		want string
	}{
		{
			name: "new skill",
			res:  skills.InstallResult{Name: "pdf", CentralPath: "/hub/skills/pdf"},
			want: "✓ installed pdf -> /hub/skills/pdf\n",
		},
		{
			name: "replaced",
			res:  skills.InstallResult{Name: "pdf", CentralPath: "/hub/skills/pdf", Replaced: true},
			want: "✓ replaced pdf -> /hub/skills/pdf\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(&buf).Installed(&tt.res)
			if got := buf.String(); got != tt.want {
				t.Errorf("Installed() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSyncOutcomes(t *testing.T) {
	outcomes := []skills.SyncOutcome{
		{Tool: "cursor", Status: skills.StatusSynced, Result: &skills.SyncResult{Mode: registry.ModeLink}},
		{Tool: "claude_code", Status: skills.StatusSkipped, Result: &skills.SyncResult{Unchanged: true}},
		{Tool: "codex", Status: skills.StatusConflict, Err: &skills.ConflictError{Kind: skills.TargetExists, Path: "/x/pdf"}},
		{Tool: "windsurf", Status: skills.StatusFailed, Err: errors.New("disk full")},
	}

	var buf bytes.Buffer
	New(&buf).SyncOutcomes("pdf", outcomes)
	got := buf.String()

	for _, want := range []string{
		"✓ pdf -> cursor (link)",
		"pdf -> claude_code already synced",
		"! pdf -> codex: /x/pdf already exists (use --overwrite to replace it)",
		"✗ pdf -> windsurf: disk full",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q does not contain %q", got, want)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{
			name: "skill exists",
			err:  &skills.ConflictError{Kind: skills.SkillExists, Name: "pdf"},
			want: `skill "pdf" already exists (use --overwrite to replace it)`,
		},
		{
			name: "multi skills",
			err: &skills.ConflictError{Kind: skills.MultiSkills, Candidates: []gitsource.Candidate{
				{Subpath: "skills/a"}, {Subpath: "skills/b"},
			}},
			want: "repository contains 2 skills, pick one with --subpath: skills/a, skills/b",
		},
		{
			name: "git auth",
			err: &skills.SourceError{Kind: skills.SourceGit, Git: &gitsource.Error{
				Kind: gitsource.KindAuth, URL: "https://github.com/acme/private.git", Err: errors.New("401"),
			}},
			want: "git https://github.com/acme/private.git: authentication failed: 401 (set GITHUB_TOKEN for private repositories)",
		},
		{
			name: "other errors pass through",
			err:  &skills.NotFoundError{Entity: "skill", ID: "pdf"},
			want: (&skills.NotFoundError{Entity: "skill", ID: "pdf"}).Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.err); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTally(t *testing.T) {
	var tally Tally
	for _, l := range []string{"imported", "skipped", "imported", "imported", "skipped"} {
		tally.Add(l)
	}

	if got, want := tally.String(), "imported: 3, skipped: 2"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := tally.Count("imported"); got != 3 {
		t.Errorf("Count(imported) = %d, want 3", got)
	}
	if got := tally.Count("failed"); got != 0 {
		t.Errorf("Count(failed) = %d, want 0", got)
	}

	var buf bytes.Buffer
	New(&buf).Summary(&Tally{})
	if got, want := buf.String(), "Nothing to do\n"; got != want {
		t.Errorf("Summary(empty) = %q, want %q", got, want)
	}
}

func TestPlan(t *testing.T) {
	plan := &skills.OnboardingPlan{
		TotalToolsScanned: 2,
		TotalSkillsFound:  2,
		Groups: []skills.Group{{
			Name: "pdf",
			Variants: []skills.Variant{
				{Tool: "claude_code", Path: "/h/.claude/skills/pdf", ConflictingTools: []string{"cursor"}},
				{Tool: "cursor", Path: "/h/.cursor/skills/pdf", ConflictingTools: []string{"claude_code"}},
			},
		}},
	}

	var buf bytes.Buffer
	New(&buf).Plan(plan)
	got := buf.String()

	for _, want := range []string{
		"Scanned 2 tools, found 2 skills in 1 groups",
		"pdf differs between tools",
		"/h/.claude/skills/pdf conflicts with cursor",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q does not contain %q", got, want)
		}
	}
}

func TestSkillsEmpty(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Skills(nil, nil)
	if got, want := buf.String(), "No skills installed\n"; got != want {
		t.Errorf("Skills(nil) = %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer description", 10, "a longe..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
