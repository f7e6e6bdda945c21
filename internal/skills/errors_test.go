package skills

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jywlabs/skillhub/internal/gitsource"
)

func TestTag(t *testing.T) {
	gitErr := &gitsource.Error{Kind: gitsource.KindAuth, URL: "u", Err: errors.New("denied")}
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"skill exists", &ConflictError{Kind: SkillExists, Name: "pdf"}, "SKILL_EXISTS|pdf"},
		{"target exists", &ConflictError{Kind: TargetExists, Path: "/t/pdf"}, "TARGET_EXISTS|/t/pdf"},
		{"multi skills", &ConflictError{Kind: MultiSkills}, "MULTI_SKILLS|"},
		{"tool not installed", &SourceError{Kind: SourceToolNotInstalled, Tool: "codex", Path: "/h/.codex"}, "TOOL_NOT_INSTALLED|codex|/h/.codex"},
		{"git", &SourceError{Kind: SourceGit, Git: gitErr}, "GIT|auth"},
		{"wrapped", fmt.Errorf("install: %w", &ConflictError{Kind: SkillExists, Name: "x"}), "SKILL_EXISTS|x"},
		{"not found", &NotFoundError{Entity: "tool", ID: "zed"}, "NOT_FOUND|tool|zed"},
		{"untyped", errors.New("boom"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tag(tt.err); got != tt.want {
				t.Errorf("Tag() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsConflict(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &ConflictError{Kind: TargetExists, Path: "/p"})
	if !IsConflict(err, "") || !IsConflict(err, TargetExists) {
		t.Error("IsConflict() = false for a wrapped TargetExists")
	}
	if IsConflict(err, SkillExists) {
		t.Error("IsConflict(SkillExists) = true for TargetExists")
	}
	if IsConflict(&SourceError{Kind: SourceIO}, "") {
		t.Error("IsConflict() = true for a SourceError")
	}
}

func TestSourceErrorUnwrap(t *testing.T) {
	gitErr := &gitsource.Error{Kind: gitsource.KindTimeout, URL: "u", Err: errors.New("slow")}
	err := gitError(fmt.Errorf("list: %w", gitErr))
	var ge *gitsource.Error
	if !errors.As(err, &ge) || ge.Kind != gitsource.KindTimeout {
		t.Errorf("gitError() = %v, want to unwrap to the git error", err)
	}
	var se *SourceError
	if !errors.As(err, &se) || se.Kind != SourceGit {
		t.Errorf("gitError() = %v, want SourceError{Git}", err)
	}
}
