package skills

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jywlabs/skillhub/internal/gitsource"
)

// ConflictKind names an expected, user-resolvable conflict.
type ConflictKind string

const (
	// SkillExists: a skill with the same name is already installed.
	SkillExists ConflictKind = "SKILL_EXISTS"
	// TargetExists: the tool directory already holds unrelated content.
	TargetExists ConflictKind = "TARGET_EXISTS"
	// MultiSkills: a repository offers more than one skill.
	MultiSkills ConflictKind = "MULTI_SKILLS"
)

// ConflictError is returned when the caller must choose: retry with
// overwrite, pick a candidate, or skip.
type ConflictError struct {
	Kind       ConflictKind
	Name       string                // SkillExists
	Path       string                // TargetExists
	Tool       string                // TargetExists
	Candidates []gitsource.Candidate // MultiSkills
}

func (e *ConflictError) Error() string {
	switch e.Kind {
	case SkillExists:
		return fmt.Sprintf("skill %q already exists", e.Name)
	case TargetExists:
		return fmt.Sprintf("%s already exists", e.Path)
	case MultiSkills:
		names := make([]string, len(e.Candidates))
		for i, c := range e.Candidates {
			names[i] = c.Subpath
		}
		return fmt.Sprintf("repository contains %d skills (%s), choose one", len(e.Candidates), strings.Join(names, ", "))
	}
	return "conflict"
}

// Tag returns the delimited form used by older callers.
func (e *ConflictError) Tag() string {
	switch e.Kind {
	case SkillExists:
		return string(e.Kind) + "|" + e.Name
	case TargetExists:
		return string(e.Kind) + "|" + e.Path
	}
	return string(e.Kind) + "|"
}

// SourceKind names a failure to read a skill's source or destination.
type SourceKind string

const (
	SourceGit              SourceKind = "GIT"
	SourceIO               SourceKind = "IO"
	SourceMalformed        SourceKind = "MALFORMED"
	SourceNoSkillsFound    SourceKind = "NO_SKILLS_FOUND"
	SourceToolNotInstalled SourceKind = "TOOL_NOT_INSTALLED"
)

// SourceError is a non-conflict failure tied to a path, repository or tool.
type SourceError struct {
	Kind SourceKind
	Path string
	Tool string
	Git  *gitsource.Error
	Err  error
}

func (e *SourceError) Error() string {
	switch e.Kind {
	case SourceGit:
		if e.Git != nil {
			return e.Git.Error()
		}
		return fmt.Sprintf("git: %v", e.Err)
	case SourceIO:
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	case SourceMalformed:
		if e.Err != nil {
			return fmt.Sprintf("%s is not a usable skill folder: %v", e.Path, e.Err)
		}
		return fmt.Sprintf("%s is not a usable skill folder", e.Path)
	case SourceNoSkillsFound:
		return fmt.Sprintf("no skills found in %s", e.Path)
	case SourceToolNotInstalled:
		return fmt.Sprintf("tool %s is not installed (%s missing)", e.Tool, e.Path)
	}
	return fmt.Sprintf("source error: %v", e.Err)
}

func (e *SourceError) Unwrap() error {
	if e.Git != nil {
		return e.Git
	}
	return e.Err
}

// Tag returns the delimited form used by older callers.
func (e *SourceError) Tag() string {
	switch e.Kind {
	case SourceToolNotInstalled:
		return string(e.Kind) + "|" + e.Tool + "|" + e.Path
	case SourceGit:
		if e.Git != nil {
			return string(e.Kind) + "|" + string(e.Git.Kind)
		}
	}
	return string(e.Kind) + "|" + e.Path
}

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Tag returns the delimited form used by older callers.
func (e *ValidationError) Tag() string {
	return "VALIDATION|" + e.Field
}

// NotFoundError reports an unknown skill, tool or candidate.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// Tag returns the delimited form used by older callers.
func (e *NotFoundError) Tag() string {
	return "NOT_FOUND|" + e.Entity + "|" + e.ID
}

// AsConflict returns the ConflictError in err's chain.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsConflict reports whether err is a conflict of the given kind. An empty
// kind matches any conflict.
func IsConflict(err error, kind ConflictKind) bool {
	ce, ok := AsConflict(err)
	return ok && (kind == "" || ce.Kind == kind)
}

// Tag returns the legacy tag of err, or "" for untyped errors.
func Tag(err error) string {
	var tagged interface{ Tag() string }
	if errors.As(err, &tagged) {
		return tagged.Tag()
	}
	return ""
}

func ioError(path string, err error) error {
	return &SourceError{Kind: SourceIO, Path: path, Err: err}
}

func malformed(path string, err error) error {
	return &SourceError{Kind: SourceMalformed, Path: path, Err: err}
}

func gitError(err error) error {
	var ge *gitsource.Error
	if errors.As(err, &ge) {
		return &SourceError{Kind: SourceGit, Path: ge.URL, Git: ge, Err: err}
	}
	return err
}
