package registry

import "time"

// SourceType records where a skill's content came from.
type SourceType string

const (
	SourceLocal SourceType = "local"
	SourceGit   SourceType = "git"
)

// Mode is how a skill is materialized inside a tool directory.
type Mode string

const (
	ModeLink Mode = "link"
	ModeCopy Mode = "copy"
)

// Skill is a Registry-tracked skill. It owns CentralPath exclusively.
type Skill struct {
	ID            string
	Name          string
	Description   string
	SourceType    SourceType
	SourceRef     string // local path or repository URL
	SourceSubpath string // git only
	SourceBranch  string // git only, "" for the default branch
	CentralPath   string
	ContentHash   string
	SortOrder     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SyncTarget is one materialization of a skill inside a tool directory.
// There is at most one per (SkillID, ToolID).
type SyncTarget struct {
	SkillID    string
	ToolID     string
	Mode       Mode
	TargetPath string
	SyncedAt   time.Time
}

// RepoBookmark is a recently used git source, unique by Owner/Name.
type RepoBookmark struct {
	Owner     string
	Name      string
	Branch    string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName returns "owner/name".
func (r RepoBookmark) FullName() string {
	return r.Owner + "/" + r.Name
}

// CustomTool is a user-defined tool adapter. Directories are relative to
// the user's home.
type CustomTool struct {
	Key       string
	Label     string
	SkillsDir string
	DetectDir string
	CreatedAt time.Time
}
