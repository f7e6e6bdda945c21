package template

import (
	_ "embed"
)

//go:embed config.yaml
var DefaultConfig string

// HubDir is the name of the skillhub home directory, relative to the user's home.
const HubDir = ".skillhub"

// File name constants for consistent usage across the codebase.
const (
	ConfigFile = "config.yaml"
	DBFile     = "skillhub.db"
	SkillsDir  = "skills" // Central Store root inside HubDir
	EnvFile    = ".env"
	SkillFile  = "SKILL.md" // Optional skill manifest with YAML frontmatter
)

// DefaultFiles returns the default files to create in ~/.skillhub/
func DefaultFiles() map[string]string {
	return map[string]string{
		ConfigFile: DefaultConfig,
	}
}
