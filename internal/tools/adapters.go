package tools

// Built-in adapters, in display order. Directories are relative to the
// user's home and use forward slashes.
func init() {
	register(Adapter{ID: "cursor", Label: "Cursor", SkillsDir: ".cursor/skills", DetectDir: ".cursor"})
	register(Adapter{ID: "claude_code", Label: "Claude Code", SkillsDir: ".claude/skills", DetectDir: ".claude"})
	register(Adapter{ID: "codex", Label: "Codex", SkillsDir: ".codex/skills", DetectDir: ".codex"})
	register(Adapter{ID: "opencode", Label: "OpenCode", SkillsDir: ".config/opencode/skill", DetectDir: ".config/opencode"})
	register(Adapter{ID: "antigravity", Label: "Antigravity", SkillsDir: ".gemini/antigravity/skills", DetectDir: ".gemini/antigravity"})
	register(Adapter{ID: "amp", Label: "Amp", SkillsDir: ".config/agents/skills", DetectDir: ".config/agents"})
	register(Adapter{ID: "kilo_code", Label: "Kilo Code", SkillsDir: ".kilocode/skills", DetectDir: ".kilocode"})
	register(Adapter{ID: "roo_code", Label: "Roo Code", SkillsDir: ".roo/skills", DetectDir: ".roo"})
	register(Adapter{ID: "goose", Label: "Goose", SkillsDir: ".config/goose/skills", DetectDir: ".config/goose"})
	register(Adapter{ID: "gemini_cli", Label: "Gemini CLI", SkillsDir: ".gemini/skills", DetectDir: ".gemini"})
	register(Adapter{ID: "github_copilot", Label: "GitHub Copilot", SkillsDir: ".copilot/skills", DetectDir: ".copilot"})
	register(Adapter{ID: "clawdbot", Label: "Clawdbot", SkillsDir: ".clawdbot/skills", DetectDir: ".clawdbot"})
	register(Adapter{ID: "droid", Label: "Droid", SkillsDir: ".factory/skills", DetectDir: ".factory"})
	register(Adapter{ID: "windsurf", Label: "Windsurf", SkillsDir: ".codeium/windsurf/skills", DetectDir: ".codeium/windsurf"})
}
