package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jywlabs/skillhub/internal/gitsource"
	"github.com/jywlabs/skillhub/internal/registry"
	"github.com/jywlabs/skillhub/internal/skills"
	"github.com/jywlabs/skillhub/internal/tools"
)

// Printer handles formatted output for the CLI.
type Printer struct {
	w     io.Writer
	color bool
}

// New creates a new Printer that writes to the given writer. Styles are
// applied only when w is a terminal.
func New(w io.Writer) *Printer {
	f, ok := w.(*os.File)
	return &Printer{w: w, color: ok && isTerminal(f)}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Success prints "✓ <message>".
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.style(StyleSuccess, "✓"), fmt.Sprintf(format, args...))
}

// Warn prints "! <message>".
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.style(StyleWarning, "!"), fmt.Sprintf(format, args...))
}

// Failure prints "✗ <message>".
func (p *Printer) Failure(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.style(StyleError, "✗"), fmt.Sprintf(format, args...))
}

// Info prints a plain line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Title prints a section header.
func (p *Printer) Title(text string) {
	fmt.Fprintln(p.w, p.style(StyleTitle, text))
}

// Installed reports one install.
// Format: "✓ installed <name> -> <central path>" (or "replaced")
func (p *Printer) Installed(res *skills.InstallResult) {
	verb := "installed"
	if res.Replaced {
		verb = "replaced"
	}
	p.Success("%s %s -> %s", verb, p.style(StyleBold, res.Name), p.style(StyleMuted, res.CentralPath))
}

// SyncOutcomes prints one line per tool of a batch sync.
func (p *Printer) SyncOutcomes(skill string, outcomes []skills.SyncOutcome) {
	for _, o := range outcomes {
		switch o.Status {
		case skills.StatusSynced:
			p.Success("%s -> %s (%s)", skill, o.Tool, o.Result.Mode)
		case skills.StatusSkipped:
			p.Info("  %s -> %s %s", skill, o.Tool, p.style(StyleMuted, "already synced"))
		case skills.StatusConflict:
			p.Warn("%s -> %s: %s", skill, o.Tool, Describe(o.Err))
		default:
			p.Failure("%s -> %s: %s", skill, o.Tool, Describe(o.Err))
		}
	}
}

// Skills prints the registry listing with each skill's tools.
func (p *Printer) Skills(list []*registry.Skill, targets map[string][]*registry.SyncTarget) {
	if len(list) == 0 {
		p.Info("No skills installed")
		return
	}
	for _, sk := range list {
		var ids []string
		for _, t := range targets[sk.ID] {
			ids = append(ids, t.ToolID+"("+string(t.Mode)+")")
		}
		source := sk.SourceRef
		if sk.SourceSubpath != "" {
			source += "//" + sk.SourceSubpath
		}
		p.Info("%2d. %s  %s", sk.SortOrder+1, p.style(StyleBold, sk.Name), p.style(StyleMuted, sk.ID))
		if sk.Description != "" {
			p.Info("    %s", truncate(sk.Description, TerminalWidth()-4))
		}
		p.Info("    %s %s", p.style(StyleMuted, string(sk.SourceType)+":"), source)
		if len(ids) > 0 {
			p.Info("    %s %s", p.style(StyleMuted, "tools:"), strings.Join(ids, ", "))
		}
	}
}

// Candidates prints the skills a repository offers.
func (p *Printer) Candidates(cands []gitsource.Candidate) {
	for _, c := range cands {
		sub := c.Subpath
		if sub == "" {
			sub = "."
		}
		line := fmt.Sprintf("  %s  %s", p.style(StyleBold, c.Name), p.style(StyleMuted, sub))
		if c.Description != "" {
			line += "  " + truncate(c.Description, 60)
		}
		p.Info("%s", line)
	}
}

// Plan prints an onboarding plan.
func (p *Printer) Plan(plan *skills.OnboardingPlan) {
	p.Info("Scanned %d tools, found %d skills in %d groups",
		plan.TotalToolsScanned, plan.TotalSkillsFound, len(plan.Groups))
	for _, g := range plan.Groups {
		header := p.style(StyleBold, g.Name)
		if g.ExistingSkillID != "" {
			header += " " + p.style(StyleMuted, "(registered)")
		}
		if g.HasConflict() {
			header += " " + p.style(StyleWarning, "differs between tools")
		}
		p.Info("%s", header)
		for _, v := range g.Variants {
			line := fmt.Sprintf("  %-14s %s", v.Tool, v.Path)
			if v.IsLink {
				line += " -> " + v.LinkTarget
			}
			if len(v.ConflictingTools) > 0 {
				line += p.style(StyleWarning, " conflicts with "+strings.Join(v.ConflictingTools, ", "))
			}
			p.Info("%s", line)
		}
	}
}

// Tools prints every known tool.
func (p *Printer) Tools(list []tools.Info, preferred []string) {
	pref := make(map[string]bool, len(preferred))
	for _, id := range preferred {
		pref[id] = true
	}
	for _, t := range list {
		mark := p.style(StyleMuted, "-")
		if t.Installed {
			mark = p.style(StyleSuccess, "✓")
		}
		extra := ""
		if pref[t.ID] {
			extra += " " + p.style(StyleAccent, "preferred")
		}
		if t.Custom {
			extra += " " + p.style(StyleMuted, "custom")
		}
		p.Info("%s %-16s %-16s %s%s", mark, t.ID, t.Label, p.style(StyleMuted, t.SkillsRoot), extra)
	}
}

// Repos prints repository bookmarks.
func (p *Printer) Repos(list []*registry.RepoBookmark) {
	if len(list) == 0 {
		p.Info("No saved repositories")
		return
	}
	for _, r := range list {
		branch := r.Branch
		if branch == "" {
			branch = "default"
		}
		p.Info("  %s  %s  %s", p.style(StyleBold, r.FullName()), p.style(StyleMuted, branch), r.URL)
	}
}

// Describe turns an engine error into a message for the user, with a hint
// when the caller can resolve it.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if ce, ok := skills.AsConflict(err); ok {
		switch ce.Kind {
		case skills.SkillExists:
			return fmt.Sprintf("skill %q already exists (use --overwrite to replace it)", ce.Name)
		case skills.TargetExists:
			return fmt.Sprintf("%s already exists (use --overwrite to replace it)", ce.Path)
		case skills.MultiSkills:
			names := make([]string, len(ce.Candidates))
			for i, c := range ce.Candidates {
				names[i] = c.Subpath
			}
			return fmt.Sprintf("repository contains %d skills, pick one with --subpath: %s",
				len(ce.Candidates), strings.Join(names, ", "))
		}
	}
	var se *skills.SourceError
	if errors.As(err, &se) && se.Kind == skills.SourceGit && se.Git != nil {
		switch se.Git.Kind {
		case gitsource.KindAuth:
			return fmt.Sprintf("%s (set GITHUB_TOKEN for private repositories)", se.Git.Error())
		case gitsource.KindTimeout:
			return fmt.Sprintf("%s (raise git.timeout in config.yaml)", se.Git.Error())
		}
	}
	return err.Error()
}

// Tally counts batch outcomes by label, remembering first-seen order.
type Tally struct {
	labels []string
	counts map[string]int
}

// Add counts one outcome.
func (t *Tally) Add(label string) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, ok := t.counts[label]; !ok {
		t.labels = append(t.labels, label)
	}
	t.counts[label]++
}

// Count returns how many outcomes carry label.
func (t *Tally) Count(label string) int {
	return t.counts[label]
}

// String formats the tally as "imported: 3, skipped: 2".
func (t *Tally) String() string {
	parts := make([]string, len(t.labels))
	for i, l := range t.labels {
		parts[i] = fmt.Sprintf("%s: %d", l, t.counts[l])
	}
	return strings.Join(parts, ", ")
}

// Summary prints a tally.
func (p *Printer) Summary(t *Tally) {
	if len(t.labels) == 0 {
		p.Info("Nothing to do")
		return
	}
	p.Info("%s", p.style(StyleBold, t.String()))
}

func truncate(s string, n int) string {
	if n <= 3 {
		n = 60
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
