package cmd

import (
	"context"

	"github.com/jywlabs/skillhub/internal/output"
	"github.com/jywlabs/skillhub/internal/skills"
	"github.com/spf13/cobra"
)

// Import command flags
var (
	importTools        []string
	importOverwrite    bool
	importOverwriteAll bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Show skills found in tool directories",
	Long: `Scan the skills directory of every installed tool and list the skills
the central store does not track yet, grouped by name. Groups whose copies
differ between tools are marked.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

var importCmd = &cobra.Command{
	Use:   "import [path...]",
	Short: "Import skills found in tool directories",
	Long: `Import skills into the central store.

Without arguments, every group found by 'skillhub scan' is imported and the
tool folders it came from are replaced by links to the central copy.
Imported skills also go to --tools, or to your preferred tools when
--tools is not given. Groups
that differ between tools are skipped unless --overwrite-all is set; import
one of their paths explicitly to pick a version.

Examples:
  skillhub import
  skillhub import ~/.cursor/skills/pdf --tools claude_code
  skillhub import --overwrite-all`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringSliceVar(&importTools, "tools", nil, "Tools to sync imported skills to (default: preferred tools)")
	importCmd.Flags().BoolVar(&importOverwrite, "overwrite", false, "Replace installed skills with the same name")
	importCmd.Flags().BoolVar(&importOverwriteAll, "overwrite-all", false, "Also replace differing copies in tool directories")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(importCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		plan, err := a.engine.GetOnboardingPlan(cmd.Context())
		if err != nil {
			return err
		}
		a.out.Plan(plan)
		return nil
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		task := skills.Go(cmd.Context(), func(ctx context.Context) (*output.Tally, error) {
			if len(args) > 0 {
				return a.importPaths(ctx, args)
			}
			return a.importPlan(ctx)
		})
		tally, err := task.Wait(cmd.Context())
		if err != nil {
			return err
		}
		a.out.Summary(tally)
		return nil
	})
}

// importPaths imports each folder and syncs it to --tools or the default
// targets.
func (a *app) importPaths(ctx context.Context, paths []string) (*output.Tally, error) {
	targets, err := a.importTargets(ctx, nil, importTools)
	if err != nil {
		return nil, err
	}
	var tally output.Tally
	for _, p := range paths {
		a.importOne(ctx, p, targets, &tally)
	}
	return &tally, nil
}

// importTargets returns the tools an imported skill goes to: the tools it
// was found in, plus extra or, when extra is empty, the default targets.
func (a *app) importTargets(ctx context.Context, found, extra []string) ([]string, error) {
	if len(extra) == 0 {
		defaults, err := a.engine.DefaultTargets(ctx)
		if err != nil {
			return nil, err
		}
		extra = defaults
	}
	targets := make([]string, 0, len(found)+len(extra))
	targets = append(targets, found...)
	return dedupe(append(targets, extra...)), nil
}

// importPlan imports every untracked group and links it back into the tools
// it was found in.
func (a *app) importPlan(ctx context.Context) (*output.Tally, error) {
	plan, err := a.engine.GetOnboardingPlan(ctx)
	if err != nil {
		return nil, err
	}

	var tally output.Tally
	for _, g := range plan.Groups {
		switch {
		case g.ExistingSkillID != "" && !importOverwrite:
			a.out.Warn("%s is already installed (use --overwrite to replace it)", g.Name)
			tally.Add("skipped")
			continue
		case g.HasConflict() && !importOverwriteAll:
			a.out.Warn("%s differs between tools; import one path explicitly or use --overwrite-all", g.Name)
			tally.Add("skipped")
			continue
		}

		found := make([]string, 0, len(g.Variants))
		for _, v := range g.Variants {
			found = append(found, v.Tool)
		}
		targets, err := a.importTargets(ctx, found, importTools)
		if err != nil {
			return nil, err
		}
		a.importOne(ctx, g.Variants[0].Path, targets, &tally)
	}
	return &tally, nil
}

func (a *app) importOne(ctx context.Context, path string, toolIDs []string, tally *output.Tally) {
	res, err := a.engine.ImportExistingSkill(ctx, path, importOverwrite)
	if err != nil {
		if skills.IsConflict(err, skills.SkillExists) {
			a.out.Warn("%s", output.Describe(err))
			tally.Add("skipped")
			return
		}
		a.out.Failure("%s: %s", path, output.Describe(err))
		tally.Add("failed")
		return
	}
	a.out.Installed(res)
	tally.Add("imported")

	if len(toolIDs) == 0 {
		return
	}
	outcomes, err := a.engine.SyncToTools(ctx, res.SkillID, toolIDs, importOverwriteAll)
	if err != nil {
		a.out.Failure("%s: %s", res.Name, output.Describe(err))
		return
	}
	a.out.SyncOutcomes(res.Name, outcomes)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
