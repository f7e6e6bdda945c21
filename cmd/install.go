package cmd

import (
	"context"
	"strings"

	"github.com/jywlabs/skillhub/internal/gitsource"
	"github.com/jywlabs/skillhub/internal/output"
	"github.com/jywlabs/skillhub/internal/skills"
	"github.com/spf13/cobra"
)

// Install command flags
var (
	installBranch    string
	installSubpath   string
	installOverwrite bool
	installTools     []string
	installNoSync    bool
)

var installCmd = &cobra.Command{
	Use:   "install <path|url>",
	Short: "Install a skill from a folder or git repository",
	Long: `Install a skill into the central store, then sync it to your tools.

The source is a local folder, a GitHub shorthand (owner/repo), or a git URL.
GitHub tree URLs select a folder inside the repository. A repository that
contains several skills needs --subpath; use 'skillhub git-list' to see them.

Examples:
  skillhub install ./skills/pdf
  skillhub install acme/skills --subpath skills/pdf
  skillhub install https://github.com/acme/skills/tree/main/skills/pdf
  skillhub install git@github.com:acme/private.git --branch dev
  skillhub install ./pdf --tools cursor,claude_code --overwrite`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

var gitListBranch string

var gitListCmd = &cobra.Command{
	Use:   "git-list <url>",
	Short: "List the skills a git repository offers",
	Args:  cobra.ExactArgs(1),
	RunE:  runGitList,
}

var updateCmd = &cobra.Command{
	Use:   "update <skill>",
	Short: "Refresh a skill from its source",
	Long: `Re-read a skill from the folder or repository it was installed from.

Linked tools see the new content immediately; copied tools are refreshed.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	installCmd.Flags().StringVarP(&installBranch, "branch", "b", "", "Git branch (default: the repository's default branch)")
	installCmd.Flags().StringVar(&installSubpath, "subpath", "", "Skill folder inside the repository")
	installCmd.Flags().BoolVar(&installOverwrite, "overwrite", false, "Replace an installed skill with the same name")
	installCmd.Flags().StringSliceVar(&installTools, "tools", nil, "Tools to sync to (default: preferred tools)")
	installCmd.Flags().BoolVar(&installNoSync, "no-sync", false, "Only install into the central store")

	gitListCmd.Flags().StringVarP(&gitListBranch, "branch", "b", "", "Git branch")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(gitListCmd)
	rootCmd.AddCommand(updateCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		ref := args[0]
		task := skills.Go(cmd.Context(), func(ctx context.Context) (*skills.InstallResult, error) {
			return installFrom(ctx, a.engine, ref)
		})
		stop := a.out.Spin("installing " + ref)
		res, err := task.Wait(cmd.Context())
		stop()
		if err != nil {
			return err
		}
		a.out.Installed(res)

		if installNoSync {
			return nil
		}
		outcomes, err := a.engine.SyncToTools(cmd.Context(), res.SkillID, syncTargets(installTools), installOverwrite)
		if err != nil {
			return err
		}
		var tally output.Tally
		a.reportSync(res.Name, outcomes, &tally)
		return nil
	})
}

// installFrom dispatches ref to the local or git installer.
func installFrom(ctx context.Context, engine *skills.Engine, ref string) (*skills.InstallResult, error) {
	if isLocalFolder(ref) {
		return engine.InstallLocalSkill(ctx, ref, installOverwrite)
	}
	if installSubpath != "" {
		return engine.InstallGitSelection(ctx, ref, installSubpath, installBranch, installOverwrite)
	}
	return engine.InstallGitSkill(ctx, ref, installBranch, installOverwrite)
}

// isLocalFolder reports whether ref names a folder on disk rather than a
// repository. file:// URLs are cloned as repositories.
func isLocalFolder(ref string) bool {
	if strings.HasPrefix(ref, "file://") {
		return false
	}
	src, err := gitsource.ParseSource(ref, "")
	return err == nil && src.Local
}

func runGitList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		task := skills.Go(cmd.Context(), func(ctx context.Context) ([]gitsource.Candidate, error) {
			return a.engine.ListGitSkills(ctx, args[0], gitListBranch)
		})
		stop := a.out.Spin("fetching " + args[0])
		cands, err := task.Wait(cmd.Context())
		stop()
		if err != nil {
			return err
		}
		a.out.Title(args[0])
		a.out.Candidates(cands)
		return nil
	})
}

func runUpdate(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		sk, err := a.engine.FindSkill(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		task := skills.Go(cmd.Context(), func(ctx context.Context) (*skills.InstallResult, error) {
			return a.engine.UpdateSkill(ctx, sk.ID)
		})
		stop := a.out.Spin("updating " + sk.Name)
		res, err := task.Wait(cmd.Context())
		stop()
		if err != nil {
			return err
		}
		a.out.Installed(res)
		return nil
	})
}
