package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/jywlabs/skillhub/internal/gitsource"
	"github.com/jywlabs/skillhub/internal/skills"
	"github.com/spf13/cobra"
)

var reposBranch string

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Manage saved repositories",
	Long: `Manage saved skill repositories. Repositories are saved automatically
when you install from them.`,
	RunE: runReposList,
}

var reposAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Save a repository and list its skills",
	Args:  cobra.ExactArgs(1),
	RunE:  runReposAdd,
}

var reposListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved repositories",
	Args:  cobra.NoArgs,
	RunE:  runReposList,
}

var reposRemoveCmd = &cobra.Command{
	Use:   "remove <owner/name>",
	Short: "Forget a saved repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runReposRemove,
}

func init() {
	reposAddCmd.Flags().StringVarP(&reposBranch, "branch", "b", "", "Git branch")

	reposCmd.AddCommand(reposAddCmd)
	reposCmd.AddCommand(reposListCmd)
	reposCmd.AddCommand(reposRemoveCmd)
	rootCmd.AddCommand(reposCmd)
}

func runReposAdd(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		b, err := a.engine.AddSkillRepo(cmd.Context(), args[0], reposBranch)
		if err != nil {
			return err
		}
		a.out.Success("saved %s", b.FullName())

		task := skills.Go(cmd.Context(), func(ctx context.Context) ([]gitsource.Candidate, error) {
			return a.engine.ListGitSkills(ctx, b.URL, b.Branch)
		})
		stop := a.out.Spin("fetching " + b.FullName())
		cands, err := task.Wait(cmd.Context())
		stop()
		if err != nil {
			a.out.Warn("could not list skills: %s", err)
			return nil
		}
		a.out.Candidates(cands)
		return nil
	})
}

func runReposList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		list, err := a.engine.GetSkillRepos(cmd.Context())
		if err != nil {
			return err
		}
		a.out.Repos(list)
		return nil
	})
}

func runReposRemove(cmd *cobra.Command, args []string) error {
	owner, name, ok := strings.Cut(args[0], "/")
	if !ok {
		return fmt.Errorf("expected owner/name, got %q", args[0])
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.engine.RemoveSkillRepo(cmd.Context(), owner, name); err != nil {
			return err
		}
		a.out.Success("removed %s/%s", owner, name)
		return nil
	})
}
