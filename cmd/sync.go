package cmd

import (
	"github.com/jywlabs/skillhub/internal/output"
	"github.com/spf13/cobra"
)

// Sync command flags
var (
	syncTools     []string
	syncOverwrite bool
)

var syncCmd = &cobra.Command{
	Use:   "sync <skill>...",
	Short: "Sync skills into tool directories",
	Long: `Link or copy installed skills into the skills directory of each tool.

Without --tools, skills go to your preferred tools (see 'skillhub tools prefer'),
or to every installed tool when none are set. Existing folders that differ
from the central copy are left alone unless --overwrite is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSync,
}

var unsyncCmd = &cobra.Command{
	Use:   "unsync <skill> <tool>",
	Short: "Remove a skill from one tool",
	Args:  cobra.ExactArgs(2),
	RunE:  runUnsync,
}

func init() {
	syncCmd.Flags().StringSliceVar(&syncTools, "tools", nil, "Tools to sync to")
	syncCmd.Flags().BoolVar(&syncOverwrite, "overwrite", false, "Replace differing folders in tool directories")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(unsyncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		ctx := cmd.Context()
		var tally output.Tally
		for _, ref := range args {
			sk, err := a.engine.FindSkill(ctx, ref)
			if err != nil {
				a.out.Failure("%s", output.Describe(err))
				tally.Add("failed")
				continue
			}
			outcomes, err := a.engine.SyncToTools(ctx, sk.ID, syncTargets(syncTools), syncOverwrite)
			if err != nil {
				return err
			}
			a.reportSync(sk.Name, outcomes, &tally)
		}
		if len(args) > 1 {
			a.out.Summary(&tally)
		}
		return nil
	})
}

func runUnsync(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		sk, err := a.engine.FindSkill(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := a.engine.UnsyncSkillFromTool(cmd.Context(), sk.ID, args[1]); err != nil {
			return err
		}
		a.out.Success("removed %s from %s", sk.Name, args[1])
		return nil
	})
}
