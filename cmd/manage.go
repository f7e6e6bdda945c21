package cmd

import (
	"github.com/spf13/cobra"
)

var reorderCmd = &cobra.Command{
	Use:   "reorder <skill>...",
	Short: "Change the order of installed skills",
	Long: `Move the given skills, in the given order, to the front of the list.
Skills not named keep their relative order after them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReorder,
}

var removeCmd = &cobra.Command{
	Use:     "remove <skill>",
	Aliases: []string{"rm"},
	Short:   "Delete a skill and everything synced from it",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

func init() {
	rootCmd.AddCommand(reorderCmd)
	rootCmd.AddCommand(removeCmd)
}

func runReorder(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		ctx := cmd.Context()
		ids := make([]string, 0, len(args))
		for _, ref := range args {
			sk, err := a.engine.FindSkill(ctx, ref)
			if err != nil {
				return err
			}
			ids = append(ids, sk.ID)
		}
		if err := a.engine.ReorderSkills(ctx, ids); err != nil {
			return err
		}
		list, err := a.engine.ListSkills(ctx)
		if err != nil {
			return err
		}
		a.out.Skills(list, nil)
		return nil
	})
}

func runRemove(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		sk, err := a.engine.FindSkill(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := a.engine.DeleteSkill(cmd.Context(), sk.ID); err != nil {
			return err
		}
		a.out.Success("removed %s", sk.Name)
		return nil
	})
}
