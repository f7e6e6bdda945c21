package cmd

import (
	"github.com/jywlabs/skillhub/internal/registry"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed skills",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		ctx := cmd.Context()
		list, err := a.engine.ListSkills(ctx)
		if err != nil {
			return err
		}
		targets := make(map[string][]*registry.SyncTarget, len(list))
		for _, sk := range list {
			ts, err := a.engine.ListTargets(ctx, sk.ID)
			if err != nil {
				return err
			}
			targets[sk.ID] = ts
		}
		a.out.Skills(list, targets)
		return nil
	})
}
