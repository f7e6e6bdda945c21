package cmd

import (
	"github.com/jywlabs/skillhub/internal/registry"
	"github.com/spf13/cobra"
)

// Tools command flags
var (
	preferClear   bool
	toolLabel     string
	toolSkillsDir string
	toolDetectDir string
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Show tools and set preferred sync targets",
	RunE:  runToolsList,
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known tools and whether they are installed",
	Args:  cobra.NoArgs,
	RunE:  runToolsList,
}

var toolsPreferCmd = &cobra.Command{
	Use:   "prefer <tool>...",
	Short: "Set the tools skills sync to by default",
	Long: `Set the tools that install and sync use when --tools is not given.
Use --clear to go back to syncing to every installed tool.`,
	RunE: runToolsPrefer,
}

var toolsAddCmd = &cobra.Command{
	Use:   "add <key>",
	Short: "Add a custom tool",
	Long: `Add a tool that is not built in. Directories are relative to your home.

Example:
  skillhub tools add mytool --label "My Tool" --skills-dir .mytool/skills --detect-dir .mytool`,
	Args: cobra.ExactArgs(1),
	RunE: runToolsAdd,
}

var toolsRemoveCmd = &cobra.Command{
	Use:   "remove <key>",
	Short: "Remove a custom tool",
	Args:  cobra.ExactArgs(1),
	RunE:  runToolsRemove,
}

func init() {
	toolsPreferCmd.Flags().BoolVar(&preferClear, "clear", false, "Clear preferred tools")
	toolsAddCmd.Flags().StringVar(&toolLabel, "label", "", "Display name")
	toolsAddCmd.Flags().StringVar(&toolSkillsDir, "skills-dir", "", "Skills directory, relative to home")
	toolsAddCmd.Flags().StringVar(&toolDetectDir, "detect-dir", "", "Directory whose presence means the tool is installed")

	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsPreferCmd)
	toolsCmd.AddCommand(toolsAddCmd)
	toolsCmd.AddCommand(toolsRemoveCmd)
	rootCmd.AddCommand(toolsCmd)
}

func runToolsList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		ctx := cmd.Context()
		list, err := a.engine.Tools(ctx)
		if err != nil {
			return err
		}
		preferred, _, err := a.engine.PreferredTools(ctx)
		if err != nil {
			return err
		}
		a.out.Tools(list, preferred)
		return nil
	})
}

func runToolsPrefer(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		ids := args
		if preferClear {
			ids = nil
		} else if len(ids) == 0 {
			return cmd.Usage()
		}
		if err := a.engine.SetPreferredTools(cmd.Context(), ids); err != nil {
			return err
		}
		if ids == nil {
			a.out.Success("cleared preferred tools")
			return nil
		}
		a.out.Success("preferred tools set")
		return nil
	})
}

func runToolsAdd(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		ct := &registry.CustomTool{
			Key:       args[0],
			Label:     toolLabel,
			SkillsDir: toolSkillsDir,
			DetectDir: toolDetectDir,
		}
		if err := a.engine.SaveCustomTool(cmd.Context(), ct); err != nil {
			return err
		}
		a.out.Success("added %s", ct.Key)
		return nil
	})
}

func runToolsRemove(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.engine.RemoveCustomTool(cmd.Context(), args[0]); err != nil {
			return err
		}
		a.out.Success("removed %s", args[0])
		return nil
	})
}
