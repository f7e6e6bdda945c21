package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jywlabs/skillhub/internal/output"
	"github.com/spf13/cobra"
)

// Global flags
var (
	hubFlag     string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "skillhub",
	Short: "skillhub - Install skills once, sync them into every AI coding tool",
	Long: `skillhub keeps one canonical copy of each skill in a central store
and links or copies it into the skills directories of your AI coding tools.

Workflow:
  skillhub init                          Create ~/.skillhub and config.yaml
  skillhub scan                          Find skills already in tool directories
  skillhub import                        Adopt them into the central store
  skillhub install ./my-skill            Install a local skill folder
  skillhub install owner/repo            Install a skill from GitHub
  skillhub sync my-skill                 Push a skill to your tools

Commands:
  init        Create the skillhub home directory
  install     Install a skill from a folder or git repository
  git-list    List the skills a git repository offers
  list        List installed skills
  scan        Show skills found in tool directories
  import      Import skills found in tool directories
  sync        Sync a skill into tool directories
  unsync      Remove a skill from one tool
  update      Refresh a skill from its source
  reorder     Change the order of installed skills
  remove      Delete a skill and everything synced from it
  repos       Manage saved repositories
  tools       Show tools and set preferred sync targets
  config      Show current configuration
  version     Show version info`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&hubFlag, "hub", "", "skillhub home directory (default $SKILLHUB_HOME or ~/.skillhub)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		output.New(os.Stderr).Failure("%s", output.Describe(err))
		os.Exit(1)
	}
}
