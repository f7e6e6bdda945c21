package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata, injected with -ldflags "-X github.com/jywlabs/skillhub/cmd.Version=..."
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the skillhub build",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// printVersion writes "skillhub <version> (<commit>, built <date>)" and the
// Go toolchain and platform it was built for.
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "skillhub %s (%s, built %s)\n", Version, Commit, BuildDate)
	fmt.Fprintf(w, "%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
