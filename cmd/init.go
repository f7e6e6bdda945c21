package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jywlabs/skillhub/internal/template"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the skillhub home directory",
	Long: `Create the skillhub home directory (~/.skillhub by default).

Creates:
  ~/.skillhub/
    config.yaml    # Link mode, ignore patterns, git settings
    skills/        # Central store

Existing files are left untouched, so init is safe to re-run.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := hubDir()
	if err != nil {
		return err
	}
	_, err = initHub(dir, os.Stdout)
	return err
}

// initHub creates dir, the central store and default files that are missing.
// It returns the files it created.
func initHub(dir string, w io.Writer) ([]string, error) {
	if err := os.MkdirAll(filepath.Join(dir, template.SkillsDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	var created []string
	for filename, content := range template.DefaultFiles() {
		path := filepath.Join(dir, filename)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", filename, err)
		}
		created = append(created, filename)
	}

	if len(created) == 0 {
		fmt.Fprintf(w, "%s is already initialized\n", dir)
		return nil, nil
	}
	fmt.Fprintf(w, "Initialized %s\n", dir)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintln(w, "  1. skillhub scan      # see skills already in your tools")
	fmt.Fprintln(w, "  2. skillhub import    # bring them into the central store")
	return created, nil
}
