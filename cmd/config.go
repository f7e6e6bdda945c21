package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jywlabs/skillhub/internal/config"
	"github.com/jywlabs/skillhub/internal/template"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Long: `Show the resolved skillhub configuration.

Values come from ~/.skillhub/config.yaml when present, then from
SKILLHUB_DATABASE, SKILLHUB_LOG_LEVEL and GITHUB_TOKEN (also read from
.env files). Unset keys use the defaults.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	configPath := filepath.Join(cfg.HubDir, template.ConfigFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("No %s found (using defaults)\n", configPath)
		fmt.Println("Run 'skillhub init' to create a configuration file.")
	} else {
		fmt.Printf("Configuration (%s):\n", configPath)
	}
	fmt.Println()
	printConfig(os.Stdout, cfg)
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	token := "not set"
	if cfg.Git.Token != "" {
		token = "set"
	}
	rows := [][2]string{
		{"home", cfg.Home},
		{"centralDir", cfg.CentralDir},
		{"database", cfg.Database},
		{"logLevel", cfg.LogLevel},
		{"linkMode", cfg.LinkMode},
		{"ignore", strings.Join(cfg.Ignore, ", ")},
		{"git.timeout", cfg.Git.Timeout.String()},
		{"git.depth", fmt.Sprint(cfg.Git.Depth)},
		{"git.maxRetries", fmt.Sprint(cfg.Git.MaxRetries)},
		{"git.retryDelay", cfg.Git.RetryDelay.String()},
		{"git.cacheTTL", cfg.Git.CacheTTL.String()},
		{"GITHUB_TOKEN", token},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-15s %s\n", r[0]+":", r[1])
	}
}
