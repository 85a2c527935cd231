package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/hironow/babylon"
	"github.com/spf13/cobra"
)

// projectDir returns the absolute project directory named by the optional
// first positional argument.
func projectDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	return abs, nil
}

// loadProject reads and validates the project config. Configuration errors
// exit with code 2.
func loadProject(cmd *cobra.Command, args []string) (string, *babylon.ProjectConfig, error) {
	dir, err := projectDir(args)
	if err != nil {
		return "", nil, err
	}

	path := babylon.ProjectConfigPath(dir)
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		path = p
	}
	cfg, err := babylon.LoadProjectConfigFile(path)
	if err != nil {
		return "", nil, configError(err)
	}

	if cmd.Flags().Lookup("workers") != nil && cmd.Flags().Changed("workers") {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Lookup("combine") != nil && cmd.Flags().Changed("combine") {
		cfg.CombineSheets, _ = cmd.Flags().GetBool("combine")
	}
	if cmd.Flags().Lookup("workbook") != nil && cmd.Flags().Changed("workbook") {
		cfg.Workbook, _ = cmd.Flags().GetString("workbook")
	}

	if err := cfg.Validate(); err != nil {
		return "", nil, configError(fmt.Errorf("%s: %w", path, err))
	}
	return dir, cfg, nil
}
