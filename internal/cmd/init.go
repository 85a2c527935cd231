package cmd

import (
	"fmt"
	"os"

	"github.com/hironow/babylon"
	"github.com/spf13/cobra"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <project-dir>",
		Short: "Initialize project configuration",
		Long: `Initialize a .babylon/ directory in the target project.

Creates config.yaml with the target languages and message file
patterns. The snapshot and workbook are written next to it by
'babylon export'.`,
		Example: `  # Initialize a project translated into Czech and Slovak
  babylon init ./app --languages cz,sk

  # Track YAML message files too
  babylon init ./app -L de -p 'i18n/**/*.properties' -p 'config/**/*.yaml'`,
		Args: cobra.ExactArgs(1),
		RunE: runInit,
	}

	cmd.Flags().StringSliceP("languages", "L", nil, "Target languages, comma-separated")
	cmd.Flags().StringArrayP("pattern", "p", nil, "Message file glob, relative to the project (repeatable)")
	cmd.Flags().Bool("force", false, "Overwrite an existing config")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := projectDir(args)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("project directory: %w", err)
	}
	force, _ := cmd.Flags().GetBool("force")

	path := babylon.ProjectConfigPath(dir)
	if _, err := os.Stat(path); err == nil && !force {
		return configError(fmt.Errorf("%s", babylon.Msg("config_exists", map[string]any{"Path": path})))
	}

	cfg := babylon.DefaultProjectConfig()
	cfg.Languages, _ = cmd.Flags().GetStringSlice("languages")
	if patterns, _ := cmd.Flags().GetStringArray("pattern"); len(patterns) > 0 {
		cfg.Patterns = patterns
	}
	if err := cfg.Validate(); err != nil {
		return configError(err)
	}

	if err := babylon.SaveProjectConfig(dir, cfg); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), babylon.Msg("config_created", map[string]any{"Path": path}))
	return nil
}
