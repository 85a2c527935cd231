package cmd

import (
	"fmt"

	"github.com/hironow/babylon"
	"github.com/spf13/cobra"
)

func newDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor [project-dir]",
		Short: "Check that the project can be exported",
		Long: `Check the project configuration and environment.

Verifies: target languages, that every pattern matches a supported
message file, that the snapshot database opens and migrates, that the
workbook directory is writable, and that enabled notification
channels have credentials.`,
		Example: `  # Check the current project
  babylon doctor

  # Machine-readable output
  babylon doctor ./app -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	dir, err := projectDir(args)
	if err != nil {
		return err
	}
	path := babylon.ProjectConfigPath(dir)
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		path = p
	}
	cfg, err := babylon.LoadProjectConfigFile(path)
	if err != nil {
		return configError(err)
	}
	outputFmt, _ := cmd.Flags().GetString("output")

	checks := babylon.RunDoctor(commandContext(cmd), dir, cfg)
	passed := babylon.DoctorPassed(checks)

	if outputFmt == "json" {
		out, err := babylon.FormatDoctorJSON(checks)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		if !passed {
			return babylon.ErrDoctorFailed
		}
		return nil
	}

	// text output
	w := cmd.ErrOrStderr()
	fmt.Fprintln(w)
	for _, c := range checks {
		switch {
		case c.OK:
			fmt.Fprintf(w, "  ✓  %-10s %s\n", c.Name, c.Detail)
		case c.Required:
			fmt.Fprintf(w, "  ✗  %-10s %s (required)\n", c.Name, c.Detail)
		default:
			fmt.Fprintf(w, "  -  %-10s %s (optional)\n", c.Name, c.Detail)
		}
	}
	fmt.Fprintln(w)

	if !passed {
		return babylon.ErrDoctorFailed
	}
	fmt.Fprintln(w, "All checks passed.")
	return nil
}
