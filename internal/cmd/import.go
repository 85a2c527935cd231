package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/hironow/babylon"
	"github.com/spf13/cobra"
)

func newImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [project-dir]",
		Short: "Import a translated workbook into translation files",
		Long: `Import the translations of every sheet of the workbook back into the
translation files of the message file the sheet was exported from.

Sheets are matched to files by the id after '#' in the sheet name.
Sheets without an id, including the combined ALL sheet, are skipped.`,
		Example: `  # Import the configured workbook
  babylon import

  # Import a workbook returned by translators
  babylon import ./app --workbook ~/Downloads/translations.xlsx`,
		Args: cobra.MaximumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("workbook", "", "Workbook path (overrides config)")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	dir, cfg, err := loadProject(cmd, args)
	if err != nil {
		return err
	}
	outputFmt, _ := cmd.Flags().GetString("output")

	defer initTelemetry()()

	report, err := babylon.NewImporter(dir, cfg).Import(commandContext(cmd), babylon.Resolve(dir, cfg.Workbook))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputFmt == "json" {
		data, err := json.Marshal(report)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	// text output
	for _, f := range report.Files {
		fmt.Fprintf(w, "  %-40s %d translation(s)\n", f.Path, f.Total())
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(w, "  skipped sheet %s\n", s)
	}
	return nil
}
