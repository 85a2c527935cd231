package cmd

import (
	"github.com/hironow/babylon"
	"github.com/spf13/cobra"
)

func init() {
	cobra.EnableTraverseRunHooks = true
}

// NewRootCommand creates and returns the root cobra command for babylon.
// Exported for testability (SetArgs/SetOut) and docgen.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "babylon",
		Short: "Translation workbook exporter for message files",
		Long: `babylon exports the messages that need translating into a workbook
and imports the translated workbook back into translation files.

Only new keys, keys whose primary text changed since the last import,
and keys missing a translation end up in the workbook.`,
		Version: Version,
		// Silence usage on RunE errors (cobra prints usage by default on error)
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")
			babylon.SetLang(lang)

			verbose, _ := cmd.Flags().GetBool("verbose")
			babylon.SetVerbose(verbose)

			if logFile, _ := cmd.Flags().GetString("log-file"); logFile != "" {
				if err := babylon.InitLogFile(logFile); err != nil {
					return err
				}
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			babylon.CloseLogFile()
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "text", "Output format: text, json")
	rootCmd.PersistentFlags().StringP("lang", "l", "en", "Output language: en, ja, fr")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default <project-dir>/.babylon/config.yaml)")
	rootCmd.PersistentFlags().String("log-file", "", "Also write JSON log lines to this file")

	rootCmd.AddCommand(
		newExportCommand(),
		newImportCommand(),
		newStatusCommand(),
		newWatchCommand(),
		newInitCommand(),
		newDoctorCommand(),
		newPruneCommand(),
		newVersionCommand(),
		newUpdateCommand(),
	)

	return rootCmd
}
