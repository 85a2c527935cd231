package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// Commit and Date are set at build time via -ldflags.
var (
	Commit = "none"
	Date   = "unknown"
)

func newVersionCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Show the babylon version, commit and build date set at build time via ldflags.",
		Example: `  # Show version
  babylon version

  # Machine-readable
  babylon version -j`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ver := "v" + strings.TrimPrefix(Version, "v")
			if jsonOut {
				data, err := json.Marshal(map[string]string{
					"version": Version,
					"commit":  Commit,
					"date":    Date,
					"go":      runtime.Version(),
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "babylon %s (commit: %s, date: %s, go: %s)\n", ver, Commit, Date, runtime.Version())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOut, "json", "j", false, "Print version information as JSON")

	return cmd
}
