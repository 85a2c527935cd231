package cmd

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// releaseSlug is the GitHub repository babylon releases are published to.
const releaseSlug = "hironow/babylon"

type releaseState int

const (
	releaseUnknown releaseState = iota
	releaseCurrent
	releaseNewer
)

// releaseStatus compares the running version with the latest release.
// Local builds ("dev") are not semver and compare as unknown.
func releaseStatus(current, latest string) releaseState {
	cur, err := semver.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		return releaseUnknown
	}
	rel, err := semver.NewVersion(strings.TrimPrefix(latest, "v"))
	if err != nil {
		return releaseUnknown
	}
	if rel.GreaterThan(cur) {
		return releaseNewer
	}
	return releaseCurrent
}

func newUpdateCommand() *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Self-update babylon to the latest release",
		Long: `Self-update babylon to the latest GitHub release.

Downloads the latest release, verifies the checksum, and replaces
the current binary. Use --check to only check for updates without
installing.`,
		Example: `  # Check for updates
  babylon update --check

  # Update to the latest version
  babylon update`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			updater, err := selfupdate.NewUpdater(selfupdate.Config{
				Validator: &selfupdate.ChecksumValidator{UniqueFilename: "checksums.txt"},
			})
			if err != nil {
				return fmt.Errorf("failed to create updater: %w", err)
			}

			latest, found, err := updater.DetectLatest(cmd.Context(), selfupdate.ParseSlug(releaseSlug))
			if err != nil {
				return fmt.Errorf("failed to detect latest version: %w", err)
			}
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), "No release found.")
				return nil
			}

			ver := strings.TrimPrefix(Version, "v")
			switch releaseStatus(Version, latest.Version()) {
			case releaseUnknown:
				fmt.Fprintf(cmd.OutOrStdout(), "Development build (version %q), cannot compare versions.\nLatest release: v%s\n", Version, latest.Version())
				return nil
			case releaseCurrent:
				fmt.Fprintf(cmd.OutOrStdout(), "Already up to date (v%s).\n", ver)
				return nil
			}

			if checkOnly {
				fmt.Fprintf(cmd.OutOrStdout(), "Update available: v%s → v%s\n", ver, latest.Version())
				return nil
			}

			exe, err := selfupdate.ExecutablePath()
			if err != nil {
				return fmt.Errorf("failed to locate executable: %w", err)
			}

			if err := updater.UpdateTo(cmd.Context(), latest, exe); err != nil {
				return fmt.Errorf("update failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated to v%s\n", latest.Version())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&checkOnly, "check", "C", false, "Check for updates without installing")

	return cmd
}
