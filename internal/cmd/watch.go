package cmd

import (
	"context"
	"errors"

	"github.com/hironow/babylon"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [project-dir]",
		Short: "Re-export whenever a message file changes",
		Long: `Export once, then watch the directories of all matched message files
and export again after each change. Stops on SIGINT or SIGTERM.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().Bool("combine", false, "Write all rows into a single ALL sheet")
	cmd.Flags().Int("workers", 0, "Message files processed concurrently (0 = GOMAXPROCS)")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir, cfg, err := loadProject(cmd, args)
	if err != nil {
		return err
	}

	defer initTelemetry()()

	notifier, err := notifierFor(dir, cfg)
	if err != nil {
		return err
	}
	exporter := babylon.NewExporter(dir, cfg, notifier)
	ctx := commandContext(cmd)

	export := func() {
		if _, err := exporter.Export(ctx, babylon.ExportOptions{}); err != nil && !errors.Is(err, context.Canceled) {
			babylon.LogError("%v", err)
		}
	}
	export()

	paths, err := babylon.ExpandPaths(afero.NewBasePathFs(afero.NewOsFs(), dir), cfg.Patterns, cfg.Languages)
	if err != nil {
		return err
	}
	dirs := babylon.WatchDirs(dir, paths)
	babylon.LogInfo("%s", babylon.Msg("watch_started", map[string]any{"Count": len(dirs)}))

	err = babylon.Watch(ctx, dirs, func(path string) {
		babylon.LogInfo("%s", babylon.Msg("watch_change", map[string]any{"Path": path}))
		export()
	}, nil)
	if ctx.Err() != nil {
		babylon.LogWarn("%s", babylon.Msg("signal_received", map[string]any{"Signal": context.Cause(ctx)}))
	}
	return err
}
