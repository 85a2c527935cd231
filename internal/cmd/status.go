package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hironow/babylon"
	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [project-dir]",
		Short: "Show tracked message files and recent runs",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			return nil
		},
		RunE: runStatus,
	}

	cmd.Flags().IntP("limit", "n", 10, "Number of runs to show")

	return cmd
}

type statusFile struct {
	Path     string `json:"path"`
	Sheet    int    `json:"sheet"`
	Messages int    `json:"messages"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir, cfg, err := loadProject(cmd, args)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	outputFmt, _ := cmd.Flags().GetString("output")
	ctx := commandContext(cmd)

	store, err := babylon.OpenSnapshotStore(ctx, babylon.Resolve(dir, cfg.Snapshot))
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Load(ctx)
	if err != nil {
		return err
	}
	runs, err := store.Runs(ctx, limit)
	if err != nil {
		return err
	}

	files := make([]statusFile, 0)
	for _, p := range snap.ListFiles() {
		f, _ := snap.File(p)
		files = append(files, statusFile{Path: p, Sheet: f.ID, Messages: f.Messages.Len()})
	}

	w := cmd.OutOrStdout()
	if outputFmt == "json" {
		if runs == nil {
			runs = []babylon.Run{}
		}
		out := struct {
			Languages []babylon.Language `json:"languages"`
			Files     []statusFile       `json:"files"`
			Runs      []babylon.Run      `json:"runs"`
		}{cfg.Languages, files, runs}
		data, err := json.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	// text output
	fmt.Fprintf(w, "Languages: %v\n", cfg.Languages)
	fmt.Fprintf(w, "Files (%d):\n", len(files))
	for _, f := range files {
		fmt.Fprintf(w, "  #%-4d %-40s %d message(s)\n", f.Sheet, f.Path, f.Messages)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, babylon.Msg("no_runs"))
		return nil
	}
	fmt.Fprintln(w, "Runs:")
	for _, r := range runs {
		fmt.Fprintf(w, "  %s  %-6s files=%d rows=%d new=%d  %s\n",
			r.StartedAt.Local().Format(time.DateTime), r.Kind, r.Files, r.Rows, r.NewFiles, r.ID)
	}
	return nil
}
