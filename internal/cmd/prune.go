package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hironow/babylon"
	"github.com/spf13/cobra"
)

func newPruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune [project-dir]",
		Short: "Prune old run history from the snapshot",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			if days <= 0 {
				return fmt.Errorf("--days must be positive, got %d", days)
			}
			return nil
		},
		RunE: runPrune,
	}

	cmd.Flags().Int("days", 90, "Number of days threshold")
	cmd.Flags().Bool("execute", false, "Execute deletion (dry-run by default)")

	return cmd
}

func runPrune(cmd *cobra.Command, args []string) error {
	dir, cfg, err := loadProject(cmd, args)
	if err != nil {
		return err
	}
	days, _ := cmd.Flags().GetInt("days")
	execute, _ := cmd.Flags().GetBool("execute")
	outputFmt, _ := cmd.Flags().GetString("output")
	ctx := commandContext(cmd)

	store, err := babylon.OpenSnapshotStore(ctx, babylon.Resolve(dir, cfg.Snapshot))
	if err != nil {
		return err
	}
	defer store.Close()

	before := time.Now().AddDate(0, 0, -days)
	candidates, err := store.RunsBefore(ctx, before)
	if err != nil {
		return err
	}
	deleted := 0
	if execute && len(candidates) > 0 {
		if deleted, err = store.DeleteRunsBefore(ctx, before); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if outputFmt == "json" {
		ids := make([]string, 0, len(candidates))
		for _, r := range candidates {
			ids = append(ids, r.ID)
		}
		out := struct {
			Candidates int      `json:"candidates"`
			Deleted    int      `json:"deleted"`
			Runs       []string `json:"runs"`
		}{len(candidates), deleted, ids}
		data, err := json.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	// text output
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No runs older than", days, "days.")
		return nil
	}
	if execute {
		fmt.Fprintf(w, "Deleted %d run(s):\n", deleted)
	} else {
		fmt.Fprintf(w, "Runs older than %d days (%d run(s), dry-run):\n", days, len(candidates))
	}
	for _, r := range candidates {
		fmt.Fprintf(w, "  %s  %-6s %s\n", r.StartedAt.Local().Format(time.DateTime), r.Kind, r.ID)
	}
	if !execute {
		fmt.Fprintln(w, "\nRun with --execute to delete.")
	}
	return nil
}
