package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hironow/babylon"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [project-dir]",
		Short: "Export messages that need translating into a workbook",
		Long: `Export every message that is new, changed since the last import, or
missing a translation into the configured workbook, one sheet per
message file. The snapshot is updated only after the workbook is written.`,
		Example: `  # Export the current project
  babylon export

  # Preview without writing anything
  babylon export ./app --dry-run -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExport,
	}

	cmd.Flags().Bool("dry-run", false, "Compute sheets without writing workbook or snapshot")
	cmd.Flags().Bool("combine", false, "Write all rows into a single ALL sheet")
	cmd.Flags().Int("workers", 0, "Message files processed concurrently (0 = GOMAXPROCS)")
	cmd.Flags().String("workbook", "", "Workbook path (overrides config)")

	return cmd
}

// initTelemetry starts tracing and metrics and returns their shutdown.
func initTelemetry() func() {
	shutdownTracer := babylon.InitTracer("babylon", Version)
	shutdownMeter := babylon.InitMeter("babylon", Version)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownTracer(ctx)
		shutdownMeter(ctx)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	// Use command's context (set by ExecuteContext in main)
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runExport(cmd *cobra.Command, args []string) error {
	dir, cfg, err := loadProject(cmd, args)
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	outputFmt, _ := cmd.Flags().GetString("output")

	defer initTelemetry()()

	notifier, err := notifierFor(dir, cfg)
	if err != nil {
		return err
	}

	exporter := babylon.NewExporter(dir, cfg, notifier)
	report, err := exporter.Export(commandContext(cmd), babylon.ExportOptions{DryRun: dryRun})
	if err != nil {
		return err
	}
	return printExportReport(cmd.OutOrStdout(), outputFmt, report)
}

func notifierFor(dir string, cfg *babylon.ProjectConfig) (babylon.Notifier, error) {
	secrets, err := babylon.LoadSecrets(dir)
	if err != nil {
		return nil, configError(err)
	}
	n, err := babylon.NotifierFromConfig(cfg.Notify, secrets)
	if err != nil {
		return nil, configError(err)
	}
	return n, nil
}

func printExportReport(w io.Writer, outputFmt string, report babylon.ExportReport) error {
	if outputFmt == "json" {
		out := struct {
			Workbook  string              `json:"workbook"`
			Written   bool                `json:"written"`
			DryRun    bool                `json:"dry_run"`
			NewFiles  []string            `json:"new_files"`
			Rows      int                 `json:"rows"`
			Prefilled int                 `json:"prefilled"`
			Files     []babylon.FileStats `json:"files"`
			Run       string              `json:"run,omitempty"`
		}{
			Workbook:  report.WorkbookPath,
			Written:   report.Written,
			DryRun:    report.DryRun,
			NewFiles:  report.Result.NewFilePaths,
			Rows:      report.Result.TotalRows(),
			Prefilled: report.Prefilled,
			Files:     report.Result.Stats,
		}
		if !report.DryRun {
			out.Run = report.Run.ID
		}
		if out.NewFiles == nil {
			out.NewFiles = []string{}
		}
		data, err := json.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	// text output
	for _, st := range report.Result.Stats {
		if st.Rows == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-40s new=%d changed=%d missing=%d rows=%d\n",
			st.Path, st.New, st.Changed, st.MissingTranslation, st.Rows)
	}
	fmt.Fprintf(w, "%d row(s) in %d file(s)\n", report.Result.TotalRows(), len(report.Result.Stats))
	return nil
}
