package babylon

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ExportOptions tweaks a single export.
type ExportOptions struct {
	// DryRun computes the sheets but writes neither workbook nor snapshot.
	DryRun bool
}

// ExportReport describes a finished export.
type ExportReport struct {
	Result       ExportResult
	Run          Run
	WorkbookPath string
	// Written is false when nothing needed translating or on a dry run.
	Written bool
	DryRun  bool
	// Prefilled counts translation cells filled by the translator.
	Prefilled int
}

// Exporter turns the project's message files into a translation workbook.
type Exporter struct {
	dir      string
	cfg      *ProjectConfig
	fs         afero.Fs
	notifier   Notifier
	translator Translator
}

// NewExporter returns an exporter for the project rooted at dir. A nil
// notifier disables notifications.
func NewExporter(dir string, cfg *ProjectConfig, notifier Notifier) *Exporter {
	if notifier == nil {
		notifier = &NopNotifier{}
	}
	return &Exporter{
		dir:        dir,
		cfg:        cfg,
		fs:         afero.NewBasePathFs(afero.NewOsFs(), dir),
		notifier:   notifier,
		translator: TranslatorFromConfig(cfg.Translator),
	}
}

// WithTranslator replaces the translator taken from the project config.
func (e *Exporter) WithTranslator(t Translator) *Exporter {
	if t == nil {
		t = NopTranslator{}
	}
	e.translator = t
	return e
}

// Export collects sheets for every configured message file and writes the
// workbook, then persists the snapshot. The stored snapshot only changes
// after the workbook is on disk.
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (report ExportReport, err error) {
	ctx, span := tracer.Start(ctx, "babylon.export",
		trace.WithAttributes(attribute.Bool("babylon.dry_run", opts.DryRun)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "export failed")
		}
		span.End()
	}()

	paths, err := ExpandPaths(e.fs, e.cfg.Patterns, e.cfg.Languages)
	if err != nil {
		return ExportReport{}, err
	}

	store, err := OpenSnapshotStore(ctx, Resolve(e.dir, e.cfg.Snapshot))
	if err != nil {
		return ExportReport{}, err
	}
	defer store.Close()

	snap, err := store.Load(ctx)
	if err != nil {
		return ExportReport{}, err
	}

	collector := NewCollector(NewFileLoader(e.fs), NewSheetProcessor(snap), snap, snap, WithWorkers(e.cfg.Workers))
	result, err := collector.Collect(ctx, paths, e.cfg.Languages)
	if err != nil {
		return ExportReport{}, err
	}
	if n := len(result.NewFilePaths); n > 0 {
		LogInfo("%s", Msg("new_files_found", map[string]any{"Count": n}))
	}

	report = ExportReport{
		Result:       result,
		WorkbookPath: Resolve(e.dir, e.cfg.Workbook),
		DryRun:       opts.DryRun,
	}
	report.Run = NewRun(RunExport)
	report.Run.Files = len(paths)
	report.Run.Rows = result.TotalRows()
	report.Run.NewFiles = len(result.NewFilePaths)

	if opts.DryRun {
		LogInfo("%s", Msg("dry_run"))
		return report, nil
	}

	sheets := result.Sheets
	if e.cfg.CombineSheets {
		sheets = CombineSheets(sheets)
	}
	filled := Pretranslate(ctx, e.translator, e.cfg.Translator.Source, sheets)
	for _, refs := range filled {
		report.Prefilled += len(refs)
	}
	if report.Prefilled > 0 {
		LogInfo("%s", Msg("pretranslated", map[string]any{"Count": report.Prefilled}))
	}

	wopts := WorkbookOptions{IncludeEmpty: e.cfg.IncludeEmpty, Highlight: filled}
	switch err := WriteWorkbook(report.WorkbookPath, sheets, wopts); {
	case errors.Is(err, ErrNothingToExport):
		LogOK("%s", Msg("nothing_to_export"))
	case err != nil:
		return ExportReport{}, fmt.Errorf("write workbook: %w", err)
	default:
		report.Written = true
		LogOK("%s", Msg("workbook_written", map[string]any{
			"Path": report.WorkbookPath, "Sheets": len(sheets), "Rows": report.Run.Rows,
		}))
	}

	if err := store.Save(ctx, snap, report.Run); err != nil {
		return ExportReport{}, fmt.Errorf("save snapshot: %w", err)
	}
	recordExportMetrics(ctx, result)

	if report.Written {
		msg := Msg("export_summary", map[string]any{
			"Rows": report.Run.Rows, "Sheets": len(sheets), "Path": report.WorkbookPath,
		})
		if err := e.notifier.Notify(ctx, "babylon", msg); err != nil {
			LogWarn("%s", Msg("notify_failed", map[string]any{"Error": err}))
		}
	}
	return report, nil
}
