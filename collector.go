package babylon

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/alitto/pond/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
)

// Collector runs the sheet processor over many message files and keeps the
// snapshot's file registry in step with the current set of files.
type Collector struct {
	loader    MessageLoader
	processor *SheetProcessor
	reader    SnapshotReader
	writer    SnapshotWriter
	namer     SheetNamer
	workers   int
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithWorkers sets how many message files are processed concurrently.
func WithWorkers(n int) CollectorOption {
	return func(c *Collector) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithSheetNamer replaces the default SheetName.
func WithSheetNamer(namer SheetNamer) CollectorOption {
	return func(c *Collector) {
		if namer != nil {
			c.namer = namer
		}
	}
}

// NewCollector wires a collector. The processor must read the same snapshot
// as reader.
func NewCollector(loader MessageLoader, processor *SheetProcessor, reader SnapshotReader, writer SnapshotWriter, opts ...CollectorOption) *Collector {
	c := &Collector{
		loader:    loader,
		processor: processor,
		reader:    reader,
		writer:    writer,
		namer:     SheetName,
		workers:   runtime.GOMAXPROCS(0),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type processedFile struct {
	content SheetContent
	stats   FileStats
}

// Collect produces one sheet per path, in the order of paths.
//
// All files are loaded and processed before the snapshot is touched: when any
// file fails, the returned error names every failing file and the snapshot is
// left unmodified. Afterwards each path is registered to obtain its sheet id
// and files no longer present are removed from the snapshot.
func (c *Collector) Collect(ctx context.Context, paths []string, langs []Language) (ExportResult, error) {
	ctx, span := tracer.Start(ctx, "babylon.collect",
		trace.WithAttributes(
			attribute.Int("babylon.files", len(paths)),
			attribute.StringSlice("babylon.languages", langs),
		),
	)
	defer span.End()

	var newPaths []string
	for _, p := range paths {
		if !c.reader.IncludesFile(p) {
			newPaths = append(newPaths, p)
		}
	}

	processed, err := c.processAll(ctx, paths, langs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "processing failed")
		return ExportResult{}, err
	}

	result := ExportResult{
		NewFilePaths: newPaths,
		Sheets:       make([]Sheet, 0, len(paths)),
		Stats:        make([]FileStats, 0, len(paths)),
	}
	for i, p := range paths {
		id, err := c.writer.RegisterFile(p)
		if err != nil {
			return ExportResult{}, fmt.Errorf("register %s: %w", p, err)
		}
		sheet := newTranslationSheet(c.namer(p, id), processed[i].content)
		result.Sheets = append(result.Sheets, sheet)
		result.Stats = append(result.Stats, processed[i].stats)
		LogDebug("%s", processed[i].stats)
		LogInfo("%s", Msg("rows_gathered", map[string]any{"Rows": processed[i].stats.Rows, "Path": p}))
	}

	obsolete := obsoletePaths(c.reader.ListFiles(), paths)
	if len(obsolete) > 0 {
		if err := c.writer.RemoveFiles(obsolete); err != nil {
			return ExportResult{}, fmt.Errorf("remove obsolete files: %w", err)
		}
		LogInfo("%s", Msg("obsolete_removed", map[string]any{"Count": len(obsolete)}))
	}

	span.SetAttributes(
		attribute.Int("babylon.new_files", len(newPaths)),
		attribute.Int("babylon.removed_files", len(obsolete)),
		attribute.Int("babylon.rows", result.TotalRows()),
	)
	return result, nil
}

// processAll loads and processes every path on a worker pool. The result is
// indexed like paths.
func (c *Collector) processAll(ctx context.Context, paths []string, langs []Language) ([]processedFile, error) {
	out := make([]processedFile, len(paths))

	pool := pond.NewPool(c.workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	var (
		mu   sync.Mutex
		errs error
	)
	group := pool.NewGroup()
	for i, p := range paths {
		group.Submit(func() {
			pf, err := c.processFile(ctx, p, langs)
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", p, err))
				mu.Unlock()
				return
			}
			out[i] = pf
		})
	}
	if err := group.Wait(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

func (c *Collector) processFile(ctx context.Context, path string, langs []Language) (processedFile, error) {
	ctx, span := tracer.Start(ctx, "babylon.process_file",
		trace.WithAttributes(attribute.String("babylon.path", path)))
	defer span.End()

	primary, err := c.loader.LoadPrimary(ctx, path)
	if err != nil {
		span.RecordError(err)
		return processedFile{}, err
	}
	translations, err := c.loader.LoadTranslations(ctx, path, langs)
	if err != nil {
		span.RecordError(err)
		return processedFile{}, err
	}

	content, stats := c.processor.PrepareSheet(path, primary, translations, langs)
	span.SetAttributes(
		attribute.Int("babylon.new", stats.New),
		attribute.Int("babylon.changed", stats.Changed),
		attribute.Int("babylon.missing", stats.MissingTranslation),
		attribute.Int("babylon.rows", stats.Rows),
	)
	return processedFile{content: content, stats: stats}, nil
}

func newTranslationSheet(name string, content SheetContent) Sheet {
	rows := make([]Row, 0, 1+len(content.DataRows))
	rows = append(rows, toRow(content.Header))
	rows = append(rows, content.DataRows...)
	return Sheet{Name: name, Rows: rows}
}

// obsoletePaths returns known paths absent from current.
func obsoletePaths(known, current []string) []string {
	present := make(map[string]struct{}, len(current))
	for _, p := range current {
		present[p] = struct{}{}
	}
	var out []string
	for _, p := range known {
		if _, ok := present[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
