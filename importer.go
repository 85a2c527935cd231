package babylon

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnknownSheet is returned when a sheet id is not in the snapshot.
var ErrUnknownSheet = errors.New("sheet does not belong to any known message file")

// ImportedFile is the outcome for one message file.
type ImportedFile struct {
	Path         string           `json:"path"`
	Translations map[Language]int `json:"translations"`
}

// Total returns the number of translations written for the file.
func (f ImportedFile) Total() int {
	n := 0
	for _, c := range f.Translations {
		n += c
	}
	return n
}

// ImportReport describes a finished import.
type ImportReport struct {
	Files   []ImportedFile `json:"files"`
	Skipped []string       `json:"skipped,omitempty"`
	Run     Run            `json:"run"`
}

// Translations returns the number of translations written.
func (r ImportReport) Translations() int {
	n := 0
	for _, f := range r.Files {
		n += f.Total()
	}
	return n
}

// Importer writes translated workbook cells back into translation files.
type Importer struct {
	dir string
	cfg *ProjectConfig
	fs  afero.Fs
}

// NewImporter returns an importer for the project rooted at dir.
func NewImporter(dir string, cfg *ProjectConfig) *Importer {
	return &Importer{dir: dir, cfg: cfg, fs: afero.NewBasePathFs(afero.NewOsFs(), dir)}
}

// sheetImport gathers the cells of every sheet that maps to one file.
type sheetImport struct {
	path         string
	primary      []primaryCell
	translations map[Language]map[MessageKey]string
	langs        []Language
}

type primaryCell struct {
	key   MessageKey
	value *string
}

// Import reads the workbook at workbookPath and merges its translations into
// the translation files. Every sheet is validated and every file is loaded
// and merged before the first file is written.
func (im *Importer) Import(ctx context.Context, workbookPath string) (report ImportReport, err error) {
	ctx, span := tracer.Start(ctx, "babylon.import",
		trace.WithAttributes(attribute.String("babylon.workbook", workbookPath)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "import failed")
		}
		span.End()
	}()

	sheets, err := ReadWorkbook(workbookPath)
	if err != nil {
		return ImportReport{}, err
	}

	store, err := OpenSnapshotStore(ctx, Resolve(im.dir, im.cfg.Snapshot))
	if err != nil {
		return ImportReport{}, err
	}
	defer store.Close()

	snap, err := store.Load(ctx)
	if err != nil {
		return ImportReport{}, err
	}

	imports, skipped, err := collectSheetImports(snap, sheets)
	if err != nil {
		return ImportReport{}, err
	}
	report.Skipped = skipped

	loader := NewFileLoader(im.fs)
	plans := make([]filePlan, 0, len(imports))
	for _, si := range imports {
		plan, err := im.planFile(ctx, loader, si)
		if err != nil {
			return ImportReport{}, fmt.Errorf("%s: %w", si.path, err)
		}
		plans = append(plans, plan)
	}

	for i, plan := range plans {
		for _, w := range plan.writes {
			if err := loader.WriteMessages(w.path, w.msgs); err != nil {
				return ImportReport{}, fmt.Errorf("%s: %w", plan.file.Path, err)
			}
		}
		for _, pc := range imports[i].primary {
			if pc.value != nil {
				snap.RecordMessage(plan.file.Path, pc.key, pc.value)
			}
		}
		report.Files = append(report.Files, plan.file)
		LogInfo("%s", Msg("import_file", map[string]any{"Path": plan.file.Path, "Count": plan.file.Total()}))
	}

	report.Run = NewRun(RunImport)
	report.Run.Files = len(report.Files)
	report.Run.Rows = report.Translations()
	if err := store.Save(ctx, snap, report.Run); err != nil {
		return ImportReport{}, fmt.Errorf("save snapshot: %w", err)
	}
	recordImportMetrics(ctx, report.Run.Files, report.Run.Rows)

	LogOK("%s", Msg("import_done", map[string]any{"Files": report.Run.Files, "Translations": report.Run.Rows}))
	span.SetAttributes(attribute.Int("babylon.translations", report.Run.Rows))
	return report, nil
}

// collectSheetImports maps sheets to message files. Sheets without an id are
// skipped; an id unknown to the snapshot fails the whole import.
func collectSheetImports(snap *Snapshot, sheets []Sheet) ([]*sheetImport, []string, error) {
	var (
		order   []*sheetImport
		byPath  = make(map[string]*sheetImport)
		skipped []string
	)
	for _, s := range sheets {
		if s.Name == CombinedSheetName {
			skipped = append(skipped, s.Name)
			LogWarn("%s", Msg("import_skipped", map[string]any{"Sheet": s.Name}))
			continue
		}
		id, err := ParseSheetID(s.Name)
		if err != nil {
			skipped = append(skipped, s.Name)
			LogWarn("%s", Msg("import_skipped", map[string]any{"Sheet": s.Name}))
			continue
		}
		path, ok := snap.FileByID(id)
		if !ok {
			return nil, nil, fmt.Errorf("%s: %w", s.Name, ErrUnknownSheet)
		}
		si, ok := byPath[path]
		if !ok {
			si = &sheetImport{path: path, translations: make(map[Language]map[MessageKey]string)}
			byPath[path] = si
			order = append(order, si)
		}
		si.add(s)
	}
	return order, skipped, nil
}

func (si *sheetImport) add(s Sheet) {
	header := s.Header()
	if len(header) < 2 {
		return
	}
	langs := header[2:]
	for _, row := range s.DataRows() {
		key := row.Key()
		if key == "" {
			continue
		}
		var primary *string
		if len(row) > 1 {
			primary = row[1]
		}
		si.primary = append(si.primary, primaryCell{key: key, value: primary})
		for i, lang := range langs {
			if lang == nil || *lang == "" || len(row) <= i+2 || row[i+2] == nil {
				continue
			}
			vals, ok := si.translations[*lang]
			if !ok {
				vals = make(map[MessageKey]string)
				si.translations[*lang] = vals
				si.langs = append(si.langs, *lang)
			}
			vals[key] = *row[i+2]
		}
	}
}

// filePlan holds the merged translation files of one message file, ready
// to be written.
type filePlan struct {
	file   ImportedFile
	writes []pendingWrite
}

type pendingWrite struct {
	path string
	msgs *Messages
}

// planFile loads and merges everything for si without touching the disk.
func (im *Importer) planFile(ctx context.Context, loader *FileLoader, si *sheetImport) (filePlan, error) {
	primary, err := loader.LoadPrimary(ctx, si.path)
	if err != nil {
		return filePlan{}, err
	}
	plan := filePlan{file: ImportedFile{Path: si.path, Translations: make(map[Language]int)}}
	for _, lang := range si.langs {
		existing, err := loader.LoadTranslation(ctx, si.path, lang)
		if err != nil {
			return filePlan{}, fmt.Errorf("translation %s: %w", lang, err)
		}
		vals := si.translations[lang]
		plan.writes = append(plan.writes, pendingWrite{
			path: TranslationPath(si.path, lang),
			msgs: mergeTranslations(primary, existing, vals),
		})
		plan.file.Translations[lang] = len(vals)
	}
	return plan, nil
}

// mergeTranslations lays translations out in primary order: the sheet value
// wins, then the existing translation. Keys only found in the existing file
// or the sheet follow, in that order. Absent messages are dropped.
func mergeTranslations(primary, existing *Messages, sheet map[MessageKey]string) *Messages {
	out := NewMessages()
	put := func(k MessageKey) {
		if out.Has(k) {
			return
		}
		if v, ok := sheet[k]; ok {
			out.Set(k, v)
			return
		}
		if v, ok := existing.Get(k); ok && v != nil {
			out.Put(k, v)
		}
	}
	for _, k := range primary.Keys() {
		put(k)
	}
	for _, k := range existing.Keys() {
		put(k)
	}
	rest := make([]MessageKey, 0, len(sheet))
	for k := range sheet {
		if !out.Has(k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	for _, k := range rest {
		put(k)
	}
	return out
}
