package babylon

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Header cells of every translation sheet.
const (
	ColKey     = "key"
	ColPrimary = "primary"
)

// CombinedSheetName names the single sheet produced when sheets are combined.
const CombinedSheetName = "ALL"

// maxSheetNameLen is the workbook limit on sheet name length.
const maxSheetNameLen = 31

// Row is one sheet row: [key, primary, translation...] or the degenerate [key].
// A nil cell is blank.
type Row []*string

// Key returns the message key of the row (first cell).
func (r Row) Key() string {
	if len(r) == 0 || r[0] == nil {
		return ""
	}
	return *r[0]
}

// Strings returns the row cells with blanks as empty strings.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, c := range r {
		if c != nil {
			out[i] = *c
		}
	}
	return out
}

// NewRow builds a row from a key, a primary message and translation cells.
func NewRow(key MessageKey, primary *string, cells ...*string) Row {
	row := make(Row, 0, 2+len(cells))
	row = append(row, Text(key), primary)
	return append(row, cells...)
}

// SheetContent is what the sheet processor produces for one message file.
type SheetContent struct {
	Header   []string
	DataRows []Row
}

// Sheet is a named translation sheet. Rows[0] is the header.
type Sheet struct {
	Name string
	Rows []Row
}

// Header returns the header row, or nil for a sheet without rows.
func (s Sheet) Header() Row {
	if len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0]
}

// DataRows returns all rows after the header.
func (s Sheet) DataRows() []Row {
	if len(s.Rows) < 2 {
		return nil
	}
	return s.Rows[1:]
}

// FileStats summarises the sheet produced for one message file.
type FileStats struct {
	Path               string `json:"path"`
	New                int    `json:"new"`
	Changed            int    `json:"changed"`
	MissingTranslation int    `json:"missing_translation"`
	Rows               int    `json:"rows"`
}

func (s FileStats) String() string {
	return fmt.Sprintf("%s: %d new, %d changed, %d missing translation, %d rows",
		s.Path, s.New, s.Changed, s.MissingTranslation, s.Rows)
}

// ExportResult is the outcome of collecting translation sheets.
type ExportResult struct {
	NewFilePaths []string
	Sheets       []Sheet
	Stats        []FileStats
}

// TotalRows returns the number of data rows across all sheets.
func (r ExportResult) TotalRows() int {
	n := 0
	for _, s := range r.Sheets {
		n += len(s.DataRows())
	}
	return n
}

func headerRow(langs []Language) []string {
	h := make([]string, 0, 2+len(langs))
	h = append(h, ColKey, ColPrimary)
	return append(h, langs...)
}

func toRow(cells []string) Row {
	row := make(Row, len(cells))
	for i := range cells {
		row[i] = Text(cells[i])
	}
	return row
}

// SheetNamer derives a sheet name from a message file path and its sheet id.
type SheetNamer func(path string, sheetID int) string

var illegalSheetChars = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// SheetName is the default SheetNamer: "<base name>#<id>", sanitised and
// truncated to fit workbook limits.
func SheetName(filePath string, sheetID int) string {
	base := path.Base(strings.ReplaceAll(filePath, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = illegalSheetChars.Replace(base)
	suffix := "#" + strconv.Itoa(sheetID)
	limit := maxSheetNameLen - len(suffix)
	for utf8.RuneCountInString(base) > limit {
		_, size := utf8.DecodeLastRuneInString(base)
		base = base[:len(base)-size]
	}
	return base + suffix
}

// ParseSheetID extracts the sheet id from a name produced by SheetName.
func ParseSheetID(name string) (int, error) {
	i := strings.LastIndex(name, "#")
	if i < 0 {
		return 0, fmt.Errorf("sheet %q: no id suffix", name)
	}
	id, err := strconv.Atoi(name[i+1:])
	if err != nil {
		return 0, fmt.Errorf("sheet %q: invalid id: %w", name, err)
	}
	return id, nil
}
