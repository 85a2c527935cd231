package babylon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// ErrNothingToExport is returned when no sheet has rows worth writing.
var ErrNothingToExport = errors.New("nothing to export")

// WorkbookOptions controls how sheets are written.
type WorkbookOptions struct {
	// IncludeEmpty writes sheets that only carry a header.
	IncludeEmpty bool
	// Highlight marks pre-filled cells per sheet name.
	Highlight map[string][]CellRef
}

// WriteWorkbook writes sheets into a new .xlsx file at path. Every sheet is
// protected: key and primary cells are locked, translation cells stay
// editable.
func WriteWorkbook(path string, sheets []Sheet, opts WorkbookOptions) error {
	var selected []Sheet
	for _, s := range sheets {
		if len(s.DataRows()) > 0 || (opts.IncludeEmpty && len(s.Rows) > 0) {
			selected = append(selected, s)
		}
	}
	if len(selected) == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	lockedStyle, err := f.NewStyle(&excelize.Style{
		Fill:       excelize.Fill{Type: "pattern", Color: []string{"#F1F5F9"}, Pattern: 1},
		Alignment:  &excelize.Alignment{WrapText: true, Vertical: "top"},
		Protection: &excelize.Protection{Locked: true},
	})
	if err != nil {
		return err
	}
	openStyle, err := f.NewStyle(&excelize.Style{
		Alignment:  &excelize.Alignment{WrapText: true, Vertical: "top"},
		Protection: &excelize.Protection{Locked: false},
	})
	if err != nil {
		return err
	}
	highlightStyle, err := f.NewStyle(&excelize.Style{
		Fill:       excelize.Fill{Type: "pattern", Color: []string{"#FEF3C7"}, Pattern: 1},
		Alignment:  &excelize.Alignment{WrapText: true, Vertical: "top"},
		Protection: &excelize.Protection{Locked: false},
	})
	if err != nil {
		return err
	}

	defaultSheet := f.GetSheetName(f.GetActiveSheetIndex())
	for _, s := range selected {
		if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("sheet %s: %w", s.Name, err)
		}
		if err := writeSheetRows(f, s); err != nil {
			return fmt.Errorf("sheet %s: %w", s.Name, err)
		}
		n := len(s.Rows)
		if err := f.SetRowStyle(s.Name, 1, 1, headerStyle); err != nil {
			return err
		}
		lastCol, _ := excelize.ColumnNumberToName(max(len(s.Header()), 2))
		if n > 1 {
			if err := f.SetCellStyle(s.Name, "A2", fmt.Sprintf("B%d", n), lockedStyle); err != nil {
				return err
			}
			if len(s.Header()) > 2 {
				if err := f.SetCellStyle(s.Name, "C2", fmt.Sprintf("%s%d", lastCol, n), openStyle); err != nil {
					return err
				}
			}
		}
		for _, ref := range opts.Highlight[s.Name] {
			cell, err := excelize.CoordinatesToCellName(ref.Col+1, ref.Row+1)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(s.Name, cell, cell, highlightStyle); err != nil {
				return err
			}
		}
		if err := f.ProtectSheet(s.Name, &excelize.SheetProtectionOptions{
			FormatColumns:       true,
			FormatRows:          true,
			SelectLockedCells:   true,
			SelectUnlockedCells: true,
			Sort:                true,
			AutoFilter:          true,
		}); err != nil {
			return err
		}
		if err := f.SetColWidth(s.Name, "A", "A", 40); err != nil {
			return err
		}
		if err := f.SetColWidth(s.Name, "B", lastCol, 50); err != nil {
			return err
		}
		if err := f.SetPanes(s.Name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return err
		}
	}
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func writeSheetRows(f *excelize.File, s Sheet) error {
	for i, row := range s.Rows {
		cells := make([]any, len(row))
		for j, c := range row {
			if c != nil {
				cells[j] = *c
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.Name, cell, &cells); err != nil {
			return err
		}
	}
	return nil
}

// CombineSheets merges sheets into a single CombinedSheetName sheet, keeping
// the first header.
func CombineSheets(sheets []Sheet) []Sheet {
	var rows []Row
	for _, s := range sheets {
		if len(rows) == 0 {
			rows = append(rows, s.Header())
		}
		rows = append(rows, s.DataRows()...)
	}
	if len(rows) == 0 {
		return nil
	}
	return []Sheet{{Name: CombinedSheetName, Rows: rows}}
}

// ReadWorkbook reads every worksheet of the .xlsx file at path. Empty cells
// are nil.
func ReadWorkbook(path string) ([]Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var out []Sheet
	for _, name := range f.GetSheetList() {
		raw, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", name, err)
		}
		rows := make([]Row, 0, len(raw))
		for _, cells := range raw {
			row := make(Row, len(cells))
			for i, c := range cells {
				if c != "" {
					row[i] = Text(c)
				}
			}
			rows = append(rows, row)
		}
		out = append(out, Sheet{Name: name, Rows: rows})
	}
	return out, nil
}
