package babylon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Translator pre-fills blank translation cells before the workbook is
// written. The result is parallel to texts; an empty string leaves the
// cell blank.
type Translator interface {
	Translate(ctx context.Context, source, target Language, texts []string) ([]string, error)
}

// NopTranslator fills nothing.
type NopTranslator struct{}

func (NopTranslator) Translate(_ context.Context, _, _ Language, texts []string) ([]string, error) {
	return make([]string, len(texts)), nil
}

// CommandTranslator pipes texts through a user-provided shell command. The
// command reads a JSON array of strings on stdin and prints a JSON array of
// the same length. {source} and {target} in the template are replaced by
// the language codes.
type CommandTranslator struct {
	cmdTemplate string
}

func NewCommandTranslator(cmdTemplate string) *CommandTranslator {
	return &CommandTranslator{cmdTemplate: cmdTemplate}
}

func (t *CommandTranslator) Translate(ctx context.Context, source, target Language, texts []string) ([]string, error) {
	in, err := json.Marshal(texts)
	if err != nil {
		return nil, err
	}
	expanded := strings.ReplaceAll(t.cmdTemplate, "{source}", source)
	expanded = strings.ReplaceAll(expanded, "{target}", target)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", expanded)
	cmd.Stdin = bytes.NewReader(in)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("translator command: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	var out []string
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("translator output: %w", err)
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("translator returned %d texts for %d", len(out), len(texts))
	}
	return out, nil
}

// TranslatorFromConfig returns the configured translator, or a
// NopTranslator when none is set.
func TranslatorFromConfig(cfg TranslatorConfig) Translator {
	if cfg.Cmd == "" {
		return NopTranslator{}
	}
	return NewCommandTranslator(cfg.Cmd)
}

// CellRef addresses a cell by zero-based row and column within Sheet.Rows.
type CellRef struct {
	Row int
	Col int
}

// Pretranslate fills blank translation cells of rows that carry a primary
// value. Each sheet and language is sent to tr as one batch. A failing batch
// is logged and left blank. Filled cells are returned per sheet name.
func Pretranslate(ctx context.Context, tr Translator, source Language, sheets []Sheet) map[string][]CellRef {
	filled := make(map[string][]CellRef)
	for si := range sheets {
		s := &sheets[si]
		header := s.Header()
		for col := 2; col < len(header); col++ {
			if header[col] == nil || *header[col] == "" {
				continue
			}
			lang := *header[col]
			var (
				rows  []int
				texts []string
			)
			for ri := 1; ri < len(s.Rows); ri++ {
				row := s.Rows[ri]
				if len(row) < 2 || row[1] == nil || *row[1] == "" {
					continue
				}
				if col < len(row) && row[col] != nil && *row[col] != "" {
					continue
				}
				rows = append(rows, ri)
				texts = append(texts, *row[1])
			}
			if len(texts) == 0 {
				continue
			}
			out, err := tr.Translate(ctx, source, lang, texts)
			if err == nil && len(out) != len(texts) {
				err = fmt.Errorf("translator returned %d texts for %d", len(out), len(texts))
			}
			if err != nil {
				LogWarn("%s", Msg("pretranslate_failed", map[string]any{"Sheet": s.Name, "Lang": lang, "Error": err}))
				continue
			}
			for i, ri := range rows {
				if out[i] == "" {
					continue
				}
				for len(s.Rows[ri]) <= col {
					s.Rows[ri] = append(s.Rows[ri], nil)
				}
				s.Rows[ri][col] = Text(out[i])
				filled[s.Name] = append(filled[s.Name], CellRef{Row: ri, Col: col})
			}
		}
	}
	return filled
}
