package babylon

import (
	"fmt"
	"sort"
)

// SheetProcessor computes the translation sheet of a single message file.
// It performs no I/O; change detection goes through the snapshot reader.
type SheetProcessor struct {
	snapshot SnapshotReader
}

// NewSheetProcessor returns a processor that consults snapshot for changes.
func NewSheetProcessor(snapshot SnapshotReader) *SheetProcessor {
	return &SheetProcessor{snapshot: snapshot}
}

// PrepareSheet decides which keys of primary need translator attention.
//
// New keys (absent from every translation) and keys whose primary message
// changed since the snapshot get a row with blank translations. Keys missing
// in at least one translation get a row with the existing translations filled
// in. Fully translated, unchanged keys produce no row. Rows follow the order
// of primary. None of the inputs is modified.
func (p *SheetProcessor) PrepareSheet(
	path string,
	primary *Messages,
	translations map[Language]*Messages,
	langs []Language,
) (SheetContent, FileStats) {
	newKeys := newMessageKeys(primary, translations)

	existing := make([]MessageKey, 0, primary.Len())
	for _, k := range primary.Keys() {
		if !newKeys[k] {
			existing = append(existing, k)
		}
	}

	changed := p.changedMessageKeys(path, primary, existing)
	missing := missingTranslationKeys(existing, translations)

	rows := make([]Row, 0, len(newKeys)+len(changed)+len(missing))
	blank := make(map[MessageKey]bool, len(newKeys)+len(changed))
	for _, k := range primary.Keys() {
		if newKeys[k] || changed[k] {
			blank[k] = true
			msg, _ := primary.Get(k)
			rows = append(rows, NewRow(k, msg, make([]*string, len(langs))...))
		}
	}

	populated := 0
	for _, k := range existing {
		if !missing[k] || blank[k] {
			continue
		}
		populated++
		rows = append(rows, populatedRow(k, primary, translations, langs))
	}

	sortRows(rows, primary)

	stats := FileStats{
		Path:               path,
		New:                len(newKeys),
		Changed:            len(changed),
		MissingTranslation: populated,
		Rows:               len(rows),
	}
	return SheetContent{Header: headerRow(langs), DataRows: rows}, stats
}

// newMessageKeys returns primary keys no translation has ever recorded.
func newMessageKeys(primary *Messages, translations map[Language]*Messages) map[MessageKey]bool {
	out := make(map[MessageKey]bool)
	for _, k := range primary.Keys() {
		translated := false
		for _, t := range translations {
			if t.Has(k) {
				translated = true
				break
			}
		}
		if !translated {
			out[k] = true
		}
	}
	return out
}

// changedMessageKeys returns keys whose primary message differs from the one
// recorded in the snapshot. Keys the snapshot never saw are not changed.
func (p *SheetProcessor) changedMessageKeys(path string, primary *Messages, keys []MessageKey) map[MessageKey]bool {
	out := make(map[MessageKey]bool)
	if p.snapshot == nil || !p.snapshot.IncludesFile(path) {
		return out
	}
	for _, k := range keys {
		if !p.snapshot.ContainsMessage(k, path) {
			continue
		}
		current, _ := primary.Get(k)
		if !p.snapshot.HasSameMessage(k, path, current) {
			out[k] = true
		}
	}
	return out
}

// missingTranslationKeys returns keys absent from at least one translation
// bundle. With no bundles at all, every key is missing.
func missingTranslationKeys(keys []MessageKey, translations map[Language]*Messages) map[MessageKey]bool {
	out := make(map[MessageKey]bool)
	for _, k := range keys {
		if len(translations) == 0 {
			out[k] = true
			continue
		}
		for _, t := range translations {
			if !t.Has(k) {
				out[k] = true
				break
			}
		}
	}
	return out
}

func populatedRow(key MessageKey, primary *Messages, translations map[Language]*Messages, langs []Language) Row {
	msg, _ := primary.Get(key)
	if msg == nil {
		// nothing to translate against
		return Row{Text(key)}
	}
	cells := make([]*string, len(langs))
	for i, lang := range langs {
		if t, ok := translations[lang]; ok {
			cells[i], _ = t.Get(key)
		}
	}
	return NewRow(key, msg, cells...)
}

// sortRows orders rows by the position of their key in primary.
// A key without a position is a logic error.
func sortRows(rows []Row, primary *Messages) {
	rank := make(map[MessageKey]int, primary.Len())
	for i, k := range primary.Keys() {
		rank[k] = i
	}
	for _, r := range rows {
		if _, ok := rank[r.Key()]; !ok {
			panic(fmt.Sprintf("babylon: row key %q not found in primary messages", r.Key()))
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rank[rows[i].Key()] < rank[rows[j].Key()]
	})
}
