package babylon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strs(row Row) []any {
	out := make([]any, len(row))
	for i, c := range row {
		if c == nil {
			out[i] = nil
			continue
		}
		out[i] = *c
	}
	return out
}

func rowsOf(content SheetContent) [][]any {
	out := make([][]any, 0, len(content.DataRows))
	for _, r := range content.DataRows {
		out = append(out, strs(r))
	}
	return out
}

func snapshotWith(path string, kv ...string) *Snapshot {
	snap := NewSnapshot()
	_, _ = snap.RegisterFile(path)
	for i := 0; i < len(kv); i += 2 {
		snap.RecordMessage(path, kv[i], Text(kv[i+1]))
	}
	return snap
}

func TestPrepareSheet_FreshFileWithoutTranslations(t *testing.T) {
	// given
	primary := MessagesOf("prev", "Previous", "next", "Next", "free", "Free")
	p := NewSheetProcessor(NewSnapshot())

	// when
	content, stats := p.PrepareSheet("shop.properties", primary, map[Language]*Messages{}, []Language{"cz", "sk"})

	// then
	assert.Equal(t, []string{"key", "primary", "cz", "sk"}, content.Header)
	assert.Equal(t, [][]any{
		{"prev", "Previous", nil, nil},
		{"next", "Next", nil, nil},
		{"free", "Free", nil, nil},
	}, rowsOf(content))
	assert.Equal(t, FileStats{Path: "shop.properties", New: 3, Rows: 3}, stats)
}

func TestPrepareSheet_OnlyAddedKeyNeedsTranslation(t *testing.T) {
	// given
	path := "shop.properties"
	snap := snapshotWith(path, "prev", "Previous", "next", "Next", "free", "Free")
	primary := MessagesOf("prev", "Previous", "next", "Next", "free", "Free", "avail", "In stock")
	translations := map[Language]*Messages{
		"cz": MessagesOf("prev", "Předchozí", "next", "Další", "free", "Zdarma"),
		"sk": MessagesOf("prev", "Predchádzajúci", "next", "Ďalší", "free", "Zadarmo"),
	}

	// when
	content, stats := NewSheetProcessor(snap).PrepareSheet(path, primary, translations, []Language{"cz", "sk"})

	// then
	assert.Equal(t, [][]any{{"avail", "In stock", nil, nil}}, rowsOf(content))
	assert.Equal(t, 1, stats.New)
	assert.Equal(t, 0, stats.Changed)
	assert.Equal(t, 0, stats.MissingTranslation)
}

func TestPrepareSheet_ChangedPrimaryGetsBlankRow(t *testing.T) {
	// given
	path := "a.properties"
	snap := snapshotWith(path, "greet", "Hello", "bye", "Bye")
	primary := MessagesOf("greet", "Hello there", "bye", "Bye")
	translations := map[Language]*Messages{
		"cz": MessagesOf("greet", "Ahoj", "bye", "Nashle"),
	}

	// when
	content, stats := NewSheetProcessor(snap).PrepareSheet(path, primary, translations, []Language{"cz"})

	// then: the stale translation is not carried into the row
	assert.Equal(t, [][]any{{"greet", "Hello there", nil}}, rowsOf(content))
	assert.Equal(t, 1, stats.Changed)
}

func TestPrepareSheet_MissingTranslationKeepsExistingCells(t *testing.T) {
	// given
	primary := MessagesOf("a", "A", "b", "B")
	translations := map[Language]*Messages{
		"cz": MessagesOf("a", "A-cz", "b", "B-cz"),
		"sk": MessagesOf("a", "A-sk"),
	}

	// when
	content, stats := NewSheetProcessor(NewSnapshot()).PrepareSheet("x.properties", primary, translations, []Language{"cz", "sk"})

	// then
	assert.Equal(t, [][]any{{"b", "B", "B-cz", nil}}, rowsOf(content))
	assert.Equal(t, 1, stats.MissingTranslation)
	assert.Equal(t, 0, stats.New)
}

func TestPrepareSheet_ChangedWinsOverMissing(t *testing.T) {
	// given: "a" is both changed and missing in sk
	path := "x.properties"
	snap := snapshotWith(path, "a", "Old")
	primary := MessagesOf("a", "New")
	translations := map[Language]*Messages{
		"cz": MessagesOf("a", "A-cz"),
		"sk": NewMessages(),
	}

	// when
	content, stats := NewSheetProcessor(snap).PrepareSheet(path, primary, translations, []Language{"cz", "sk"})

	// then: one blank row, never a duplicate
	assert.Equal(t, [][]any{{"a", "New", nil, nil}}, rowsOf(content))
	assert.Equal(t, 1, stats.Changed)
	assert.Equal(t, 0, stats.MissingTranslation)
	assert.Equal(t, stats.New+stats.Changed+stats.MissingTranslation, stats.Rows)
}

func TestPrepareSheet_FullyTranslatedProducesNoRows(t *testing.T) {
	// given
	path := "x.properties"
	snap := snapshotWith(path, "a", "A")
	primary := MessagesOf("a", "A")
	translations := map[Language]*Messages{"cz": MessagesOf("a", "A-cz")}

	// when
	content, stats := NewSheetProcessor(snap).PrepareSheet(path, primary, translations, []Language{"cz"})

	// then
	assert.Empty(t, content.DataRows)
	assert.Equal(t, []string{"key", "primary", "cz"}, content.Header)
	assert.Zero(t, stats.Rows)
}

func TestPrepareSheet_LineEndingChangeIsAChange(t *testing.T) {
	// given
	path := "x.properties"
	snap := snapshotWith(path, "a", "line1\r\nline2")
	primary := MessagesOf("a", "line1\nline2")
	translations := map[Language]*Messages{"cz": MessagesOf("a", "radek")}

	// when
	content, stats := NewSheetProcessor(snap).PrepareSheet(path, primary, translations, []Language{"cz"})

	// then
	assert.Equal(t, 1, stats.Changed)
	assert.Equal(t, [][]any{{"a", "line1\nline2", nil}}, rowsOf(content))
}

func TestPrepareSheet_UnknownFileIsNeverChanged(t *testing.T) {
	// given: snapshot knows the key under a different file
	snap := snapshotWith("other.properties", "a", "Old")
	primary := MessagesOf("a", "New")
	translations := map[Language]*Messages{"cz": MessagesOf("a", "A-cz")}

	// when
	content, stats := NewSheetProcessor(snap).PrepareSheet("x.properties", primary, translations, []Language{"cz"})

	// then
	assert.Empty(t, content.DataRows)
	assert.Zero(t, stats.Changed)
}

func TestPrepareSheet_KeyUnknownToSnapshotIsNotChanged(t *testing.T) {
	// given: the file is known but "b" was never recorded
	path := "x.properties"
	snap := snapshotWith(path, "a", "A")
	primary := MessagesOf("a", "A", "b", "B")
	translations := map[Language]*Messages{"cz": MessagesOf("a", "A-cz", "b", "B-cz")}

	// when
	content, stats := NewSheetProcessor(snap).PrepareSheet(path, primary, translations, []Language{"cz"})

	// then
	assert.Empty(t, content.DataRows)
	assert.Zero(t, stats.Changed)
}

func TestPrepareSheet_RowsFollowPrimaryOrder(t *testing.T) {
	// given: a mix of new, changed and missing keys
	path := "x.properties"
	snap := snapshotWith(path, "c", "C-old")
	primary := MessagesOf("a", "A", "b", "B", "c", "C", "d", "D")
	translations := map[Language]*Messages{
		"cz": MessagesOf("b", "B-cz", "c", "C-cz", "d", "D-cz"),
		"sk": MessagesOf("c", "C-sk", "d", "D-sk"),
	}

	// when
	content, stats := NewSheetProcessor(snap).PrepareSheet(path, primary, translations, []Language{"cz", "sk"})

	// then
	require.Len(t, content.DataRows, 3)
	assert.Equal(t, [][]any{
		{"a", "A", nil, nil},
		{"b", "B", "B-cz", nil},
		{"c", "C", nil, nil},
	}, rowsOf(content))
	assert.Equal(t, FileStats{Path: path, New: 1, Changed: 1, MissingTranslation: 1, Rows: 3}, stats)
}

func TestPrepareSheet_NilPrimaryMessageYieldsKeyOnlyRow(t *testing.T) {
	// given
	primary := NewMessages()
	primary.Put("empty", nil)
	translations := map[Language]*Messages{
		"cz": MessagesOf("empty", "x"),
		"sk": NewMessages(),
	}

	// when
	content, _ := NewSheetProcessor(NewSnapshot()).PrepareSheet("x.properties", primary, translations, []Language{"cz", "sk"})

	// then
	assert.Equal(t, [][]any{{"empty"}}, rowsOf(content))
}

func TestPrepareSheet_DoesNotModifyInputs(t *testing.T) {
	// given
	primary := MessagesOf("a", "A", "b", "B")
	cz := MessagesOf("a", "A-cz")
	translations := map[Language]*Messages{"cz": cz}

	// when
	NewSheetProcessor(NewSnapshot()).PrepareSheet("x.properties", primary, translations, []Language{"cz"})

	// then
	assert.Equal(t, []MessageKey{"a", "b"}, primary.Keys())
	assert.Equal(t, []MessageKey{"a"}, cz.Keys())
	assert.Len(t, translations, 1)
}

func TestPrepareSheet_NilSnapshot(t *testing.T) {
	content, stats := NewSheetProcessor(nil).PrepareSheet("x.properties", MessagesOf("a", "A"), nil, []Language{"cz"})

	assert.Equal(t, [][]any{{"a", "A", nil}}, rowsOf(content))
	assert.Equal(t, 1, stats.New)
}
