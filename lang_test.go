package babylon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withLang(t *testing.T, lang string) {
	t.Helper()
	orig := Lang
	t.Cleanup(func() { Lang = orig })
	Lang = lang
}

func TestMsg_English_Default(t *testing.T) {
	withLang(t, "en")
	got := Msg("rows_gathered", map[string]any{"Rows": 3, "Path": "i18n/common.properties"})
	assert.Equal(t, "i18n/common.properties: 3 row(s) to translate", got)
}

func TestMsg_Japanese(t *testing.T) {
	withLang(t, "ja")
	assert.Contains(t, Msg("nothing_to_export"), "エクスポート対象なし")
}

func TestMsg_French(t *testing.T) {
	withLang(t, "fr")
	assert.Contains(t, Msg("obsolete_removed", map[string]any{"Count": 2}), "2 fichier(s)")
}

func TestMsg_MissingKey(t *testing.T) {
	assert.Equal(t, "[missing: nonexistent_key_xyz]", Msg("nonexistent_key_xyz"))
}

func TestMsg_FallbackToEnglish(t *testing.T) {
	withLang(t, "de")
	assert.Equal(t, "No runs recorded yet", Msg("no_runs"))
}

func TestSetLang(t *testing.T) {
	withLang(t, "en")

	SetLang("ja-JP")
	assert.Equal(t, "ja", Lang)

	SetLang("fr")
	assert.Equal(t, "fr", Lang)

	SetLang("not a tag!")
	assert.Equal(t, "en", Lang)
}

func TestLocales_SameMessageIDs(t *testing.T) {
	b := messageBundle()
	assert.Len(t, b.LanguageTags(), 3)
	for _, id := range []string{"rows_gathered", "obsolete_removed", "duplicate_pattern", "workbook_written", "import_done", "signal_received"} {
		for _, lang := range []string{"en", "ja", "fr"} {
			withLang(t, lang)
			assert.NotContains(t, Msg(id), "[missing:", "%s/%s", lang, id)
		}
	}
}
