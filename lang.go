package babylon

import (
	"embed"
	"fmt"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed locales/active.*.toml
var localeFS embed.FS

// Lang is the active CLI output language.
var Lang = "en"

var (
	bundleOnce sync.Once
	bundle     *i18n.Bundle
)

func messageBundle() *i18n.Bundle {
	bundleOnce.Do(func() {
		bundle = i18n.NewBundle(language.English)
		bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
		for _, file := range []string{"active.en.toml", "active.ja.toml", "active.fr.toml"} {
			if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+file); err != nil {
				panic(fmt.Sprintf("i18n: load %s: %v", file, err))
			}
		}
	})
	return bundle
}

// SetLang selects the closest supported output language for tag. Unknown or
// unparsable tags fall back to English.
func SetLang(tag string) {
	b := messageBundle()
	matcher := language.NewMatcher(b.LanguageTags())
	t, _ := language.MatchStrings(matcher, tag)
	base, _ := t.Base()
	Lang = base.String()
}

// Msg returns the localized message id rendered with data. Missing ids
// render as "[missing: id]".
func Msg(id string, data ...map[string]any) string {
	cfg := &i18n.LocalizeConfig{MessageID: id}
	if len(data) > 0 {
		cfg.TemplateData = data[0]
	}
	s, err := i18n.NewLocalizer(messageBundle(), Lang, "en").Localize(cfg)
	if err != nil && s == "" {
		return fmt.Sprintf("[missing: %s]", id)
	}
	return s
}
