package babylon

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// ErrNoPatternMatch is returned when a message file pattern matches nothing.
var ErrNoPatternMatch = errors.New("pattern matched no message file")

// ExpandPaths expands glob patterns ("**" allowed) relative to the root of
// fsys into unique slash-separated paths of primary message files. Pattern
// order is kept, and matches of one pattern follow walk order. Translation
// files of langs, files without a known format and hidden directories are
// never returned.
func ExpandPaths(fsys afero.Fs, patterns []string, langs []Language) ([]string, error) {
	warnDuplicatePatterns(patterns)

	var files []string
	err := afero.Walk(fsys, ".", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p != "." && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if SupportedExtension(p) {
			files = append(files, filepath.ToSlash(p))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk project: %w", err)
	}
	files = withoutTranslations(files, langs)

	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}
		matched := false
		for _, f := range files {
			ok, err := doublestar.Match(pattern, f)
			if err != nil {
				return nil, fmt.Errorf("match %q: %w", pattern, err)
			}
			if !ok {
				continue
			}
			matched = true
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
		if !matched {
			return nil, fmt.Errorf("%q: %w", pattern, ErrNoPatternMatch)
		}
	}
	return out, nil
}

// withoutTranslations drops files that are the translation of another file.
func withoutTranslations(files []string, langs []Language) []string {
	all := make(map[string]struct{}, len(files))
	for _, f := range files {
		all[f] = struct{}{}
	}
	out := files[:0:0]
	for _, f := range files {
		if !isTranslationOf(f, all, langs) {
			out = append(out, f)
		}
	}
	return out
}

func isTranslationOf(f string, all map[string]struct{}, langs []Language) bool {
	ext := path.Ext(f)
	stem := strings.TrimSuffix(f, ext)
	for _, lang := range langs {
		suffix := "_" + lang
		if !strings.HasSuffix(stem, suffix) {
			continue
		}
		if _, ok := all[strings.TrimSuffix(stem, suffix)+ext]; ok {
			return true
		}
	}
	return false
}

func warnDuplicatePatterns(patterns []string) {
	count := make(map[string]int, len(patterns))
	for _, p := range patterns {
		count[p]++
	}
	for _, p := range patterns {
		if count[p] > 1 {
			LogWarn("%s", Msg("duplicate_pattern", map[string]any{"Pattern": p}))
			count[p] = 0
		}
	}
}
