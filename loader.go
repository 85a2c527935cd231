package babylon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedFormat is returned for message files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported message file format")

// MessageLoader reads the primary and translated bundles of a message file.
type MessageLoader interface {
	LoadPrimary(ctx context.Context, path string) (*Messages, error)
	// LoadTranslations returns one bundle per requested language. A language
	// without a translation file maps to an empty bundle.
	LoadTranslations(ctx context.Context, path string, langs []Language) (map[Language]*Messages, error)
}

// FileLoader loads message files from a filesystem rooted at the project.
type FileLoader struct {
	fs afero.Fs
}

var _ MessageLoader = (*FileLoader)(nil)

// NewFileLoader returns a loader reading from fsys.
func NewFileLoader(fsys afero.Fs) *FileLoader {
	return &FileLoader{fs: fsys}
}

// NewProjectLoader returns a loader over the OS filesystem rooted at dir.
func NewProjectLoader(dir string) *FileLoader {
	return NewFileLoader(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

// LoadPrimary implements MessageLoader.
func (l *FileLoader) LoadPrimary(ctx context.Context, p string) (*Messages, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := FormatFor(p)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(l.fs, p)
	if err != nil {
		return nil, fmt.Errorf("read message file: %w", err)
	}
	msgs, err := f.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p, err)
	}
	return msgs, nil
}

// LoadTranslations implements MessageLoader. Languages are loaded concurrently.
func (l *FileLoader) LoadTranslations(ctx context.Context, p string, langs []Language) (map[Language]*Messages, error) {
	f, err := FormatFor(p)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	out := make(map[Language]*Messages, len(langs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, lang := range langs {
		g.Go(func() error {
			msgs, err := l.loadTranslation(ctx, f, TranslationPath(p, lang))
			if err != nil {
				return fmt.Errorf("translation %s: %w", lang, err)
			}
			mu.Lock()
			out[lang] = msgs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *FileLoader) loadTranslation(ctx context.Context, f Format, p string) (*Messages, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(l.fs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewMessages(), nil
		}
		return nil, err
	}
	msgs, err := f.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p, err)
	}
	return msgs, nil
}

// WriteMessages encodes msgs with the format of p and writes the file.
func (l *FileLoader) WriteMessages(p string, msgs *Messages) error {
	f, err := FormatFor(p)
	if err != nil {
		return err
	}
	data, err := f.Encode(msgs)
	if err != nil {
		return fmt.Errorf("encode %s: %w", p, err)
	}
	if dir := path.Dir(p); dir != "." {
		if err := l.fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return afero.WriteFile(l.fs, p, data, 0644)
}

// LoadTranslation reads a single translation bundle, empty when the file is
// missing.
func (l *FileLoader) LoadTranslation(ctx context.Context, p string, lang Language) (*Messages, error) {
	f, err := FormatFor(p)
	if err != nil {
		return nil, err
	}
	return l.loadTranslation(ctx, f, TranslationPath(p, lang))
}

// TranslationPath returns the translation file of p for lang:
// "i18n/common.properties" -> "i18n/common_cz.properties".
func TranslationPath(p string, lang Language) string {
	ext := path.Ext(p)
	return strings.TrimSuffix(p, ext) + "_" + lang + ext
}
