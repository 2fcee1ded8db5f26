// Package localization holds the bot's message catalogs. Each catalog is a
// flat JSON object of key to text, one file per language ("ru.json").
package localization

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// FallbackLang is consulted when a key is missing in the requested language.
const FallbackLang = "en"

//go:embed locales/*.json
var locales embed.FS

type catalog map[string]string

// Localizer resolves message keys per language.
type Localizer struct {
	mu       sync.RWMutex
	catalogs map[string]catalog
}

// NewLocalizer loads every *.json catalog in dir.
func NewLocalizer(dir string) (*Localizer, error) {
	return NewLocalizerFS(os.DirFS(dir), ".")
}

// NewLocalizerFS loads catalogs from dir inside fsys.
func NewLocalizerFS(fsys fs.FS, dir string) (*Localizer, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read catalogs in %q: %w", dir, err)
	}

	l := &Localizer{catalogs: make(map[string]catalog, len(entries))}
	for _, e := range entries {
		lang, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok {
			continue
		}
		c, err := readCatalog(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		l.catalogs[lang] = c
	}
	return l, nil
}

func readCatalog(fsys fs.FS, name string) (catalog, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", name, err)
	}
	var c catalog
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", name, err)
	}
	return c, nil
}

// Default returns a Localizer over the catalogs compiled into the binary.
func Default() (*Localizer, error) {
	return NewLocalizerFS(locales, "locales")
}

// MustDefault is Default for wiring code and tests; it panics on a broken catalog.
func MustDefault() *Localizer {
	l, err := Default()
	if err != nil {
		panic(err)
	}
	return l
}

// GetString returns the text for key in lang, then in FallbackLang, and
// finally the key itself.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, candidate := range [...]string{lang, FallbackLang} {
		if text, ok := l.catalogs[candidate][key]; ok {
			return text
		}
	}
	return key
}

// Languages lists the loaded language codes.
func (l *Localizer) Languages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.catalogs))
	for lang := range l.catalogs {
		out = append(out, lang)
	}
	return out
}

// Keys returns the keys defined for lang.
func (l *Localizer) Keys(lang string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.catalogs[lang]))
	for k := range l.catalogs[lang] {
		out = append(out, k)
	}
	return out
}
