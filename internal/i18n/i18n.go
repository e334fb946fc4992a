// Package i18n holds the per-language translation tables consumed by the
// public site. Locale files are plain YAML maps embedded in the binary;
// lookups fall back to English when a key or language is missing.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// DefaultLanguage is the fallback for unknown languages and missing keys.
const DefaultLanguage = "en"

// cookieName stores the visitor's language selection between requests.
const cookieName = "lf_lang"

// Store holds the loaded translation tables. It is populated once at
// startup and read-only afterwards, so no locking is needed.
type Store struct {
	tables map[string]map[string]string
}

// Load parses every embedded locale file into the store. The file name
// (without extension) is the language code.
func Load() (*Store, error) {
	s := &Store{tables: make(map[string]map[string]string)}

	entries, err := fs.Glob(localeFS, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("i18n glob: %w", err)
	}

	for _, path := range entries {
		raw, err := localeFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("i18n read %s: %w", path, err)
		}

		var table map[string]string
		if err := yaml.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("i18n parse %s: %w", path, err)
		}

		lang := strings.TrimSuffix(strings.TrimPrefix(path, "locales/"), ".yaml")
		s.tables[lang] = table
	}

	if _, ok := s.tables[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("i18n: default language %q missing", DefaultLanguage)
	}

	return s, nil
}

// T returns the translation for key in the given language, falling back to
// English and finally to the key itself so missing strings stay visible.
func (s *Store) T(lang, key string) string {
	if table, ok := s.tables[lang]; ok {
		if v, ok := table[key]; ok {
			return v
		}
	}
	if v, ok := s.tables[DefaultLanguage][key]; ok {
		return v
	}
	return key
}

// Languages returns the loaded language codes, default language first.
func (s *Store) Languages() []string {
	langs := []string{DefaultLanguage}
	for lang := range s.tables {
		if lang != DefaultLanguage {
			langs = append(langs, lang)
		}
	}
	return langs
}

// Has reports whether a language table is loaded.
func (s *Store) Has(lang string) bool {
	_, ok := s.tables[lang]
	return ok
}

// FromRequest resolves the visitor's language: explicit ?lang= query wins,
// then the language cookie, then the default. A query selection is written
// back as a cookie so it sticks.
func (s *Store) FromRequest(w http.ResponseWriter, r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" && s.Has(lang) {
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    lang,
			Path:     "/",
			MaxAge:   365 * 24 * 3600,
			SameSite: http.SameSiteLaxMode,
		})
		return lang
	}
	if c, err := r.Cookie(cookieName); err == nil && s.Has(c.Value) {
		return c.Value
	}
	return DefaultLanguage
}

// Func returns a translate closure bound to one language, for templates.
func (s *Store) Func(lang string) func(string) string {
	return func(key string) string { return s.T(lang, key) }
}
