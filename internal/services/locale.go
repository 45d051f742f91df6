package services

import (
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"

	coachwebui "github.com/tradepsych/coach-web-ui"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// LocaleCookie is the cookie carrying the language preference, readable by
// the server-rendering layer on every request.
const LocaleCookie = "lang"

// LocaleStore resolves the active language and provides translation lookup
// and locale-aware formatting. Resolution order: cookie, persisted
// preference, Accept-Language header, fallback.
type LocaleStore struct {
	store    BoltDB
	fallback string

	tags     []language.Tag
	matcher  language.Matcher
	catalogs map[string]map[string]string
}

// NewLocaleStore loads the embedded translation catalogs. The fallback
// language must be one of the catalog languages.
func NewLocaleStore(store BoltDB, fallback string) (*LocaleStore, error) {
	catalogs := map[string]map[string]string{}
	var tags []language.Tag

	entries, err := fs.Glob(coachwebui.LocaleFS, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to list locale catalogs: %w", err)
	}
	for _, name := range entries {
		lang := strings.TrimSuffix(path.Base(name), ".yaml")
		raw, err := fs.ReadFile(coachwebui.LocaleFS, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog %s: %w", name, err)
		}
		catalog := map[string]string{}
		if err := yaml.Unmarshal(raw, &catalog); err != nil {
			return nil, fmt.Errorf("failed to parse catalog %s: %w", name, err)
		}

		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("invalid catalog language %q: %w", lang, err)
		}
		catalogs[lang] = catalog
		if lang == fallback {
			// The fallback tag leads the matcher so it wins ties.
			tags = append([]language.Tag{tag}, tags...)
		} else {
			tags = append(tags, tag)
		}
	}

	if _, ok := catalogs[fallback]; !ok {
		return nil, fmt.Errorf("fallback language %q has no catalog", fallback)
	}

	return &LocaleStore{
		store:    store,
		fallback: fallback,
		tags:     tags,
		matcher:  language.NewMatcher(tags),
		catalogs: catalogs,
	}, nil
}

// Supported lists the catalog languages.
func (l *LocaleStore) Supported() []string {
	langs := make([]string, 0, len(l.catalogs))
	for _, tag := range l.tags {
		langs = append(langs, tag.String())
	}
	return langs
}

// Resolve determines the active language for a request.
func (l *LocaleStore) Resolve(r *http.Request) string {
	if c, err := r.Cookie(LocaleCookie); err == nil {
		if _, ok := l.catalogs[c.Value]; ok {
			return c.Value
		}
	}

	if stored, err := l.store.State(StateLocale); err == nil && stored != "" {
		if _, ok := l.catalogs[stored]; ok {
			return stored
		}
	}

	if header := r.Header.Get("Accept-Language"); header != "" {
		if _, idx := language.MatchStrings(l.matcher, header); idx < len(l.tags) {
			if lang := l.tags[idx].String(); lang != "" {
				if _, ok := l.catalogs[lang]; ok {
					return lang
				}
			}
		}
	}

	return l.fallback
}

// SetLocale persists the language preference.
func (l *LocaleStore) SetLocale(lang string) error {
	if _, ok := l.catalogs[lang]; !ok {
		return fmt.Errorf("unsupported language %q", lang)
	}
	return l.store.SetState(StateLocale, lang)
}

// T looks up a translation key, falling back to the default catalog and
// finally to the key itself so missing entries stay visible instead of
// rendering blank.
func (l *LocaleStore) T(lang, key string) string {
	if catalog, ok := l.catalogs[lang]; ok {
		if v, ok := catalog[key]; ok {
			return v
		}
	}
	if v, ok := l.catalogs[l.fallback][key]; ok {
		return v
	}
	return key
}

// FormatNumber renders a number with the language's digit separators.
func (l *LocaleStore) FormatNumber(lang string, v float64) string {
	return l.printer(lang).Sprintf("%.2f", v)
}

// FormatPercent renders a ratio as a percentage with the language's digit
// separators.
func (l *LocaleStore) FormatPercent(lang string, v float64) string {
	return l.printer(lang).Sprintf("%.1f%%", v*100)
}

func (l *LocaleStore) printer(lang string) *message.Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Make(l.fallback)
	}
	return message.NewPrinter(tag)
}
