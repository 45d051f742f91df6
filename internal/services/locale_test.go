package services_test

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/tradepsych/coach-web-ui/internal/services"
)

func newTestLocaleStore(t *testing.T) (services.BoltDB, *services.LocaleStore) {
	t.Helper()
	db := newTestDB(t)
	locale, err := services.NewLocaleStore(db, "en")
	if err != nil {
		t.Fatalf("NewLocaleStore() error = %v", err)
	}
	return db, locale
}

func TestLocaleSupported(t *testing.T) {
	_, locale := newTestLocaleStore(t)

	langs := locale.Supported()
	if !slices.Contains(langs, "en") || !slices.Contains(langs, "zh") {
		t.Fatalf("Supported() = %v, want en and zh", langs)
	}
	// The fallback leads so it wins matcher ties.
	if langs[0] != "en" {
		t.Errorf("Supported()[0] = %q, want en", langs[0])
	}
}

func TestLocaleResolve(t *testing.T) {
	db, locale := newTestLocaleStore(t)

	newReq := func(cookie, header string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if cookie != "" {
			r.AddCookie(&http.Cookie{Name: services.LocaleCookie, Value: cookie})
		}
		if header != "" {
			r.Header.Set("Accept-Language", header)
		}
		return r
	}

	// No signals at all resolves to the fallback.
	if got := locale.Resolve(newReq("", "")); got != "en" {
		t.Errorf("Resolve() with no signals = %q, want en", got)
	}

	// Accept-Language is honored when nothing else is set.
	if got := locale.Resolve(newReq("", "zh-CN,zh;q=0.9")); got != "zh" {
		t.Errorf("Resolve() with Accept-Language = %q, want zh", got)
	}

	// A persisted preference beats the header.
	if err := locale.SetLocale("zh"); err != nil {
		t.Fatalf("SetLocale() error = %v", err)
	}
	if got := locale.Resolve(newReq("", "en-US")); got != "zh" {
		t.Errorf("Resolve() with stored preference = %q, want zh", got)
	}

	// The cookie beats everything.
	if got := locale.Resolve(newReq("en", "zh-CN")); got != "en" {
		t.Errorf("Resolve() with cookie = %q, want en", got)
	}

	// An unknown cookie value is ignored.
	if got := locale.Resolve(newReq("fr", "")); got != "zh" {
		t.Errorf("Resolve() with unknown cookie = %q, want stored zh", got)
	}

	// The persisted value survives restarts via the store.
	if stored, _ := db.State(services.StateLocale); stored != "zh" {
		t.Errorf("persisted locale = %q, want zh", stored)
	}
}

func TestLocaleSetRejectsUnknown(t *testing.T) {
	_, locale := newTestLocaleStore(t)

	if err := locale.SetLocale("fr"); err == nil {
		t.Fatal("SetLocale(fr) error = nil, want error")
	}
}

func TestLocaleTranslation(t *testing.T) {
	_, locale := newTestLocaleStore(t)

	if got := locale.T("en", "app.title"); got == "" || got == "app.title" {
		t.Errorf("T(en, app.title) = %q, want a translation", got)
	}

	en := locale.T("en", "nav.journal")
	zh := locale.T("zh", "nav.journal")
	if en == zh {
		t.Errorf("T(en) and T(zh) both = %q, want distinct translations", en)
	}

	// Missing keys fall back to the key itself so they stay visible.
	if got := locale.T("en", "no.such.key"); got != "no.such.key" {
		t.Errorf("T() on missing key = %q, want the key", got)
	}

	// An unknown language falls back to the default catalog.
	if got := locale.T("fr", "nav.journal"); got != en {
		t.Errorf("T(fr) = %q, want fallback %q", got, en)
	}
}

func TestLocaleFormatting(t *testing.T) {
	_, locale := newTestLocaleStore(t)

	if got := locale.FormatNumber("en", 1234.5); got != "1,234.50" {
		t.Errorf("FormatNumber(en) = %q, want 1,234.50", got)
	}
	if got := locale.FormatPercent("en", 0.625); got != "62.5%" {
		t.Errorf("FormatPercent(en) = %q, want 62.5%%", got)
	}
}
