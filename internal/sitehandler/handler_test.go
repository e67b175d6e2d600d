package sitehandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/zuga-web/internal/content"
)

// test fixtures

func doc(fm, body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte("---\n" + strings.TrimSpace(fm) + "\n---\n" + body)}
}

func siteFS() fstest.MapFS {
	return fstest.MapFS{
		"et/index.md": doc(`
title: Zuga
language: et
type: landing
status: published
translated: [english]
`, "## Tere tulemast\n\nTeater noortele."),
		"et/mura.md": doc(`
title: Müra
language: et
type: performance
status: published
order: 1
hero_image: /images/mura.jpg
translated:
  - language: en
    slug: noise
videos:
  - platform: youtube
    video_id: abc123
    title: Treiler
    url: https://www.youtube.com/watch?v=abc123
`, "Lavastus **noortele**."),
		"et/salajane.md": doc(`
title: Salajane
language: et
type: performance
status: draft
`, "Veel mitte."),
		"en/english.md": doc(`
title: Zuga
language: en
type: landing
status: published
translated: [index]
`, "Welcome."),
		"en/noise.md": doc(`
title: Noise
language: en
type: performance
status: published
translated: [mura]
`, "A performance."),
	}
}

func newTestHandler(t *testing.T, root fstest.MapFS, mod func(*Options)) *Handler {
	t.Helper()
	l, err := content.NewLoader(content.LoaderOptions{Root: root})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	opts := Options{Store: l}
	if mod != nil {
		mod(&opts)
	}
	h, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

// request builds a GET with chi URL params already populated, as the
// router would.
func request(target string, params ...string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func serve(fn http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	fn(rec, r)
	return rec
}

// New

func TestNew_ErrInvalidOptions(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("err = %v, want ErrInvalidOptions", err)
	}
	l, _ := content.NewLoader(content.LoaderOptions{Root: siteFS()})
	if _, err := New(Options{Store: l, DefaultLanguage: "de"}); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("err = %v, want ErrInvalidOptions for bad language", err)
	}
}

func TestNew_BadTemplates(t *testing.T) {
	l, _ := content.NewLoader(content.LoaderOptions{Root: siteFS()})
	_, err := New(Options{Store: l, TemplatesFS: fstest.MapFS{}})
	if !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("err = %v, want ErrInvalidOptions", err)
	}
}

// Root

func TestRoot_NegotiatesLanguage(t *testing.T) {
	h := newTestHandler(t, siteFS(), nil)

	tests := []struct {
		accept string
		want   string
	}{
		{"", "/et/"},
		{"et-EE,et;q=0.9", "/et/"},
		{"en-US,en;q=0.9", "/en/"},
		{"de-DE", "/et/"},
		{"not a header;;", "/et/"},
	}
	for _, tt := range tests {
		r := request("/")
		if tt.accept != "" {
			r.Header.Set("Accept-Language", tt.accept)
		}
		rec := serve(h.Root, r)
		if rec.Code != http.StatusFound {
			t.Fatalf("%q: status = %d, want 302", tt.accept, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != tt.want {
			t.Errorf("%q: Location = %q, want %q", tt.accept, loc, tt.want)
		}
	}
}

func TestRoot_DefaultLanguageOption(t *testing.T) {
	h := newTestHandler(t, siteFS(), func(o *Options) { o.DefaultLanguage = content.LanguageEN })
	rec := serve(h.Root, request("/"))
	if loc := rec.Header().Get("Location"); loc != "/en/" {
		t.Fatalf("Location = %q, want /en/", loc)
	}
}

func TestLangRoot_Redirects(t *testing.T) {
	h := newTestHandler(t, siteFS(), nil)
	rec := serve(h.LangRoot, request("/en", "lang", "en"))
	if rec.Code != http.StatusPermanentRedirect || rec.Header().Get("Location") != "/en/" {
		t.Fatalf("status = %d Location = %q", rec.Code, rec.Header().Get("Location"))
	}
	rec = serve(h.LangRoot, request("/xx", "lang", "xx"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown language status = %d, want 404", rec.Code)
	}
}

// Landing

func TestLanding_RendersDocumentAndPerformances(t *testing.T) {
	h := newTestHandler(t, siteFS(), nil)
	rec := serve(h.Landing, request("/et/", "lang", "et"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Tere tulemast</h2>",
		`href="/et/mura"`,
		"Müra",
		`href="/en/english"`,
		`<html lang="et">`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, "Salajane") {
		t.Error("draft performance listed")
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}
}

func TestLanding_ShowDraftsListsDrafts(t *testing.T) {
	h := newTestHandler(t, siteFS(), func(o *Options) { o.ShowDrafts = true })
	rec := serve(h.Landing, request("/et/", "lang", "et"))
	if !strings.Contains(rec.Body.String(), "Salajane") {
		t.Fatal("draft not listed with ShowDrafts")
	}
}

func TestLanding_MissingIsNotFound(t *testing.T) {
	root := siteFS()
	delete(root, "en/english.md")
	h := newTestHandler(t, root, nil)

	rec := serve(h.Landing, request("/en/", "lang", "en"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
	if !strings.Contains(rec.Body.String(), "Page not found.") {
		t.Errorf("404 page not localized: %s", rec.Body.String())
	}
}

func TestLanding_BrokenPartitionKeepsPage(t *testing.T) {
	root := siteFS()
	root["et/zz-broken.md"] = doc("title: Katki", "")
	h := newTestHandler(t, root, nil)

	rec := serve(h.Landing, request("/et/", "lang", "et"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `href="/et/mura"`) {
		t.Error("performance list rendered despite load failure")
	}
}

// Page

func TestPage_RendersDocument(t *testing.T) {
	h := newTestHandler(t, siteFS(), nil)
	rec := serve(h.Page, request("/et/mura", "lang", "et", "slug", "mura"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<strong>noortele</strong>",
		`src="/images/mura.jpg"`,
		`src="https://www.youtube-nocookie.com/embed/abc123"`,
		`href="/en/noise"`,
		`aria-current="page"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestPage_Errors(t *testing.T) {
	root := siteFS()
	root["et/katki.md"] = doc("title: Katki\nlanguage: et\ntype: section\nstatus: published", "")
	h := newTestHandler(t, root, nil)

	tests := []struct {
		name       string
		lang, slug string
		want       int
	}{
		{"missing", "et", "puudub", http.StatusNotFound},
		{"bad slug", "et", "Not_A_Slug", http.StatusNotFound},
		{"unknown language", "de", "mura", http.StatusNotFound},
		{"draft", "et", "salajane", http.StatusNotFound},
		{"schema error", "et", "katki", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h.Page, request("/"+tt.lang+"/"+tt.slug, "lang", tt.lang, "slug", tt.slug))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestPage_DraftVisibleWithShowDrafts(t *testing.T) {
	h := newTestHandler(t, siteFS(), func(o *Options) { o.ShowDrafts = true })
	rec := serve(h.Page, request("/et/salajane", "lang", "et", "slug", "salajane"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestPage_BrokenTranslationOmitsLink(t *testing.T) {
	root := siteFS()
	delete(root, "en/noise.md")
	h := newTestHandler(t, root, nil)

	rec := serve(h.Page, request("/et/mura", "lang", "et", "slug", "mura"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `hreflang="en"`) {
		t.Fatal("translation link rendered for a missing counterpart")
	}
}

// TypeListing

func TestTypeListing(t *testing.T) {
	h := newTestHandler(t, siteFS(), nil)

	rec := serve(h.TypeListing, request("/en/type/performance", "lang", "en", "type", "performance"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1>Performances</h1>") || !strings.Contains(body, `href="/en/noise"`) {
		t.Errorf("listing body = %s", body)
	}
	if !strings.Contains(body, `href="/et/type/performance"`) {
		t.Error("listing has no link to its counterpart")
	}

	for _, typ := range []string{"blog", "landing", "section"} {
		rec := serve(h.TypeListing, request("/en/type/"+typ, "lang", "en", "type", typ))
		if rec.Code != http.StatusNotFound {
			t.Errorf("type %q: status = %d, want 404", typ, rec.Code)
		}
	}
}

func TestTypeListing_EmptyTypeRenders(t *testing.T) {
	h := newTestHandler(t, siteFS(), nil)
	rec := serve(h.TypeListing, request("/et/type/gallery", "lang", "et", "type", "gallery"))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Galerii") {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

// Static

func TestStatic(t *testing.T) {
	h := newTestHandler(t, siteFS(), nil)

	rec := serve(h.Static, request("/static/site.css", "*", "site.css"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != h.opts.AssetCacheControl {
		t.Errorf("Cache-Control = %q", cc)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("Content-Type = %q", ct)
	}

	for _, name := range []string{"", "missing.css", "../templates/layout.html", "./site.css", `..\site.css`} {
		rec := serve(h.Static, request("/static/"+name, "*", name))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%q: status = %d, want 404", name, rec.Code)
		}
	}
}

// fallback

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, siteFS(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/et/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if rec.Header().Get("Allow") != "GET, HEAD" {
		t.Errorf("Allow = %q", rec.Header().Get("Allow"))
	}
}

func TestServeHTTP_NotFoundUsesPathLanguage(t *testing.T) {
	h := newTestHandler(t, siteFS(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/en/a/b/c", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `<html lang="en">`) {
		t.Error("404 page not rendered in the path language")
	}
}

func TestRender_TemplateFailureServesFallback(t *testing.T) {
	broken := fstest.MapFS{
		"layout.html":  {Data: []byte(`{{define "layout"}}{{template "content" .}}{{end}}`)},
		"items.html":   {Data: []byte(`{{define "items"}}{{end}}`)},
		"page.html":    {Data: []byte(`{{define "content"}}{{.Missing}}{{end}}`)},
		"landing.html": {Data: []byte(`{{define "content"}}{{end}}`)},
		"list.html":    {Data: []byte(`{{define "content"}}{{end}}`)},
		"error.html":   {Data: []byte(`{{define "content"}}{{.Status}}{{end}}`)},
	}
	h := newTestHandler(t, siteFS(), func(o *Options) { o.TemplatesFS = broken })

	rec := serve(h.Page, request("/et/mura", "lang", "et", "slug", "mura"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<h1>500</h1>") {
		t.Errorf("body = %q, want embedded fallback page", rec.Body.String())
	}
}

func TestServeFallback_PlainTextWithoutFile(t *testing.T) {
	h := newTestHandler(t, siteFS(), func(o *Options) { o.FallbackFS = fstest.MapFS{} })
	rec := httptest.NewRecorder()
	h.serveFallback(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNotFound)
	if rec.Code != http.StatusNotFound || rec.Body.String() != "404 not found" {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
	}
}
