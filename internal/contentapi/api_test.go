package contentapi

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/zuga-web/internal/bundle"
	"github.com/keithlinneman/zuga-web/internal/content"
)

// test fixtures

func doc(fm, body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte("---\n" + strings.TrimSpace(fm) + "\n---\n" + body)}
}

func contentFS() fstest.MapFS {
	return fstest.MapFS{
		"et/index.md": doc("title: Zuga\nlanguage: et\ntype: landing\nstatus: published", "# Tere"),
		"et/mura.md": doc(`
title: Müra
language: et
type: performance
status: published
order: 2
`, "Lavastus **noortele**."),
		"et/vari.md": doc(`
title: Vari
language: et
type: performance
status: published
order: 1
`, "Teine."),
		"et/mustand.md": doc("title: Mustand\nlanguage: et\ntype: news\nstatus: draft", "Pooleli."),
		"en/noise.md":   doc("title: Noise\nlanguage: en\ntype: performance\nstatus: published", "A show."),
	}
}

func newTestAPI(t *testing.T, root fstest.MapFS, mod func(*Options)) *API {
	t.Helper()
	l, err := content.NewLoader(content.LoaderOptions{Root: root})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	opts := Options{
		Store: l,
		Meta: bundle.Meta{
			Source:   bundle.SourceS3,
			Location: "s3://zuga-content/bundles/abc.tar.gz",
			SHA256:   strings.Repeat("ab", 32),
			Files:    5,
			LoadedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	if mod != nil {
		mod(&opts)
	}
	api, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	api.now = func() time.Time { return time.Date(2026, 3, 1, 12, 30, 15, 500, time.UTC) }
	return api
}

func get(t *testing.T, api *API, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	api.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// New

func TestNew_RequiresStore(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error for nil Store")
	}
}

// meta

func TestHandleMeta(t *testing.T) {
	api := newTestAPI(t, contentFS(), nil)
	rec := get(t, api, "/api/content/meta")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}
	resp := decode[MetaResponse](t, rec)
	if resp.Bundle.Source != bundle.SourceS3 || resp.Bundle.Files != 5 {
		t.Errorf("Bundle = %+v", resp.Bundle)
	}
	if resp.SchemaVersion != content.SchemaVersion {
		t.Errorf("SchemaVersion = %q", resp.SchemaVersion)
	}
	if len(resp.Languages) != 2 || len(resp.PageTypes) != len(content.PageTypes) {
		t.Errorf("Languages = %v PageTypes = %v", resp.Languages, resp.PageTypes)
	}
	if !resp.ServerTime.Equal(time.Date(2026, 3, 1, 12, 30, 15, 0, time.UTC)) {
		t.Errorf("ServerTime = %v, want truncated to the second", resp.ServerTime)
	}
	if resp.Build.Version == "" {
		t.Error("Build.Version empty")
	}
}

// documents

func TestHandleDocument(t *testing.T) {
	api := newTestAPI(t, contentFS(), nil)
	rec := get(t, api, "/api/content/et/mura")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	resp := decode[DocumentResponse](t, rec)
	if resp.Frontmatter.Title != "Müra" || resp.Frontmatter.Type != content.TypePerformance {
		t.Errorf("Frontmatter = %+v", resp.Frontmatter)
	}
	if resp.Body != "Lavastus **noortele**." {
		t.Errorf("Body = %q", resp.Body)
	}
	if resp.Rendered || resp.HTML != "" {
		t.Errorf("rendered without ?render: %+v", resp)
	}
}

func TestHandleDocument_Rendered(t *testing.T) {
	api := newTestAPI(t, contentFS(), nil)
	resp := decode[DocumentResponse](t, get(t, api, "/api/content/et/mura?render=true"))
	if !resp.Rendered || !strings.Contains(resp.HTML, "<strong>noortele</strong>") {
		t.Fatalf("resp = %+v", resp)
	}
}

type failingRenderer struct{}

func (failingRenderer) HTML(string) (template.HTML, error) { return "", errors.New("render boom") }

func TestHandleDocument_RenderFailureIs500(t *testing.T) {
	api := newTestAPI(t, contentFS(), func(o *Options) { o.Renderer = failingRenderer{} })
	rec := get(t, api, "/api/content/et/mura?render=1")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Error != "internal error" {
		t.Errorf("error = %q, internals leaked", resp.Error)
	}
}

func TestHandleDocument_Errors(t *testing.T) {
	root := contentFS()
	root["et/katki.md"] = doc("title: Katki\nlanguage: et\ntype: detail\nstatus: published\ncategory: etendused", "")
	api := newTestAPI(t, root, nil)

	tests := []struct {
		target string
		want   int
	}{
		{"/api/content/et/puudub", http.StatusNotFound},
		{"/api/content/de/mura", http.StatusNotFound},
		{"/api/content/et/mustand", http.StatusNotFound},
		{"/api/content/et/katki", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		rec := get(t, api, tt.target)
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.target, rec.Code, tt.want)
			continue
		}
		if resp := decode[ErrorResponse](t, rec); resp.Error == "" {
			t.Errorf("%s: empty error body", tt.target)
		}
	}
}

func TestHandleDocument_SchemaErrorListsFields(t *testing.T) {
	root := contentFS()
	root["et/katki.md"] = doc("title: Katki\nlanguage: et\ntype: detail\nstatus: published\ncategory: etendused", "")
	api := newTestAPI(t, root, nil)

	resp := decode[ErrorResponse](t, get(t, api, "/api/content/et/katki"))
	for _, f := range []string{"type", "category"} {
		if _, ok := resp.Fields[f]; !ok {
			t.Errorf("fields = %v, want %q", resp.Fields, f)
		}
	}
}

func TestHandleDocument_ShowDrafts(t *testing.T) {
	api := newTestAPI(t, contentFS(), func(o *Options) { o.ShowDrafts = true })
	if rec := get(t, api, "/api/content/et/mustand"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

// lists

func TestHandleList(t *testing.T) {
	api := newTestAPI(t, contentFS(), nil)
	rec := get(t, api, "/api/content/et")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[ListResponse](t, rec)
	if resp.Language != content.LanguageET || resp.Count != 3 || len(resp.Documents) != 3 {
		t.Fatalf("resp = %+v, want 3 published documents", resp)
	}
	// ordered documents first, then by slug
	want := []string{"vari", "mura", "index"}
	for i, d := range resp.Documents {
		if d.Frontmatter.Slug != want[i] {
			t.Errorf("Documents[%d] = %q, want %q", i, d.Frontmatter.Slug, want[i])
		}
	}
}

func TestHandleListByType(t *testing.T) {
	api := newTestAPI(t, contentFS(), nil)

	resp := decode[ListResponse](t, get(t, api, "/api/content/et/type/performance"))
	if resp.Type != content.TypePerformance || resp.Count != 2 {
		t.Fatalf("resp = %+v", resp)
	}

	resp = decode[ListResponse](t, get(t, api, "/api/content/en/type/gallery"))
	if resp.Count != 0 || resp.Documents == nil {
		t.Fatalf("empty listing = %+v, want count 0 with [] documents", resp)
	}

	if rec := get(t, api, "/api/content/et/type/section"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown type status = %d, want 404", rec.Code)
	}
}

func TestHandleList_InvalidFileIs422(t *testing.T) {
	root := contentFS()
	root["en/broken.md"] = doc("title: Broken", "")
	api := newTestAPI(t, root, nil)
	if rec := get(t, api, "/api/content/en"); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

// landing

func TestHandleLanding(t *testing.T) {
	api := newTestAPI(t, contentFS(), nil)

	rec := get(t, api, "/api/content/et/landing")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decode[DocumentResponse](t, rec); resp.Frontmatter.Slug != "index" {
		t.Errorf("landing slug = %q", resp.Frontmatter.Slug)
	}

	// en has no landing document
	if rec := get(t, api, "/api/content/en/landing"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing landing status = %d, want 404", rec.Code)
	}
}

// writeError

type errStore struct{ Store }

func (errStore) LoadAll(context.Context, content.Language) ([]*content.Document, error) {
	return nil, errors.New("disk on fire")
}

func TestWriteError_InternalErrorsAreOpaque(t *testing.T) {
	api, err := New(Options{Store: errStore{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := get(t, api, "/api/content/et")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "disk on fire") {
		t.Fatal("internal error text leaked to the client")
	}
}
