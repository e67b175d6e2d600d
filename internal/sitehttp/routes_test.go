package sitehttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

// stubSite records which handler served the request and the URL params
// chi handed it.
type stubSite struct {
	route  string
	params map[string]string
}

func (s *stubSite) hit(route string, keys ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.route = route
		s.params = map[string]string{}
		for _, k := range keys {
			s.params[k] = chi.URLParam(r, k)
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (s *stubSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.hit("fallback")(w, r)
}
func (s *stubSite) Root(w http.ResponseWriter, r *http.Request) { s.hit("root")(w, r) }
func (s *stubSite) LangRoot(w http.ResponseWriter, r *http.Request) {
	s.hit("langroot", "lang")(w, r)
}
func (s *stubSite) Landing(w http.ResponseWriter, r *http.Request) {
	s.hit("landing", "lang")(w, r)
}
func (s *stubSite) Page(w http.ResponseWriter, r *http.Request) {
	s.hit("page", "lang", "slug")(w, r)
}
func (s *stubSite) TypeListing(w http.ResponseWriter, r *http.Request) {
	s.hit("type", "lang", "type")(w, r)
}
func (s *stubSite) Static(w http.ResponseWriter, r *http.Request) { s.hit("static", "*")(w, r) }

func newRouter(site Site, extra ...func(chi.Router)) chi.Router {
	r := chi.NewRouter()
	for _, reg := range extra {
		reg(r)
	}
	New(site).RegisterRoutes(r)
	return r
}

func TestRegisterRoutes_Dispatch(t *testing.T) {
	tests := []struct {
		method string
		path   string
		route  string
		params map[string]string
	}{
		{"GET", "/", "root", nil},
		{"GET", "/et", "langroot", map[string]string{"lang": "et"}},
		{"GET", "/et/", "landing", map[string]string{"lang": "et"}},
		{"HEAD", "/en/", "landing", map[string]string{"lang": "en"}},
		{"GET", "/en/noise", "page", map[string]string{"lang": "en", "slug": "noise"}},
		{"GET", "/et/type/performance", "type", map[string]string{"lang": "et", "type": "performance"}},
		{"GET", "/static/site.css", "static", map[string]string{"*": "site.css"}},
		{"GET", "/static/img/logo.svg", "static", map[string]string{"*": "img/logo.svg"}},
		{"GET", "/et/a/b/c", "fallback", nil},
		{"POST", "/et/", "fallback", nil},
		{"DELETE", "/", "fallback", nil},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			site := &stubSite{}
			rec := httptest.NewRecorder()
			newRouter(site).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if site.route != tt.route {
				t.Fatalf("route = %q, want %q", site.route, tt.route)
			}
			for k, want := range tt.params {
				if got := site.params[k]; got != want {
					t.Errorf("param %s = %q, want %q", k, got, want)
				}
			}
		})
	}
}

func TestRegisterRoutes_OtherRegistrarsKeepPrecedence(t *testing.T) {
	site := &stubSite{}
	api := func(r chi.Router) {
		r.Get("/api/content/{lang}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	}
	rec := httptest.NewRecorder()
	newRouter(site, api).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/content/et", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want api handler", rec.Code)
	}
	if site.route != "" {
		t.Fatalf("site route %q served an api path", site.route)
	}
}
