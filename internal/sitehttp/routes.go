package sitehttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Site is the set of page handlers behind the public routes.
// ServeHTTP answers everything no route matches.
type Site interface {
	http.Handler
	Root(w http.ResponseWriter, r *http.Request)
	LangRoot(w http.ResponseWriter, r *http.Request)
	Landing(w http.ResponseWriter, r *http.Request)
	Page(w http.ResponseWriter, r *http.Request)
	TypeListing(w http.ResponseWriter, r *http.Request)
	Static(w http.ResponseWriter, r *http.Request)
}

type Routes struct {
	Site Site
}

func New(site Site) *Routes {
	return &Routes{Site: site}
}

// RegisterRoutes should be passed LAST so it becomes the final fallback.
// Static segments (api, static) win over the {lang} parameter in chi, so
// other registrars keep their prefixes.
func (rt *Routes) RegisterRoutes(r chi.Router) {
	s := rt.Site
	getHead(r, "/", s.Root)
	getHead(r, "/static/*", s.Static)
	getHead(r, "/{lang}", s.LangRoot)
	getHead(r, "/{lang}/", s.Landing)
	getHead(r, "/{lang}/type/{type}", s.TypeListing)
	getHead(r, "/{lang}/{slug}", s.Page)

	r.NotFound(s.ServeHTTP)
	r.MethodNotAllowed(s.ServeHTTP)
}

func getHead(r chi.Router, pattern string, fn http.HandlerFunc) {
	r.Get(pattern, fn)
	r.Head(pattern, fn)
}
