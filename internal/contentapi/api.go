// Package contentapi serves validated content documents as JSON under
// /api/content.
package contentapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/zuga-web/internal/bundle"
	"github.com/keithlinneman/zuga-web/internal/content"
	"github.com/keithlinneman/zuga-web/internal/log"
	"github.com/keithlinneman/zuga-web/internal/render"
	"github.com/keithlinneman/zuga-web/internal/version"
)

// Store is the part of the content loader the API reads through.
type Store interface {
	LoadOne(ctx context.Context, lang content.Language, slug string) (*content.Document, error)
	LoadAll(ctx context.Context, lang content.Language) ([]*content.Document, error)
	LoadByType(ctx context.Context, lang content.Language, t content.PageType) ([]*content.Document, error)
	LoadLanding(ctx context.Context, lang content.Language) (*content.Document, bool, error)
}

type Renderer interface {
	HTML(body string) (template.HTML, error)
}

type Options struct {
	Store    Store
	Renderer Renderer // default: render.New()
	Logger   log.Logger
	// Meta describes the content root being served.
	Meta bundle.Meta
	// ShowDrafts includes draft documents in every response.
	ShowDrafts bool
}

// API implements the content endpoints.
type API struct {
	opts Options
	now  func() time.Time
}

func New(opts Options) (*API, error) {
	if opts.Store == nil {
		return nil, errors.New("contentapi: Store is required")
	}
	if opts.Renderer == nil {
		opts.Renderer = render.New()
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &API{opts: opts, now: time.Now}, nil
}

// RegisterRoutes attaches the content endpoints to the router.
func (api *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/content", func(r chi.Router) {
		r.Get("/meta", api.HandleMeta)
		r.Get("/{lang}", api.HandleList)
		r.Get("/{lang}/landing", api.HandleLanding)
		r.Get("/{lang}/type/{type}", api.HandleListByType)
		r.Get("/{lang}/{slug}", api.HandleDocument)
	})
}

// HandleMeta serves bundle metadata and build info.
func (api *API) HandleMeta(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(r.Context(), w, http.StatusOK, MetaResponse{
		Bundle:        api.opts.Meta,
		SchemaVersion: content.SchemaVersion,
		Languages:     content.Languages,
		PageTypes:     content.PageTypes,
		Build:         version.Get(),
		ServerTime:    api.now().UTC().Truncate(time.Second),
	})
}

// HandleList serves every visible document of a language.
func (api *API) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang, ok := api.language(w, r)
	if !ok {
		return
	}
	docs, err := api.opts.Store.LoadAll(ctx, lang)
	if err != nil {
		api.writeError(ctx, w, err)
		return
	}
	api.writeList(w, r, lang, "", docs)
}

// HandleListByType serves the visible documents of one page type.
func (api *API) HandleListByType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang, ok := api.language(w, r)
	if !ok {
		return
	}
	t := content.PageType(chi.URLParam(r, "type"))
	if !t.Valid() {
		api.writeJSON(ctx, w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("unknown page type %q", t)})
		return
	}
	docs, err := api.opts.Store.LoadByType(ctx, lang, t)
	if err != nil {
		api.writeError(ctx, w, err)
		return
	}
	api.writeList(w, r, lang, t, docs)
}

// HandleLanding serves the landing document of a language.
func (api *API) HandleLanding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang, ok := api.language(w, r)
	if !ok {
		return
	}
	doc, found, err := api.opts.Store.LoadLanding(ctx, lang)
	if err != nil {
		api.writeError(ctx, w, err)
		return
	}
	if !found || !api.visible(doc) {
		api.writeJSON(ctx, w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("no landing page for %s", lang)})
		return
	}
	api.writeDocument(w, r, doc)
}

// HandleDocument serves one document by slug.
func (api *API) HandleDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang, ok := api.language(w, r)
	if !ok {
		return
	}
	doc, err := api.opts.Store.LoadOne(ctx, lang, chi.URLParam(r, "slug"))
	if err != nil {
		api.writeError(ctx, w, err)
		return
	}
	if !api.visible(doc) {
		api.writeError(ctx, w, &content.NotFoundError{Language: lang, Slug: doc.Frontmatter.Slug})
		return
	}
	api.writeDocument(w, r, doc)
}

func (api *API) language(w http.ResponseWriter, r *http.Request) (content.Language, bool) {
	lang := content.Language(chi.URLParam(r, "lang"))
	if !lang.Valid() {
		api.writeJSON(r.Context(), w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("unsupported language %q", lang)})
		return "", false
	}
	return lang, true
}

func (api *API) visible(doc *content.Document) bool {
	return api.opts.ShowDrafts || doc.Frontmatter.Published()
}

func wantsRender(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("render"))
	return err == nil && v
}

func (api *API) document(doc *content.Document, rendered bool) (DocumentResponse, error) {
	resp := DocumentResponse{
		Frontmatter: doc.Frontmatter,
		Body:        doc.Body,
		Path:        doc.Path,
	}
	if rendered {
		html, err := api.opts.Renderer.HTML(doc.Body)
		if err != nil {
			return DocumentResponse{}, err
		}
		resp.HTML = string(html)
		resp.Rendered = true
	}
	return resp, nil
}

func (api *API) writeDocument(w http.ResponseWriter, r *http.Request, doc *content.Document) {
	resp, err := api.document(doc, wantsRender(r))
	if err != nil {
		api.writeError(r.Context(), w, err)
		return
	}
	api.opts.Logger.Debug(r.Context(), "served content document",
		"language", doc.Frontmatter.Language,
		"slug", doc.Frontmatter.Slug,
	)
	api.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (api *API) writeList(w http.ResponseWriter, r *http.Request, lang content.Language, t content.PageType, docs []*content.Document) {
	if !api.opts.ShowDrafts {
		docs = content.Published(docs)
	}
	docs = content.SortByOrder(docs)

	rendered := wantsRender(r)
	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		resp, err := api.document(d, rendered)
		if err != nil {
			api.writeError(r.Context(), w, err)
			return
		}
		out = append(out, resp)
	}
	api.writeJSON(r.Context(), w, http.StatusOK, ListResponse{
		Language:  lang,
		Type:      t,
		Count:     len(out),
		Documents: out,
	})
}

// writeError maps loader errors to status codes: not found is 404, an
// invalid document 422 with its field messages, anything else 500.
func (api *API) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var se *content.SchemaValidationError
	switch {
	case content.IsNotFound(err):
		api.writeJSON(ctx, w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.As(err, &se):
		api.opts.Logger.Warn(ctx, "served invalid content document", "error", err)
		api.writeJSON(ctx, w, http.StatusUnprocessableEntity, ErrorResponse{Error: se.Error(), Fields: se.Fields})
	default:
		api.opts.Logger.Error(ctx, err, "content api request failed")
		api.writeJSON(ctx, w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func (api *API) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.opts.Logger.Warn(ctx, "failed to encode JSON response", "error", err)
	}
}
