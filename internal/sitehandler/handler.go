package sitehandler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/keithlinneman/zuga-web/internal/content"
)

// Handler renders the public site from validated content. Every request
// loads its documents again; nothing is cached between requests.
type Handler struct {
	opts    Options
	pages   map[string]*template.Template
	matcher language.Matcher
	// matchLangs[i] is the content language for matcher tag i
	matchLangs []content.Language
}

func New(opts Options) (*Handler, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	pages, err := parseTemplates(opts.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	// the default language goes first so it wins when nothing matches
	langs := []content.Language{opts.DefaultLanguage, opts.DefaultLanguage.Other()}
	tags := make([]language.Tag, len(langs))
	for i, l := range langs {
		tags[i] = language.Make(string(l))
	}

	return &Handler{
		opts:       opts,
		pages:      pages,
		matcher:    language.NewMatcher(tags),
		matchLangs: langs,
	}, nil
}

// Root redirects to the landing page of the visitor's preferred language.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Vary", "Accept-Language")
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, langRoot(h.negotiate(r)), http.StatusFound)
}

// LangRoot redirects /{lang} to the canonical /{lang}/.
func (h *Handler) LangRoot(w http.ResponseWriter, r *http.Request) {
	lang, ok := h.language(w, r)
	if !ok {
		return
	}
	http.Redirect(w, r, langRoot(lang), http.StatusPermanentRedirect)
}

// Landing serves /{lang}/: the landing document plus the performance list.
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	lang, ok := h.language(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	doc, found, err := h.opts.Store.LoadLanding(ctx, lang)
	if err != nil {
		h.serveLoadError(w, r, lang, err)
		return
	}
	if !found || !h.visible(doc) {
		h.serveState(w, r, lang, http.StatusNotFound)
		return
	}

	v, err := h.documentView(r, doc, content.TypeLanding)
	if err != nil {
		h.serveLoadError(w, r, lang, err)
		return
	}
	if v.Translation == nil {
		v.Translation = translationLink(lang.Other(), langRoot(lang.Other()))
	}

	// an unreadable partition costs the landing page its list, not the page
	perf, err := h.opts.Store.LoadByType(ctx, lang, content.TypePerformance)
	if err != nil {
		h.opts.Logger.Warn(ctx, "landing page rendered without performance list",
			"language", lang,
			"error", err,
		)
	} else {
		v.ListTitle = typeLabel(lang, content.TypePerformance)
		v.Items = listItems(lang, h.visibleSorted(perf))
	}

	h.render(w, r, http.StatusOK, tmplLanding, v)
}

// Page serves /{lang}/{slug}.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	lang, ok := h.language(w, r)
	if !ok {
		return
	}
	doc, err := h.opts.Store.LoadOne(r.Context(), lang, chi.URLParam(r, "slug"))
	if err != nil {
		h.serveLoadError(w, r, lang, err)
		return
	}
	if !h.visible(doc) {
		h.serveState(w, r, lang, http.StatusNotFound)
		return
	}
	v, err := h.documentView(r, doc, doc.Frontmatter.Type)
	if err != nil {
		h.serveLoadError(w, r, lang, err)
		return
	}
	h.render(w, r, http.StatusOK, tmplPage, v)
}

// TypeListing serves /{lang}/type/{type}.
func (h *Handler) TypeListing(w http.ResponseWriter, r *http.Request) {
	lang, ok := h.language(w, r)
	if !ok {
		return
	}
	t := content.PageType(chi.URLParam(r, "type"))
	if !t.Valid() || t == content.TypeLanding {
		h.serveState(w, r, lang, http.StatusNotFound)
		return
	}
	docs, err := h.opts.Store.LoadByType(r.Context(), lang, t)
	if err != nil {
		h.serveLoadError(w, r, lang, err)
		return
	}

	v := newView(lang, t)
	v.Title = typeLabel(lang, t)
	v.Items = listItems(lang, h.visibleSorted(docs))
	v.Translation = translationLink(lang.Other(), typeHref(lang.Other(), t))
	h.render(w, r, http.StatusOK, tmplList, v)
}

// Static serves /static/* from the embedded asset tree.
func (h *Handler) Static(w http.ResponseWriter, r *http.Request) {
	file, ok := resolveAsset(chi.URLParam(r, "*"), h.opts.StaticFS)
	if !ok {
		h.serveState(w, r, h.opts.DefaultLanguage, http.StatusNotFound)
		return
	}
	if cc := cacheControlForFile(file, h.opts); cc != "" {
		w.Header().Set("Cache-Control", cc)
	}
	http.ServeFileFS(w, r, h.opts.StaticFS, file)
}

// ServeHTTP is the fallback for unmatched paths and methods.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// hardening: only allow GET/HEAD
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	lang := h.opts.DefaultLanguage
	if first, _, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/"); content.Language(first).Valid() {
		lang = content.Language(first)
	}
	h.serveState(w, r, lang, http.StatusNotFound)
}

func (h *Handler) negotiate(r *http.Request) content.Language {
	prefs, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(prefs) == 0 {
		return h.opts.DefaultLanguage
	}
	_, idx, conf := h.matcher.Match(prefs...)
	if conf == language.No {
		return h.opts.DefaultLanguage
	}
	return h.matchLangs[idx]
}

// language reads the {lang} URL parameter, serving the 404 page itself
// when it is not a supported language.
func (h *Handler) language(w http.ResponseWriter, r *http.Request) (content.Language, bool) {
	lang := content.Language(chi.URLParam(r, "lang"))
	if !lang.Valid() {
		h.serveState(w, r, h.opts.DefaultLanguage, http.StatusNotFound)
		return "", false
	}
	return lang, true
}

func (h *Handler) visible(doc *content.Document) bool {
	return h.opts.ShowDrafts || doc.Frontmatter.Published()
}

func (h *Handler) visibleSorted(docs []*content.Document) []*content.Document {
	if !h.opts.ShowDrafts {
		docs = content.Published(docs)
	}
	return content.SortByOrder(docs)
}

// documentView renders doc's body and resolves its translation link.
func (h *Handler) documentView(r *http.Request, doc *content.Document, active content.PageType) (view, error) {
	fm := doc.Frontmatter
	v := newView(fm.Language, active)
	v.Title = fm.Title
	v.Description = fm.Description
	v.Background = background(fm.BackgroundColor)
	v.Doc = doc

	body, err := h.opts.Renderer.HTML(doc.Body)
	if err != nil {
		return view{}, err
	}
	v.Body = body

	tr, ok, err := h.opts.Store.ResolveTranslation(r.Context(), doc)
	if err != nil {
		// a broken counterpart must not take the page down with it
		h.opts.Logger.Warn(r.Context(), "translation not resolvable",
			"language", fm.Language,
			"slug", fm.Slug,
			"error", err,
		)
	} else if ok && h.visible(tr) {
		v.Translation = translationLink(tr.Frontmatter.Language, pageHref(tr.Frontmatter.Language, tr.Frontmatter.Slug))
	}
	return v, nil
}

func (h *Handler) serveLoadError(w http.ResponseWriter, r *http.Request, lang content.Language, err error) {
	if content.IsNotFound(err) {
		h.serveState(w, r, lang, http.StatusNotFound)
		return
	}
	msg := "content load failed"
	if content.IsSchemaError(err) {
		msg = "content failed schema validation"
	}
	h.opts.Logger.Error(r.Context(), err, msg,
		"language", lang,
		"url.path", r.URL.Path,
	)
	h.serveState(w, r, lang, http.StatusInternalServerError)
}

// serveState renders the themed 404/500 page.
func (h *Handler) serveState(w http.ResponseWriter, r *http.Request, lang content.Language, status int) {
	v := newView(lang, "")
	v.Status = status
	v.Message = stateMessages[lang][status]
	v.Title = v.Message
	h.render(w, r, status, tmplError, v)
}

// render executes the page into a buffer first so a template failure can
// still produce a clean 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, v view) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", v); err != nil {
		h.opts.Logger.Error(r.Context(), err, "template execution failed", "template", name)
		if status < http.StatusInternalServerError {
			status = http.StatusInternalServerError
		}
		h.serveFallback(w, r, status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status == http.StatusOK {
		w.Header().Set("Cache-Control", h.opts.HTMLCacheControl)
	} else {
		// never cache error states
		w.Header().Set("Cache-Control", "no-store")
	}
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// serveFallback serves the plain embedded state page, or text when the
// fallback tree has none for status.
func (h *Handler) serveFallback(w http.ResponseWriter, r *http.Request, status int) {
	w.Header().Set("Cache-Control", "no-store")
	name := fmt.Sprintf("%d.html", status)
	if existsFile(h.opts.FallbackFS, name) {
		serveFileWithStatus(w, r, status, h.opts.FallbackFS, name)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, "%d %s", status, strings.ToLower(http.StatusText(status)))
}

// http.ServeFileFS picks its own status code, so the first WriteHeader
// call is overridden with the one we want.
type statusOverrideWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusOverrideWriter) WriteHeader(code int) {
	if w.wroteHeader {
		w.ResponseWriter.WriteHeader(code)
		return
	}
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(w.status)
}

func (w *statusOverrideWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(w.status)
	}
	return w.ResponseWriter.Write(b)
}

func serveFileWithStatus(w http.ResponseWriter, r *http.Request, status int, fsys fs.FS, name string) {
	sw := &statusOverrideWriter{ResponseWriter: w, status: status}
	http.ServeFileFS(sw, r, fsys, name)
}
