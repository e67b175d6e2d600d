// internal/content/loader.go
package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/keithlinneman/zuga-web/internal/log"
	"github.com/keithlinneman/zuga-web/internal/xerrors"
)

const fileExt = ".md"

// LandingSlugs is the well-known home document per language.
var LandingSlugs = map[Language]string{
	LanguageET: "index",
	LanguageEN: "english",
}

// Document is one validated content file.
type Document struct {
	Frontmatter Frontmatter `json:"frontmatter"`
	Body        string      `json:"body"`
	Path        string      `json:"path,omitempty"`
}

// LoadObserver receives the outcome of every single-document load.
// result is one of ok, not_found, invalid, error.
type LoadObserver interface {
	ObserveContentLoad(lang, result string, d time.Duration)
}

type LoaderOptions struct {
	// Root holds one directory per language, each containing <slug>.md files.
	Root fs.FS

	// Parser splits files into frontmatter and body (default YAMLParser).
	Parser Parser

	Logger   log.Logger
	Observer LoadObserver
}

// Loader reads and validates documents from Root. Every call reads the
// files again; nothing is cached, so a Loader is safe for concurrent use.
type Loader struct {
	root     fs.FS
	parser   Parser
	logger   log.Logger
	observer LoadObserver
	tracer   trace.Tracer
}

// NewLoader creates a Loader over opts.Root
func NewLoader(opts LoaderOptions) (*Loader, error) {
	if opts.Root == nil {
		return nil, xerrors.New("content: Root is required")
	}
	if opts.Parser == nil {
		opts.Parser = YAMLParser{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &Loader{
		root:     opts.Root,
		parser:   opts.Parser,
		logger:   opts.Logger,
		observer: opts.Observer,
		tracer:   otel.Tracer("zuga-web/content"),
	}, nil
}

// LoadOne loads and validates <lang>/<slug>.md.
// Returns *NotFoundError when the file does not exist and
// *SchemaValidationError when its frontmatter is invalid.
func (l *Loader) LoadOne(ctx context.Context, lang Language, slug string) (*Document, error) {
	if !lang.Valid() || !ValidSlug(slug) {
		return nil, xerrors.EnsureTrace(&NotFoundError{Language: lang, Slug: slug})
	}
	return l.loadFile(ctx, lang, slug)
}

// LoadAll loads every content file in the language partition, in file
// name order. README files are skipped. A missing partition yields an
// empty slice. The first invalid file aborts the whole call.
func (l *Loader) LoadAll(ctx context.Context, lang Language) ([]*Document, error) {
	names, err := l.Slugs(ctx, lang)
	if err != nil {
		return nil, err
	}
	docs := make([]*Document, 0, len(names))
	for _, name := range names {
		doc, err := l.loadFile(ctx, lang, name)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// LoadByType is LoadAll filtered to documents whose type equals t.
func (l *Loader) LoadByType(ctx context.Context, lang Language, t PageType) ([]*Document, error) {
	all, err := l.LoadAll(ctx, lang)
	if err != nil {
		return nil, err
	}
	out := make([]*Document, 0, len(all))
	for _, d := range all {
		if d.Frontmatter.Type == t {
			out = append(out, d)
		}
	}
	return out, nil
}

// LoadLanding returns the home document for lang: the well-known slug
// first, then the first landing typed document. ok is false when neither
// exists. Schema errors are returned, never treated as absent.
func (l *Loader) LoadLanding(ctx context.Context, lang Language) (doc *Document, ok bool, err error) {
	if slug, known := LandingSlugs[lang]; known {
		doc, err := l.LoadOne(ctx, lang, slug)
		if err == nil {
			return doc, true, nil
		}
		if !IsNotFound(err) {
			return nil, false, err
		}
		l.logger.Debug(ctx, "landing slug missing, scanning partition for landing type",
			"language", lang,
			"slug", slug,
		)
	}

	landings, err := l.LoadByType(ctx, lang, TypeLanding)
	if err != nil {
		return nil, false, err
	}
	if len(landings) == 0 {
		return nil, false, nil
	}
	return landings[0], true, nil
}

// ResolveTranslation loads the first translation referenced by doc.
// ok is false when doc has no translations or the reference is broken;
// the not-found error is never returned to the caller.
func (l *Loader) ResolveTranslation(ctx context.Context, doc *Document) (tr *Document, ok bool, err error) {
	if doc == nil || len(doc.Frontmatter.Translated) == 0 {
		return nil, false, nil
	}
	ref := doc.Frontmatter.Translated[0]
	tr, err = l.LoadOne(ctx, ref.Language, ref.Slug)
	if err != nil {
		if IsNotFound(err) {
			l.logger.Warn(ctx, "broken translation reference",
				"language", doc.Frontmatter.Language,
				"slug", doc.Frontmatter.Slug,
				"target_language", ref.Language,
				"target_slug", ref.Slug,
			)
			return nil, false, nil
		}
		return nil, false, err
	}
	return tr, true, nil
}

// Slugs lists the content file stems in the language partition, sorted.
// README files and non-markdown files are skipped.
func (l *Loader) Slugs(ctx context.Context, lang Language) ([]string, error) {
	if !lang.Valid() {
		return []string{}, nil
	}
	entries, err := fs.ReadDir(l.root, string(lang))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Debug(ctx, "content partition missing", "language", lang)
			return []string{}, nil
		}
		return nil, xerrors.Wrapf(err, "list content partition %s", lang)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), fileExt)
		if strings.EqualFold(stem, "readme") {
			continue
		}
		names = append(names, stem)
	}
	sort.Strings(names)
	return names, nil
}

func filePath(lang Language, name string) string {
	return path.Join(string(lang), name+fileExt)
}

// loadFile does the actual read/parse/validate of <lang>/<name>.md.
// name is trusted here: it comes from LoadOne's slug check or from ReadDir.
func (l *Loader) loadFile(ctx context.Context, lang Language, name string) (*Document, error) {
	start := time.Now()
	p := filePath(lang, name)

	ctx, span := l.tracer.Start(ctx, "content.load",
		trace.WithAttributes(
			attribute.String("content.language", string(lang)),
			attribute.String("content.path", p),
		),
	)
	defer span.End()

	doc, err := l.readDocument(lang, name, p)
	l.observe(lang, err, time.Since(start))

	if err != nil {
		if !IsNotFound(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "content load failed")
		}
		l.logger.Debug(ctx, "content load failed", "path", p, "error", err)
		return nil, xerrors.EnsureTrace(err)
	}

	l.logger.Debug(ctx, "content loaded",
		"path", p,
		"type", doc.Frontmatter.Type,
		"status", doc.Frontmatter.Status,
	)
	return doc, nil
}

func (l *Loader) readDocument(lang Language, name, p string) (*Document, error) {
	data, err := fs.ReadFile(l.root, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Language: lang, Slug: name}
		}
		return nil, xerrors.Wrapf(err, "read %s", p)
	}

	raw, body, err := ParseDocument(l.parser, data)
	if err != nil {
		var se *SchemaValidationError
		if errors.As(err, &se) {
			se.Path = p
		}
		return nil, err
	}

	// slug may be omitted and derived from the file name
	if raw.Slug == "" {
		raw.Slug = name
	}

	fm, err := ValidateFrontmatter(raw)
	if err != nil {
		se := err.(*SchemaValidationError)
		se.Path = p
		addPartitionMismatch(se, raw.Language, lang)
		return nil, se
	}
	if fm.Language != lang {
		se := &SchemaValidationError{Path: p, Fields: map[string]string{}}
		addPartitionMismatch(se, raw.Language, lang)
		return nil, se
	}

	return &Document{Frontmatter: fm, Body: body, Path: p}, nil
}

func addPartitionMismatch(se *SchemaValidationError, declared string, partition Language) {
	if declared == "" || declared == string(partition) {
		return
	}
	if _, exists := se.Fields["language"]; exists {
		return
	}
	se.Fields["language"] = fmt.Sprintf("%q does not match partition %q", declared, partition)
}

func (l *Loader) observe(lang Language, err error, d time.Duration) {
	if l.observer == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case IsNotFound(err):
		result = "not_found"
	case IsSchemaError(err):
		result = "invalid"
	default:
		result = "error"
	}
	l.observer.ObserveContentLoad(string(lang), result, d)
}

// SortByOrder orders docs by their order hint (documents without one go
// last), then by slug. It sorts in place and returns docs.
func SortByOrder(docs []*Document) []*Document {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i].Frontmatter, docs[j].Frontmatter
		switch {
		case a.Order != nil && b.Order != nil && *a.Order != *b.Order:
			return *a.Order < *b.Order
		case a.Order != nil && b.Order == nil:
			return true
		case a.Order == nil && b.Order != nil:
			return false
		}
		return a.Slug < b.Slug
	})
	return docs
}

// Published returns only the documents with status published.
func Published(docs []*Document) []*Document {
	out := make([]*Document, 0, len(docs))
	for _, d := range docs {
		if d.Frontmatter.Published() {
			out = append(out, d)
		}
	}
	return out
}
