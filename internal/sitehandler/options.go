package sitehandler

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"

	"github.com/keithlinneman/zuga-web/internal/content"
	"github.com/keithlinneman/zuga-web/internal/log"
	"github.com/keithlinneman/zuga-web/internal/render"
	"github.com/keithlinneman/zuga-web/internal/webassets"
)

var ErrInvalidOptions = errors.New("sitehandler: invalid options")

// Store is the read side of the content loader the pages need.
type Store interface {
	LoadOne(ctx context.Context, lang content.Language, slug string) (*content.Document, error)
	LoadByType(ctx context.Context, lang content.Language, t content.PageType) ([]*content.Document, error)
	LoadLanding(ctx context.Context, lang content.Language) (*content.Document, bool, error)
	ResolveTranslation(ctx context.Context, doc *content.Document) (*content.Document, bool, error)
}

type Renderer interface {
	HTML(body string) (template.HTML, error)
}

type Options struct {
	Logger   log.Logger
	Store    Store
	Renderer Renderer // default: render.New()

	// embedded webassets trees when nil
	TemplatesFS fs.FS
	StaticFS    fs.FS
	FallbackFS  fs.FS

	DefaultLanguage content.Language // default: et
	// ShowDrafts makes draft documents reachable and listed.
	ShowDrafts bool

	// Cache policies applied by file extension.
	HTMLCacheControl  string // default: "no-cache"
	AssetCacheControl string // default: "public, max-age=86400"
	OtherCacheControl string // default: "public, max-age=3600"
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
	if o.Renderer == nil {
		o.Renderer = render.New()
	}
	if o.TemplatesFS == nil {
		o.TemplatesFS = webassets.TemplatesFS()
	}
	if o.StaticFS == nil {
		o.StaticFS = webassets.StaticFS()
	}
	if o.FallbackFS == nil {
		o.FallbackFS = webassets.FallbackFS()
	}
	if o.DefaultLanguage == "" {
		o.DefaultLanguage = content.LanguageET
	}
	if o.HTMLCacheControl == "" {
		o.HTMLCacheControl = "no-cache"
	}
	if o.AssetCacheControl == "" {
		o.AssetCacheControl = "public, max-age=86400"
	}
	if o.OtherCacheControl == "" {
		o.OtherCacheControl = "public, max-age=3600"
	}
}

func (o *Options) validate() error {
	if o.Store == nil {
		return fmt.Errorf("%w: Store is nil", ErrInvalidOptions)
	}
	if !o.DefaultLanguage.Valid() {
		return fmt.Errorf("%w: unsupported default language %q", ErrInvalidOptions, o.DefaultLanguage)
	}
	return nil
}
