// Package render turns document bodies into sanitized HTML.
package render

import (
	"bytes"
	"html/template"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/keithlinneman/zuga-web/internal/xerrors"
)

// embedSrc limits iframes to the two video hosts the schema allows.
var embedSrc = regexp.MustCompile(`^https://(www\.youtube(-nocookie)?\.com/embed/|player\.vimeo\.com/video/)[A-Za-z0-9_-]+`)

// Renderer converts markdown to HTML. It holds no per-call state and is
// safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		// scraped pages carry inline html; the policy below scrubs it
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	return &Renderer{md: md, policy: newPolicy()}
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("figure", "figcaption", "iframe")
	p.AllowAttrs("class").OnElements("figure", "figcaption", "p", "span", "div")
	p.AllowAttrs("loading").OnElements("img", "iframe")
	p.AllowAttrs("width", "height", "title", "allowfullscreen", "frameborder").OnElements("iframe")
	p.AllowAttrs("src").Matching(embedSrc).OnElements("iframe")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// HTML renders body and returns markup safe to place in a template.
func (r *Renderer) HTML(body string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", xerrors.Wrap(err, "render markdown")
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil
}
