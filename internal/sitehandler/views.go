package sitehandler

import (
	"html/template"
	"io/fs"
	"net/url"
	"regexp"

	"github.com/keithlinneman/zuga-web/internal/content"
	"github.com/keithlinneman/zuga-web/internal/xerrors"
)

const (
	tmplPage    = "page.html"
	tmplLanding = "landing.html"
	tmplList    = "list.html"
	tmplError   = "error.html"
)

// navTypes are the listing pages linked from the header, in order.
var navTypes = []content.PageType{
	content.TypePerformance,
	content.TypeWorkshop,
	content.TypeNews,
	content.TypeGallery,
	content.TypeAbout,
	content.TypeContact,
}

var typeLabels = map[content.Language]map[content.PageType]string{
	content.LanguageET: {
		content.TypePerformance: "Etendused",
		content.TypeWorkshop:    "Töötoad",
		content.TypeNews:        "Uudised",
		content.TypeGallery:     "Galerii",
		content.TypeAbout:       "Meist",
		content.TypeContact:     "Kontakt",
		content.TypeLanding:     "Avaleht",
	},
	content.LanguageEN: {
		content.TypePerformance: "Performances",
		content.TypeWorkshop:    "Workshops",
		content.TypeNews:        "News",
		content.TypeGallery:     "Gallery",
		content.TypeAbout:       "About",
		content.TypeContact:     "Contact",
		content.TypeLanding:     "Home",
	},
}

var languageLabels = map[content.Language]string{
	content.LanguageET: "Eesti",
	content.LanguageEN: "English",
}

var stateMessages = map[content.Language]map[int]string{
	content.LanguageET: {404: "Lehte ei leitud.", 500: "Midagi läks valesti."},
	content.LanguageEN: {404: "Page not found.", 500: "Something went wrong."},
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type navLink struct {
	Href   string
	Label  string
	Active bool
}

type langLink struct {
	Lang  content.Language
	Href  string
	Label string
}

type listItem struct {
	Href        string
	Title       string
	Description string
	Image       string
}

type view struct {
	Lang        content.Language
	Title       string
	Description string
	Background  template.CSS
	Nav         []navLink
	Translation *langLink

	Doc  *content.Document
	Body template.HTML

	ListTitle string
	Items     []listItem

	Status  int
	Message string
}

func typeLabel(lang content.Language, t content.PageType) string {
	if l, ok := typeLabels[lang][t]; ok {
		return l
	}
	return string(t)
}

func langRoot(lang content.Language) string { return "/" + string(lang) + "/" }

func pageHref(lang content.Language, slug string) string {
	return langRoot(lang) + url.PathEscape(slug)
}

func typeHref(lang content.Language, t content.PageType) string {
	return langRoot(lang) + "type/" + url.PathEscape(string(t))
}

func newView(lang content.Language, active content.PageType) view {
	nav := make([]navLink, 0, len(navTypes))
	for _, t := range navTypes {
		nav = append(nav, navLink{Href: typeHref(lang, t), Label: typeLabel(lang, t), Active: t == active})
	}
	return view{Lang: lang, Nav: nav}
}

func translationLink(lang content.Language, href string) *langLink {
	return &langLink{Lang: lang, Href: href, Label: languageLabels[lang]}
}

func background(color string) template.CSS {
	if hexColor.MatchString(color) {
		return template.CSS(color)
	}
	return ""
}

func listItems(lang content.Language, docs []*content.Document) []listItem {
	items := make([]listItem, 0, len(docs))
	for _, d := range docs {
		fm := d.Frontmatter
		img := fm.HeroImage
		if img == "" && len(fm.Gallery) > 0 {
			img = fm.Gallery[0].URL
		}
		items = append(items, listItem{
			Href:        pageHref(lang, fm.Slug),
			Title:       fm.Title,
			Description: fm.Description,
			Image:       img,
		})
	}
	return items
}

// embedURL is the privacy-enhanced player address for a video.
func embedURL(v content.Video) string {
	id := url.PathEscape(v.VideoID)
	if v.Platform == content.PlatformVimeo {
		return "https://player.vimeo.com/video/" + id
	}
	return "https://www.youtube-nocookie.com/embed/" + id
}

// parseTemplates builds one template set per page, each holding the
// shared layout and item list plus the page's own "content" block.
func parseTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	base, err := template.New("").Funcs(template.FuncMap{
		"embedURL": embedURL,
	}).ParseFS(fsys, "layout.html", "items.html")
	if err != nil {
		return nil, xerrors.Wrap(err, "parse layout templates")
	}
	pages := make(map[string]*template.Template, 4)
	for _, name := range []string{tmplPage, tmplLanding, tmplList, tmplError} {
		t, err := base.Clone()
		if err != nil {
			return nil, xerrors.Wrapf(err, "clone layout for %s", name)
		}
		if t, err = t.ParseFS(fsys, name); err != nil {
			return nil, xerrors.Wrapf(err, "parse template %s", name)
		}
		pages[name] = t
	}
	return pages, nil
}
