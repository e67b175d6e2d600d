package content

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

// SchemaVersion identifies the frontmatter scheme this package accepts.
// v1 is the flat page type classification; files still carrying the
// hierarchical home/section/detail + category scheme must be migrated
// (see zugactl migrate-type) before they validate.
const SchemaVersion = "zuga.page/v1"

type Language string

const (
	LanguageET Language = "et"
	LanguageEN Language = "en"
)

// Languages lists the supported content partitions in display order.
var Languages = []Language{LanguageET, LanguageEN}

func (l Language) Valid() bool { return l == LanguageET || l == LanguageEN }

// Other returns the counterpart language of a bilingual pair.
func (l Language) Other() Language {
	if l == LanguageET {
		return LanguageEN
	}
	return LanguageET
}

type Status string

const (
	StatusPublished Status = "published"
	StatusDraft     Status = "draft"
)

type PageType string

const (
	TypePerformance PageType = "performance"
	TypeAbout       PageType = "about"
	TypeWorkshop    PageType = "workshop"
	TypeNews        PageType = "news"
	TypeGallery     PageType = "gallery"
	TypeContact     PageType = "contact"
	TypeLanding     PageType = "landing"
)

var PageTypes = []PageType{
	TypePerformance, TypeAbout, TypeWorkshop, TypeNews, TypeGallery, TypeContact, TypeLanding,
}

func (t PageType) Valid() bool {
	for _, v := range PageTypes {
		if v == t {
			return true
		}
	}
	return false
}

type MediaType string

const (
	MediaImage           MediaType = "image"
	MediaBackgroundImage MediaType = "background_image"
	MediaGalleryItem     MediaType = "gallery_item"
	MediaSiteLogo        MediaType = "site_logo"
	MediaHero            MediaType = "hero"
	MediaVideo           MediaType = "video"
	MediaYouTube         MediaType = "youtube"
)

var MediaTypes = []MediaType{
	MediaImage, MediaBackgroundImage, MediaGalleryItem, MediaSiteLogo, MediaHero, MediaVideo, MediaYouTube,
}

type VideoPlatform string

const (
	PlatformYouTube VideoPlatform = "youtube"
	PlatformVimeo   VideoPlatform = "vimeo"
)

// hierarchical scheme values that predate v1
var legacyHierarchicalTypes = []string{"home", "section", "detail"}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidSlug reports whether s is a well-formed slug.
func ValidSlug(s string) bool { return slugPattern.MatchString(s) }

// GalleryItem is one image in a page gallery.
type GalleryItem struct {
	URL         string `yaml:"url" json:"url"`
	Width       *int   `yaml:"width,omitempty" json:"width,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

func (g GalleryItem) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.URL, validation.Required, validation.By(urlOrRootPath)),
		validation.Field(&g.Width, validation.By(positiveInt)),
	)
}

// Video is an embedded video hosted on youtube or vimeo.
type Video struct {
	Platform VideoPlatform `yaml:"platform" json:"platform"`
	VideoID  string        `yaml:"video_id" json:"video_id"`
	Title    string        `yaml:"title,omitempty" json:"title,omitempty"`
	URL      string        `yaml:"url" json:"url"`
}

func (v Video) Validate() error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.Platform, validation.Required, validation.In(PlatformYouTube, PlatformVimeo).Error("must be youtube or vimeo")),
		validation.Field(&v.VideoID, validation.Required),
		validation.Field(&v.URL, validation.Required, is.RequestURL),
	)
}

// MediaItem is a unified media reference (images, backgrounds, videos).
type MediaItem struct {
	Type        MediaType     `yaml:"type" json:"type"`
	URL         string        `yaml:"url" json:"url"`
	ID          string        `yaml:"id,omitempty" json:"id,omitempty"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Context     string        `yaml:"context,omitempty" json:"context,omitempty"`
	Platform    VideoPlatform `yaml:"platform,omitempty" json:"platform,omitempty"`
	VideoID     string        `yaml:"video_id,omitempty" json:"video_id,omitempty"`
	Title       string        `yaml:"title,omitempty" json:"title,omitempty"`
	Width       string        `yaml:"width,omitempty" json:"width,omitempty"`
	Styling     string        `yaml:"styling,omitempty" json:"styling,omitempty"`
}

func (m MediaItem) Validate() error {
	mediaTypes := make([]any, len(MediaTypes))
	for i, t := range MediaTypes {
		mediaTypes[i] = t
	}
	return validation.ValidateStruct(&m,
		validation.Field(&m.Type, validation.Required, validation.In(mediaTypes...)),
		validation.Field(&m.URL, validation.Required, validation.By(urlOrRootPath)),
		validation.Field(&m.Platform, validation.In(PlatformYouTube, PlatformVimeo).Error("must be youtube or vimeo")),
	)
}

// TranslationRef points at the counterpart of a document in another language.
type TranslationRef struct {
	Language Language `yaml:"language" json:"language"`
	Slug     string   `yaml:"slug" json:"slug"`
}

// RawTranslation is a translated entry as authored. Files carry either a
// bare slug or a {language, slug} mapping.
type RawTranslation struct {
	Language string `json:"language"`
	Slug     string `json:"slug"`
	Bare     bool   `json:"-"`
	invalid  string
}

func (t *RawTranslation) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		t.Slug = strings.TrimSpace(node.Value)
		t.Bare = true
		return nil
	case yaml.MappingNode:
		var m struct {
			Language string `yaml:"language"`
			Slug     string `yaml:"slug"`
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		t.Language = strings.TrimSpace(m.Language)
		t.Slug = strings.TrimSpace(m.Slug)
		return nil
	default:
		t.invalid = fmt.Sprintf("line %d: expected a slug or a {language, slug} mapping", node.Line)
		return nil
	}
}

// RawTranslations is the authored translated list. yaml.v3 drops null
// sequence entries before a struct unmarshaler sees them, so the list
// decodes its own items and keeps a null entry as an invalid one.
type RawTranslations []RawTranslation

func (ts *RawTranslations) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		var plain []RawTranslation
		if err := node.Decode(&plain); err != nil {
			return err
		}
		*ts = plain
		return nil
	}
	out := make(RawTranslations, len(node.Content))
	for i, item := range node.Content {
		if item.Kind == yaml.ScalarNode && item.ShortTag() == "!!null" {
			out[i].invalid = fmt.Sprintf("line %d: empty entry, expected a slug or a {language, slug} mapping", item.Line)
			continue
		}
		if err := item.Decode(&out[i]); err != nil {
			return err
		}
	}
	*ts = out
	return nil
}

func (t RawTranslation) Validate() error {
	if t.invalid != "" {
		return validation.NewError("translated_shape", t.invalid)
	}
	rules := []*validation.FieldRules{
		validation.Field(&t.Slug, validation.Required, validation.Match(slugPattern).Error("must be lowercase alphanumeric with hyphens")),
	}
	if !t.Bare {
		rules = append(rules, validation.Field(&t.Language, validation.Required, validation.In(string(LanguageET), string(LanguageEN)).Error(`must be "et" or "en"`)))
	}
	return validation.ValidateStruct(&t, rules...)
}

// RawFrontmatter is the frontmatter block exactly as decoded from a file,
// before any defaults, normalization or validation.
type RawFrontmatter struct {
	Title           string          `yaml:"title" json:"title"`
	Slug            string          `yaml:"slug" json:"slug"`
	Language        string          `yaml:"language" json:"language"`
	Status          string          `yaml:"status" json:"status"`
	Type            string          `yaml:"type" json:"type"`
	Category        string          `yaml:"category" json:"category"`
	Subcategory     string          `yaml:"subcategory" json:"subcategory"`
	PageType        string          `yaml:"page_type" json:"page_type"`
	Description     string          `yaml:"description" json:"description"`
	OriginalURL     string          `yaml:"original_url" json:"original_url"`
	Order           *int            `yaml:"order" json:"order"`
	HeroImage       string          `yaml:"hero_image" json:"hero_image"`
	BackgroundColor string          `yaml:"background_color" json:"background_color"`
	Gallery         []GalleryItem   `yaml:"gallery" json:"gallery"`
	Videos          []Video         `yaml:"videos" json:"videos"`
	Media           []MediaItem     `yaml:"media" json:"media"`
	Translated      RawTranslations `yaml:"translated" json:"translated"`
	Tags            []string        `yaml:"tags" json:"tags"`
}

// Frontmatter is validated, normalized document metadata.
type Frontmatter struct {
	Title           string           `json:"title"`
	Slug            string           `json:"slug"`
	Language        Language         `json:"language"`
	Status          Status           `json:"status"`
	Type            PageType         `json:"type"`
	PageType        string           `json:"page_type,omitempty"`
	Description     string           `json:"description,omitempty"`
	OriginalURL     string           `json:"original_url,omitempty"`
	Order           *int             `json:"order,omitempty"`
	HeroImage       string           `json:"hero_image,omitempty"`
	BackgroundColor string           `json:"background_color,omitempty"`
	Gallery         []GalleryItem    `json:"gallery,omitempty"`
	Videos          []Video          `json:"videos,omitempty"`
	Media           []MediaItem      `json:"media,omitempty"`
	Translated      []TranslationRef `json:"translated"`
	Tags            []string         `json:"tags"`
}

// Published reports whether the document is visible on the public site.
func (f Frontmatter) Published() bool { return f.Status == StatusPublished }

// ValidateFrontmatter checks raw against the v1 schema and returns the
// normalized frontmatter. Every violated field is reported in the
// returned *SchemaValidationError, not just the first.
func ValidateFrontmatter(raw RawFrontmatter) (Frontmatter, error) {
	pageTypes := make([]any, len(PageTypes))
	names := make([]string, len(PageTypes))
	for i, t := range PageTypes {
		pageTypes[i] = string(t)
		names[i] = string(t)
	}

	err := validation.ValidateStruct(&raw,
		validation.Field(&raw.Title, validation.Required.Error("title is required")),
		validation.Field(&raw.Slug,
			validation.Required.Error("slug is required"),
			validation.Match(slugPattern).Error("must be lowercase alphanumeric with hyphens"),
		),
		validation.Field(&raw.Language,
			validation.Required,
			validation.In(string(LanguageET), string(LanguageEN)).Error(`must be "et" or "en"`),
		),
		validation.Field(&raw.Status,
			validation.Required,
			validation.In(string(StatusPublished), string(StatusDraft)).Error(`must be "published" or "draft"`),
		),
		validation.Field(&raw.Type,
			validation.Required,
			validation.By(rejectHierarchical),
			validation.In(pageTypes...).Error("must be one of "+strings.Join(names, ", ")),
		),
		validation.Field(&raw.Category, validation.Empty.Error("hierarchical classification is not part of "+SchemaVersion)),
		validation.Field(&raw.Subcategory, validation.Empty.Error("hierarchical classification is not part of "+SchemaVersion)),
		validation.Field(&raw.OriginalURL, is.RequestURL.Error("must be a valid URL")),
		validation.Field(&raw.HeroImage, validation.By(urlOrRootPath)),
		validation.Field(&raw.Gallery),
		validation.Field(&raw.Videos),
		validation.Field(&raw.Media),
		validation.Field(&raw.Translated),
	)
	if err != nil {
		return Frontmatter{}, newSchemaError(err)
	}

	lang := Language(raw.Language)
	fm := Frontmatter{
		Title:           raw.Title,
		Slug:            raw.Slug,
		Language:        lang,
		Status:          Status(raw.Status),
		Type:            PageType(raw.Type),
		PageType:        raw.PageType,
		Description:     raw.Description,
		OriginalURL:     raw.OriginalURL,
		Order:           raw.Order,
		HeroImage:       raw.HeroImage,
		BackgroundColor: raw.BackgroundColor,
		Gallery:         raw.Gallery,
		Videos:          raw.Videos,
		Media:           raw.Media,
		Translated:      normalizeTranslations(raw.Translated, lang),
		Tags:            raw.Tags,
	}
	if fm.Tags == nil {
		fm.Tags = []string{}
	}
	return fm, nil
}

// normalizeTranslations folds both authored shapes into TranslationRef.
// A bare slug refers to the other language of the pair.
func normalizeTranslations(in []RawTranslation, lang Language) []TranslationRef {
	out := make([]TranslationRef, 0, len(in))
	for _, t := range in {
		ref := TranslationRef{Language: Language(t.Language), Slug: t.Slug}
		if t.Bare {
			ref.Language = lang.Other()
		}
		out = append(out, ref)
	}
	return out
}

func rejectHierarchical(value any) error {
	s, _ := value.(string)
	for _, v := range legacyHierarchicalTypes {
		if s == v {
			return validation.NewError("type_hierarchical",
				fmt.Sprintf("%q belongs to the hierarchical scheme, %s expects a flat page type", s, SchemaVersion))
		}
	}
	return nil
}

// urlOrRootPath accepts absolute http(s) URLs and site-relative paths
// (downloaded media is served from /images/...).
func urlOrRootPath(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validation.NewError("url_or_path", "must be an absolute URL or a path starting with /")
	}
	return nil
}

func positiveInt(value any) error {
	p, _ := value.(*int)
	if p != nil && *p <= 0 {
		return validation.NewError("positive", "must be positive")
	}
	return nil
}
