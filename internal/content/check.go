package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type IssueKind string

const (
	IssueInvalid           IssueKind = "invalid"
	IssueSlugMismatch      IssueKind = "slug_mismatch"
	IssueDuplicateSlug     IssueKind = "duplicate_slug"
	IssueBrokenTranslation IssueKind = "broken_translation"
	IssueMissingLanding    IssueKind = "missing_landing"
)

// Issue is one integrity problem found by Check.
// Warnings do not fail a check.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Language Language  `json:"language"`
	File     string    `json:"file,omitempty"`
	Message  string    `json:"message"`
	Warning  bool      `json:"warning,omitempty"`
}

func (i Issue) String() string {
	sev := "error"
	if i.Warning {
		sev = "warning"
	}
	loc := string(i.Language)
	if i.File != "" {
		loc = i.File
	}
	return fmt.Sprintf("%s [%s] %s: %s", sev, i.Kind, loc, i.Message)
}

type Report struct {
	Documents  int              `json:"documents"`
	ByLanguage map[Language]int `json:"by_language"`
	Issues     []Issue          `json:"issues"`
}

// IssueCounts counts issues by kind, warnings included.
func (r Report) IssueCounts() map[IssueKind]int {
	out := make(map[IssueKind]int, len(r.Issues))
	for _, i := range r.Issues {
		out[i.Kind]++
	}
	return out
}

// Errors returns the non-warning issues.
func (r Report) Errors() []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if !i.Warning {
			out = append(out, i)
		}
	}
	return out
}

func (r Report) OK() bool { return len(r.Errors()) == 0 }

// Err joins the non-warning issues into one error, nil when the report is clean.
func (r Report) Err() error {
	var errs []error
	for _, i := range r.Errors() {
		errs = append(errs, errors.New(i.String()))
	}
	return errors.Join(errs...)
}

// Check validates every content file of every language and cross-checks
// the set: file name against slug, slug uniqueness, translation targets
// and landing pages. Unlike LoadAll it keeps going past invalid files so
// the report lists all of them. Only I/O failures are returned as errors.
func Check(ctx context.Context, l *Loader) (Report, error) {
	rep := Report{ByLanguage: map[Language]int{}, Issues: []Issue{}}
	index := map[Language]map[string]*Document{}
	var docs []*Document

	for _, lang := range Languages {
		names, err := l.Slugs(ctx, lang)
		if err != nil {
			return rep, err
		}
		index[lang] = map[string]*Document{}

		for _, name := range names {
			doc, err := l.loadFile(ctx, lang, name)
			if err != nil {
				var se *SchemaValidationError
				if !errors.As(err, &se) {
					return rep, err
				}
				rep.Issues = append(rep.Issues, Issue{
					Kind:     IssueInvalid,
					Language: lang,
					File:     filePath(lang, name),
					Message:  schemaFieldsSummary(se),
				})
				continue
			}
			rep.Documents++
			rep.ByLanguage[lang]++

			slug := doc.Frontmatter.Slug
			if slug != name {
				rep.Issues = append(rep.Issues, Issue{
					Kind:     IssueSlugMismatch,
					Language: lang,
					File:     doc.Path,
					Message:  fmt.Sprintf("slug %q does not match file name; LoadOne(%s, %s) cannot find it", slug, lang, slug),
				})
			}
			if prev, dup := index[lang][slug]; dup {
				rep.Issues = append(rep.Issues, Issue{
					Kind:     IssueDuplicateSlug,
					Language: lang,
					File:     doc.Path,
					Message:  fmt.Sprintf("slug %q already used by %s", slug, prev.Path),
				})
				continue
			}
			index[lang][slug] = doc
			docs = append(docs, doc)
		}

		if len(names) > 0 && !hasLanding(index[lang], lang) {
			rep.Issues = append(rep.Issues, Issue{
				Kind:     IssueMissingLanding,
				Language: lang,
				Message:  fmt.Sprintf("no %q document and no document of type landing", LandingSlugs[lang]),
				Warning:  true,
			})
		}
	}

	for _, doc := range docs {
		for _, ref := range doc.Frontmatter.Translated {
			target, ok := index[ref.Language][ref.Slug]
			// resolution goes through the file name, like LoadOne
			if ok && target.Path == filePath(ref.Language, ref.Slug) {
				continue
			}
			rep.Issues = append(rep.Issues, Issue{
				Kind:     IssueBrokenTranslation,
				Language: doc.Frontmatter.Language,
				File:     doc.Path,
				Message:  fmt.Sprintf("translated entry %s/%s does not resolve", ref.Language, ref.Slug),
			})
		}
	}

	l.logger.Info(ctx, "content check finished",
		"documents", rep.Documents,
		"issues", len(rep.Issues),
		"errors", len(rep.Errors()),
	)
	return rep, nil
}

func hasLanding(docs map[string]*Document, lang Language) bool {
	if _, ok := docs[LandingSlugs[lang]]; ok {
		return true
	}
	for _, d := range docs {
		if d.Frontmatter.Type == TypeLanding {
			return true
		}
	}
	return false
}

func schemaFieldsSummary(se *SchemaValidationError) string {
	parts := make([]string, 0, len(se.Fields))
	for _, f := range se.FieldNames() {
		parts = append(parts, f+": "+se.Fields[f])
	}
	return strings.Join(parts, "; ")
}
