package content

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// ParseDocument

func TestParseDocument_SplitsFrontmatterAndBody(t *testing.T) {
	src := "---\ntitle: Zuga\nlanguage: et\nstatus: published\ntype: landing\ntags: [teater]\norder: 2\n---\n\n  # Tere\n\nSisu.  \n\n"

	raw, body, err := ParseDocument(nil, []byte(src))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if raw.Title != "Zuga" || raw.Language != "et" || raw.Type != "landing" {
		t.Fatalf("raw = %+v", raw)
	}
	if raw.Order == nil || *raw.Order != 2 {
		t.Fatalf("Order = %v, want 2", raw.Order)
	}
	if len(raw.Tags) != 1 || raw.Tags[0] != "teater" {
		t.Fatalf("Tags = %v", raw.Tags)
	}
	if body != "# Tere\n\nSisu." {
		t.Fatalf("body = %q, want trimmed", body)
	}
}

func TestParseDocument_TranslatedShapes(t *testing.T) {
	src := `---
title: Noise
language: en
status: published
type: performance
translated:
  - etendused-suurtele-mura
  - language: et
    slug: kontakt
---
body`

	raw, _, err := ParseDocument(YAMLParser{}, []byte(src))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(raw.Translated) != 2 {
		t.Fatalf("Translated = %+v, want 2 entries", raw.Translated)
	}
	if !raw.Translated[0].Bare || raw.Translated[0].Slug != "etendused-suurtele-mura" {
		t.Errorf("Translated[0] = %+v, want bare slug", raw.Translated[0])
	}
	if raw.Translated[1].Bare || raw.Translated[1].Language != "et" || raw.Translated[1].Slug != "kontakt" {
		t.Errorf("Translated[1] = %+v, want mapping", raw.Translated[1])
	}
}

func TestParseDocument_TranslatedSequenceEntryIsInvalid(t *testing.T) {
	src := "---\ntitle: X\nlanguage: et\nstatus: draft\ntype: news\ntranslated:\n  - [a, b]\n---\n"

	raw, _, err := ParseDocument(nil, []byte(src))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	raw.Slug = "x"
	_, err = ValidateFrontmatter(raw)
	fields := schemaFields(t, err)
	if _, ok := fields["translated[0]"]; !ok {
		t.Fatalf("fields = %v, want translated[0]", fields)
	}
}

func TestParseDocument_ByteOrderMark(t *testing.T) {
	for _, src := range []string{
		"\ufeff---\ntitle: Zuga\nlanguage: et\n---\nbody\n",
		"\ufeff---\r\ntitle: Zuga\r\nlanguage: et\r\n---\r\nbody\r\n",
	} {
		raw, body, err := ParseDocument(nil, []byte(src))
		if err != nil {
			t.Fatalf("%q: ParseDocument: %v", src, err)
		}
		if raw.Title != "Zuga" || raw.Language != "et" || body != "body" {
			t.Fatalf("%q: raw = %+v body = %q", src, raw, body)
		}
	}
}

func TestParseDocument_TranslatedNullEntryIsInvalid(t *testing.T) {
	src := "---\ntitle: X\nslug: x\nlanguage: et\nstatus: draft\ntype: news\ntranslated: [~, foo]\n---\n"

	raw, _, err := ParseDocument(nil, []byte(src))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(raw.Translated) != 2 || raw.Translated[1].Slug != "foo" {
		t.Fatalf("Translated = %+v, want both entries kept", raw.Translated)
	}
	_, err = ValidateFrontmatter(raw)
	fields := schemaFields(t, err)
	if _, ok := fields["translated[0]"]; !ok {
		t.Fatalf("fields = %v, want translated[0]", fields)
	}
	if _, ok := fields["translated[1]"]; ok {
		t.Fatalf("fields = %v, valid entry reported", fields)
	}
}

func TestParseDocument_TranslatedScalarIsTypeError(t *testing.T) {
	src := "---\ntitle: X\ntranslated: foo\n---\n"
	_, _, err := ParseDocument(nil, []byte(src))
	fields := schemaFields(t, err)
	if _, ok := fields["frontmatter"]; !ok {
		t.Fatalf("fields = %v, want frontmatter", fields)
	}
}

func TestParseDocument_MissingFrontmatter(t *testing.T) {
	_, _, err := ParseDocument(nil, []byte("# just markdown\n"))
	fields := schemaFields(t, err)
	if !strings.Contains(fields["frontmatter"], "missing") {
		t.Fatalf("fields = %v", fields)
	}
}

func TestParseDocument_TypeMismatch(t *testing.T) {
	src := "---\ntitle: X\norder: first\ngallery: nope\n---\n"
	_, _, err := ParseDocument(nil, []byte(src))
	fields := schemaFields(t, err)
	if _, ok := fields["frontmatter"]; !ok {
		t.Fatalf("fields = %v, want frontmatter", fields)
	}
}

func TestParseDocument_MalformedYAML(t *testing.T) {
	src := "---\ntitle: [unclosed\n---\n"
	_, _, err := ParseDocument(nil, []byte(src))
	if !IsSchemaError(err) {
		t.Fatalf("err = %v, want schema error", err)
	}
}

func TestParseDocument_InjectedParser(t *testing.T) {
	p := ParserFunc(func(r io.Reader, fm *RawFrontmatter) ([]byte, error) {
		fm.Title = "injected"
		return []byte("  body  "), nil
	})
	raw, body, err := ParseDocument(p, []byte("anything"))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if raw.Title != "injected" || body != "body" {
		t.Fatalf("raw.Title = %q body = %q", raw.Title, body)
	}
}

func TestParseDocument_ParserErrorBecomesSchemaError(t *testing.T) {
	p := ParserFunc(func(io.Reader, *RawFrontmatter) ([]byte, error) {
		return nil, errors.New("boom")
	})
	_, _, err := ParseDocument(p, nil)
	fields := schemaFields(t, err)
	if fields["frontmatter"] != "boom" {
		t.Fatalf("fields = %v", fields)
	}
}

// errors

func TestNotFoundError(t *testing.T) {
	err := error(&NotFoundError{Language: LanguageEN, Slug: "missing"})
	if !strings.Contains(err.Error(), "en/missing") {
		t.Fatalf("Error() = %q, want lang/slug", err.Error())
	}
	if !errors.Is(err, ErrNotFound) || !IsNotFound(err) {
		t.Fatal("errors.Is(err, ErrNotFound) = false")
	}
	if IsSchemaError(err) {
		t.Fatal("not-found classified as schema error")
	}
}

func TestSchemaValidationError_Message(t *testing.T) {
	err := &SchemaValidationError{
		Path:   "et/index.md",
		Fields: map[string]string{"title": "title is required", "language": "bad"},
	}
	want := "schema validation failed for et/index.md: language: bad; title: title is required"
	if err.Error() != want {
		t.Fatalf("Error() = %q\nwant %q", err.Error(), want)
	}
	if !errors.Is(err, ErrSchemaValidation) {
		t.Fatal("errors.Is(err, ErrSchemaValidation) = false")
	}
}
