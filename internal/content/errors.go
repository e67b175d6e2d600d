package content

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// ErrNotFound matches any *NotFoundError via errors.Is.
	ErrNotFound = errors.New("content not found")

	// ErrSchemaValidation matches any *SchemaValidationError via errors.Is.
	ErrSchemaValidation = errors.New("content schema validation failed")
)

// NotFoundError reports that (Language, Slug) has no backing file.
type NotFoundError struct {
	Language Language
	Slug     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("content file not found: %s/%s.md", e.Language, e.Slug)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// SchemaValidationError reports every frontmatter constraint a document
// violates. Fields maps a dotted field path (gallery[0].url) to a message.
type SchemaValidationError struct {
	Path   string
	Fields map[string]string
}

func (e *SchemaValidationError) Error() string {
	var b strings.Builder
	b.WriteString("schema validation failed")
	if e.Path != "" {
		b.WriteString(" for ")
		b.WriteString(e.Path)
	}
	for i, f := range e.FieldNames() {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(e.Fields[f])
	}
	return b.String()
}

func (e *SchemaValidationError) Is(target error) bool { return target == ErrSchemaValidation }

// FieldNames returns the violated field paths in sorted order.
func (e *SchemaValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func newSchemaError(err error) *SchemaValidationError {
	se := &SchemaValidationError{Fields: map[string]string{}}
	flattenValidation(se.Fields, "", err)
	return se
}

func flattenValidation(out map[string]string, prefix string, err error) {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		key := prefix
		if key == "" {
			key = "frontmatter"
		}
		out[key] = err.Error()
		return
	}
	for k, v := range errs {
		if v == nil {
			continue
		}
		flattenValidation(out, joinFieldPath(prefix, k), v)
	}
}

func joinFieldPath(prefix, key string) string {
	if _, err := strconv.Atoi(key); err == nil {
		return prefix + "[" + key + "]"
	}
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// IsNotFound reports whether err is (or wraps) a *NotFoundError.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsSchemaError reports whether err is (or wraps) a *SchemaValidationError.
func IsSchemaError(err error) bool { return errors.Is(err, ErrSchemaValidation) }
