package content

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// Parser splits a content file into its frontmatter block and body.
type Parser interface {
	Parse(r io.Reader, fm *RawFrontmatter) (body []byte, err error)
}

// ParserFunc adapts a function into a Parser.
type ParserFunc func(r io.Reader, fm *RawFrontmatter) ([]byte, error)

func (f ParserFunc) Parse(r io.Reader, fm *RawFrontmatter) ([]byte, error) { return f(r, fm) }

// yamlFormat is the "---" delimited YAML block, decoded with yaml.v3 so
// nested mappings come back as map[string]any and custom node
// unmarshalers (RawTranslation) work.
var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// YAMLParser is the default Parser for "---" delimited YAML frontmatter.
type YAMLParser struct{}

func (YAMLParser) Parse(r io.Reader, fm *RawFrontmatter) ([]byte, error) {
	body, err := frontmatter.MustParse(r, fm, yamlFormat)
	if err != nil {
		return nil, classifyParseError(err)
	}
	return body, nil
}

var utf8BOM = []byte("\ufeff")

// ParseDocument runs p over data and returns the raw frontmatter and the
// trimmed body. Decode failures are returned as *SchemaValidationError:
// a malformed frontmatter block is an authoring defect like any other.
func ParseDocument(p Parser, data []byte) (RawFrontmatter, string, error) {
	if p == nil {
		p = YAMLParser{}
	}
	// a leading byte order mark hides the opening ---
	data = bytes.TrimPrefix(data, utf8BOM)
	var raw RawFrontmatter
	body, err := p.Parse(bytes.NewReader(data), &raw)
	if err != nil {
		var se *SchemaValidationError
		if errors.As(err, &se) {
			return RawFrontmatter{}, "", se
		}
		return RawFrontmatter{}, "", &SchemaValidationError{Fields: map[string]string{"frontmatter": err.Error()}}
	}
	return raw, strings.TrimSpace(string(body)), nil
}

func classifyParseError(err error) error {
	if errors.Is(err, frontmatter.ErrNotFound) {
		return &SchemaValidationError{Fields: map[string]string{"frontmatter": "missing --- delimited frontmatter block"}}
	}
	var te *yaml.TypeError
	if errors.As(err, &te) {
		se := &SchemaValidationError{Fields: map[string]string{}}
		for i, msg := range te.Errors {
			key := "frontmatter"
			if i > 0 {
				key = "frontmatter." + strconv.Itoa(i)
			}
			se.Fields[key] = msg
		}
		return se
	}
	return err
}
