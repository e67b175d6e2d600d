package content

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/keithlinneman/zuga-web/internal/xerrors"
)

// categoryTypes maps a hierarchical category back to its flat type.
var categoryTypes = map[string]PageType{
	"etendused":  TypePerformance,
	"workshopid": TypeWorkshop,
	"about":      TypeAbout,
	"gallery":    TypeGallery,
	"contact":    TypeContact,
	"news":       TypeNews,
}

// keys that only exist in the hierarchical scheme
var hierarchicalKeys = map[string]bool{
	"category":    true,
	"subcategory": true,
	"legacy_type": true,
}

// TypeChange describes one hierarchical to flat reclassification.
type TypeChange struct {
	From        string   `json:"from"`
	Category    string   `json:"category,omitempty"`
	Subcategory string   `json:"subcategory,omitempty"`
	To          PageType `json:"to"`
}

func (c TypeChange) String() string {
	s := "type " + c.From
	if c.Category != "" {
		s += " (category " + c.Category
		if c.Subcategory != "" {
			s += "/" + c.Subcategory
		}
		s += ")"
	}
	return s + " -> " + string(c.To)
}

// FlatType picks the v1 type for a hierarchical classification. A
// recorded legacy_type wins; home and section pages become landing pages
// and detail pages take the type of their category.
func FlatType(hType, category, legacyType string) (PageType, error) {
	if t := PageType(legacyType); t.Valid() {
		return t, nil
	}
	switch hType {
	case "home", "section":
		return TypeLanding, nil
	case "detail":
		if t, ok := categoryTypes[category]; ok {
			return t, nil
		}
		return "", xerrors.Newf("detail page with unknown category %q", category)
	}
	return "", xerrors.Newf("%q is not a hierarchical type", hType)
}

// MigrateType rewrites the frontmatter of a content file from the
// hierarchical scheme to the flat v1 type. The body is kept byte for
// byte. Files already on v1 come back unchanged with a nil change.
func MigrateType(data []byte) ([]byte, *TypeChange, error) {
	block, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, nil, xerrors.Wrap(err, "decode frontmatter")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, nil, xerrors.New("frontmatter is not a mapping")
	}
	m := doc.Content[0]

	values := map[string]*yaml.Node{}
	for i := 0; i+1 < len(m.Content); i += 2 {
		values[m.Content[i].Value] = m.Content[i+1]
	}
	typeNode, ok := values["type"]
	if !ok {
		return nil, nil, xerrors.New("frontmatter has no type")
	}
	if PageType(typeNode.Value).Valid() && !hasAny(values, hierarchicalKeys) {
		return data, nil, nil
	}

	change := &TypeChange{
		From:        typeNode.Value,
		Category:    scalar(values["category"]),
		Subcategory: scalar(values["subcategory"]),
	}
	if t := PageType(change.From); t.Valid() {
		// flat type with leftover hierarchical keys
		change.To = t
	} else {
		change.To, err = FlatType(change.From, change.Category, scalar(values["legacy_type"]))
		if err != nil {
			return nil, nil, err
		}
	}

	typeNode.Value = string(change.To)
	typeNode.Style = 0
	kept := m.Content[:0]
	for i := 0; i+1 < len(m.Content); i += 2 {
		if hierarchicalKeys[m.Content[i].Value] {
			continue
		}
		kept = append(kept, m.Content[i], m.Content[i+1])
	}
	m.Content = kept

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, nil, xerrors.Wrap(err, "encode frontmatter")
	}
	if err := enc.Close(); err != nil {
		return nil, nil, xerrors.Wrap(err, "encode frontmatter")
	}
	buf.WriteString("---\n")
	buf.Write(body)
	return buf.Bytes(), change, nil
}

// splitFrontmatter returns the YAML between the leading "---" lines and
// everything after the closing delimiter line.
func splitFrontmatter(data []byte) (block, body []byte, err error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	rest, ok := cutLine(data, "---")
	if !ok {
		return nil, nil, xerrors.New("missing --- delimited frontmatter block")
	}
	for off := 0; off < len(rest); {
		line := rest[off:]
		end := bytes.IndexByte(line, '\n')
		next := len(rest)
		if end >= 0 {
			line = line[:end]
			next = off + end + 1
		}
		if string(bytes.TrimRight(line, "\r")) == "---" {
			return rest[:off], rest[next:], nil
		}
		off = next
	}
	return nil, nil, xerrors.New("unterminated frontmatter block")
}

// cutLine strips a first line equal to want.
func cutLine(data []byte, want string) ([]byte, bool) {
	line, rest, found := bytes.Cut(data, []byte("\n"))
	if !found || string(bytes.TrimRight(line, "\r")) != want {
		return nil, false
	}
	return rest, true
}

func hasAny(values map[string]*yaml.Node, keys map[string]bool) bool {
	for k := range keys {
		if _, ok := values[k]; ok {
			return true
		}
	}
	return false
}

func scalar(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}
