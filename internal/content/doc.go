// Package content loads the site's markdown documents.
//
// Documents live under a root filesystem as <lang>/<slug>.md, one
// directory per language. Each file opens with a "---" delimited YAML
// frontmatter block that is validated against the v1 schema
// (SchemaVersion) before a Document is returned; a file that fails
// validation is never handed to callers.
//
// The Loader reads from disk on every call and keeps no state between
// calls.
package content
