package contentapi

import (
	"time"

	"github.com/keithlinneman/zuga-web/internal/bundle"
	"github.com/keithlinneman/zuga-web/internal/content"
	"github.com/keithlinneman/zuga-web/internal/version"
)

// DocumentResponse is one document as served by the API. HTML is only
// filled when the request asked for ?render=true.
type DocumentResponse struct {
	Frontmatter content.Frontmatter `json:"frontmatter"`
	Body        string              `json:"body"`
	Path        string              `json:"path,omitempty"`
	Rendered    bool                `json:"rendered"`
	HTML        string              `json:"html,omitempty"`
}

type ListResponse struct {
	Language  content.Language   `json:"language"`
	Type      content.PageType   `json:"type,omitempty"`
	Count     int                `json:"count"`
	Documents []DocumentResponse `json:"documents"`
}

// MetaResponse describes the content root and the running build.
type MetaResponse struct {
	Bundle        bundle.Meta        `json:"bundle"`
	SchemaVersion string             `json:"schema_version"`
	Languages     []content.Language `json:"languages"`
	PageTypes     []content.PageType `json:"page_types"`
	Build         version.Info       `json:"build"`
	ServerTime    time.Time          `json:"server_time"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	// Fields maps each invalid frontmatter field to its message.
	Fields map[string]string `json:"fields,omitempty"`
}
