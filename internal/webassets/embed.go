package webassets

import (
	"embed"
	"fmt"
	"io/fs"
)

// templates/ holds the page templates, static/ the public assets and
// fallback/ the plain state pages served when a template cannot render.
//
//go:embed templates static fallback
var embedded embed.FS

func sub(dir string) fs.FS {
	s, err := fs.Sub(embedded, dir)
	if err != nil {
		panic(fmt.Errorf("webassets: %s subfs: %w", dir, err))
	}
	return s
}

func TemplatesFS() fs.FS { return sub("templates") }

func StaticFS() fs.FS { return sub("static") }

func FallbackFS() fs.FS { return sub("fallback") }
