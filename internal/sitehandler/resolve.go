package sitehandler

import (
	"io/fs"
	"strings"

	"github.com/keithlinneman/zuga-web/internal/pathutil"
)

// resolveAsset maps the wildcard part of a /static/ URL to a file in fsys.
// Directories, dot segments and anything fs.ValidPath rejects are not found.
func resolveAsset(name string, fsys fs.FS) (string, bool) {
	if name == "" || strings.ContainsAny(name, "\x00\\") || pathutil.HasDotSegments(name) {
		return "", false
	}
	name = strings.TrimPrefix(name, "/")
	if !existsFile(fsys, name) {
		return "", false
	}
	return name, true
}

func existsFile(fsys fs.FS, name string) bool {
	if name == "" || !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
