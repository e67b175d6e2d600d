package bundle

import (
	"os"
	"path/filepath"
	"time"

	"github.com/keithlinneman/zuga-web/internal/xerrors"
)

// OpenDir returns a snapshot backed by a local directory. Files are read
// from disk on every access, so edits show up without a restart.
func OpenDir(dir string) (*Snapshot, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, xerrors.Wrapf(err, "resolve content dir %s", dir)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, xerrors.Wrapf(err, "stat content dir %s", abs)
	}
	if !st.IsDir() {
		return nil, xerrors.Newf("content dir %s is not a directory", abs)
	}
	fsys := os.DirFS(abs)
	return &Snapshot{
		FS: fsys,
		Meta: Meta{
			Source:   SourceDir,
			Location: abs,
			Files:    countFiles(fsys),
			LoadedAt: time.Now().UTC(),
		},
	}, nil
}
