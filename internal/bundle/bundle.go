package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"testing/fstest"

	"github.com/keithlinneman/zuga-web/internal/pathutil"
)

const (
	// maxBundleSize is the maximum size of a compressed content bundle from s3
	maxBundleSize int64 = 20 * 1024 * 1024 // 20MB

	// maxSingleFile is the maximum size of a single file in the bundle
	maxSingleFile int64 = 5 * 1024 * 1024 // 5MB

	// maxTotalExtract is the maximum total size of extracted content
	maxTotalExtract int64 = 50 * 1024 * 1024 // 50MB
)

// ErrUnsafeArchive is returned for bundles containing paths or entry
// types that could escape the content root.
var ErrUnsafeArchive = errors.New("unsafe archive entry")

// readWithHash reads all of r up to maxSize, hashing as it goes.
func readWithHash(r io.Reader, maxSize int64) ([]byte, string, error) {
	h := sha256.New()
	data, err := io.ReadAll(io.TeeReader(io.LimitReader(r, maxSize+1), h))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > maxSize {
		return nil, "", fmt.Errorf("bundle exceeds max size (limit %d bytes)", maxSize)
	}
	return data, hex.EncodeToString(h.Sum(nil)), nil
}

// cleanEntryName normalizes a tar entry name. A leading "./" and a single
// top-level "content/" directory are stripped so bundles built with either
// layout land with et/ and en/ at the root.
func cleanEntryName(name string) (string, error) {
	if path.IsAbs(name) || strings.HasPrefix(name, "\\") {
		return "", fmt.Errorf("%w: absolute path %s", ErrUnsafeArchive, name)
	}
	if pathutil.HasTraversal(name) {
		return "", fmt.Errorf("%w: path traversal %s", ErrUnsafeArchive, name)
	}
	clean := path.Clean(name)
	clean = strings.TrimPrefix(clean, "content/")
	if clean == "content" {
		clean = "."
	}
	return clean, nil
}

// extractTarGz unpacks a .tar.gz into an in-memory filesystem.
func extractTarGz(data []byte) (fstest.MapFS, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer gr.Close()

	mfs := make(fstest.MapFS)
	tr := tar.NewReader(gr)
	var total int64

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar header: %w", err)
		}

		name, err := cleanEntryName(hdr.Name)
		if err != nil {
			return nil, err
		}
		if name == "." {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			mfs[name] = &fstest.MapFile{Mode: fs.ModeDir | 0o755}

		case tar.TypeReg:
			if hdr.Size > maxSingleFile {
				return nil, fmt.Errorf("file %s exceeds max size (%d > %d)", name, hdr.Size, maxSingleFile)
			}
			content, err := io.ReadAll(io.LimitReader(tr, maxSingleFile+1))
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			if int64(len(content)) > maxSingleFile {
				return nil, fmt.Errorf("file %s exceeds max size after read", name)
			}
			total += int64(len(content))
			if total > maxTotalExtract {
				return nil, fmt.Errorf("total extracted size exceeds limit (max %d)", maxTotalExtract)
			}
			mfs[name] = &fstest.MapFile{Data: content, Mode: hdr.FileInfo().Mode().Perm()}

		default:
			return nil, fmt.Errorf("%w: %s has type %d", ErrUnsafeArchive, name, hdr.Typeflag)
		}
	}

	return mfs, nil
}

func countFiles(fsys fs.FS) int {
	n := 0
	_ = fs.WalkDir(fsys, ".", func(_ string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}
