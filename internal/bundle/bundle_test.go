package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// helpers

func sha256hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

type tarEntry struct {
	name     string
	body     string
	typeflag byte
}

// makeTarGz builds a .tar.gz archive in memory from entries, in order.
func makeTarGz(t *testing.T, entries ...tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o640, Size: int64(len(e.body)), Typeflag: e.typeflag}
		if e.typeflag == 0 {
			hdr.Typeflag = tar.TypeReg
		}
		if hdr.Typeflag == tar.TypeSymlink {
			hdr.Linkname = "/etc/passwd"
			hdr.Size = 0
		}
		if hdr.Typeflag == tar.TypeDir {
			hdr.Size = 0
			hdr.Mode = 0o755
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write tar header %q: %v", e.name, err)
		}
		if hdr.Size > 0 {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("write tar content %q: %v", e.name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

// readWithHash

func TestReadWithHash(t *testing.T) {
	data, hash, err := readWithHash(strings.NewReader("hello world"), 1024)
	if err != nil {
		t.Fatalf("readWithHash: %v", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("data = %q", data)
	}
	if hash != sha256hex([]byte("hello world")) {
		t.Fatalf("hash = %q", hash)
	}
}

func TestReadWithHash_ExceedsLimit(t *testing.T) {
	_, _, err := readWithHash(strings.NewReader(strings.Repeat("x", 11)), 10)
	if err == nil {
		t.Fatal("expected size limit error")
	}
}

// extractTarGz

func TestExtractTarGz_ContentLayout(t *testing.T) {
	data := makeTarGz(t,
		tarEntry{name: "et/", typeflag: tar.TypeDir},
		tarEntry{name: "et/index.md", body: "---\ntitle: Zuga\n---\n"},
		tarEntry{name: "./en/english.md", body: "---\ntitle: Zuga\n---\n"},
	)

	mfs, err := extractTarGz(data)
	if err != nil {
		t.Fatalf("extractTarGz: %v", err)
	}
	for _, name := range []string{"et/index.md", "en/english.md"} {
		if _, err := fs.ReadFile(mfs, name); err != nil {
			t.Errorf("read %s: %v", name, err)
		}
	}
	entries, err := fs.ReadDir(mfs, "et")
	if err != nil || len(entries) != 1 {
		t.Fatalf("ReadDir(et) = %v, %v", entries, err)
	}
}

func TestExtractTarGz_StripsContentPrefix(t *testing.T) {
	data := makeTarGz(t,
		tarEntry{name: "content/", typeflag: tar.TypeDir},
		tarEntry{name: "content/et/kontakt.md", body: "x"},
	)
	mfs, err := extractTarGz(data)
	if err != nil {
		t.Fatalf("extractTarGz: %v", err)
	}
	if _, err := fs.Stat(mfs, "et/kontakt.md"); err != nil {
		t.Fatalf("stat: %v", err)
	}
}

func TestExtractTarGz_RejectsUnsafeEntries(t *testing.T) {
	tests := []struct {
		name  string
		entry tarEntry
	}{
		{"traversal", tarEntry{name: "../etc/passwd", body: "x"}},
		{"nested traversal", tarEntry{name: "et/../../x.md", body: "x"}},
		{"absolute", tarEntry{name: "/etc/passwd", body: "x"}},
		{"symlink", tarEntry{name: "et/link.md", typeflag: tar.TypeSymlink}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractTarGz(makeTarGz(t, tt.entry))
			if !errors.Is(err, ErrUnsafeArchive) {
				t.Fatalf("err = %v, want ErrUnsafeArchive", err)
			}
		})
	}
}

func TestExtractTarGz_FileTooLarge(t *testing.T) {
	big := strings.Repeat("a", int(maxSingleFile)+1)
	_, err := extractTarGz(makeTarGz(t, tarEntry{name: "et/big.md", body: big}))
	if err == nil || !strings.Contains(err.Error(), "exceeds max size") {
		t.Fatalf("err = %v, want size error", err)
	}
}

func TestExtractTarGz_NotGzip(t *testing.T) {
	if _, err := extractTarGz([]byte("plain text")); err == nil {
		t.Fatal("expected gzip error")
	}
}

// OpenDir

func TestOpenDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "et"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "et", "index.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	if snap.Meta.Source != SourceDir || snap.Meta.Files != 1 {
		t.Fatalf("Meta = %+v", snap.Meta)
	}
	if _, err := fs.ReadFile(snap.FS, "et/index.md"); err != nil {
		t.Fatalf("read through snapshot: %v", err)
	}
}

func TestOpenDir_Errors(t *testing.T) {
	if _, err := OpenDir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing dir")
	}
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenDir(f); err == nil {
		t.Fatal("expected error for regular file")
	}
}

func TestMeta_ContentInfo(t *testing.T) {
	m := Meta{Source: SourceS3, SHA256: "abc"}
	if m.ContentSource() != "s3" || m.ContentHash() != "abc" {
		t.Fatalf("ContentSource = %q ContentHash = %q", m.ContentSource(), m.ContentHash())
	}
	if (Meta{Source: SourceDir}).ContentHash() != "" {
		t.Fatal("directory source reported a hash")
	}
}
