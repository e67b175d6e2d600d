package bundle

import (
	"io/fs"
	"time"
)

type Source string

const (
	SourceDir Source = "dir"
	SourceS3  Source = "s3"
)

// Meta describes where a snapshot came from.
type Meta struct {
	Source   Source    `json:"source"`
	Location string    `json:"location"`
	SHA256   string    `json:"sha256,omitempty"`
	Files    int       `json:"files"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Snapshot is a content root plus its metadata. The FS is read-only.
type Snapshot struct {
	FS   fs.FS
	Meta Meta
}

func (m Meta) ContentSource() string { return string(m.Source) }

func (m Meta) ContentHash() string { return m.SHA256 }
