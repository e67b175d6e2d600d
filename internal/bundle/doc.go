// Package bundle provides the filesystem the content loader reads from.
//
// Content comes either from a local directory or from a tar.gz bundle in
// S3 whose SHA256 is published in an SSM parameter. Bundles are fetched
// once at start-up, verified against the published hash and extracted
// into memory. Extraction enforces a maximum compressed size, a per-file
// size, a total extracted size and rejects paths that escape the root.
package bundle
