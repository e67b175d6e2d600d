// Package cryptoutil holds the hashing helpers used to verify content
// bundles: SHA-256 digests and constant-time digest comparison.
package cryptoutil
