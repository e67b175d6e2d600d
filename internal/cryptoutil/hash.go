package cryptoutil

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashEqual compares two hex-encoded hashes in constant time.
func HashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// SHA256Hex computes the SHA-256 hash of data as lowercase hex
func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ValidSHA256Hex reports whether s is a 64 character lowercase hex digest.
func ValidSHA256Hex(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
