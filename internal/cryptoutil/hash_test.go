package cryptoutil

import (
	"strings"
	"testing"
)

// SHA256Hex

func TestSHA256Hex_KnownVector(t *testing.T) {
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := SHA256Hex([]byte{}); got != want {
		t.Fatalf("SHA256Hex(empty) = %q, want %q", got, want)
	}
}

// HashEqual

func TestHashEqual(t *testing.T) {
	a := SHA256Hex([]byte("et/index.md"))
	b := SHA256Hex([]byte("en/english.md"))

	if !HashEqual(a, a) {
		t.Fatal("identical hashes compared unequal")
	}
	if HashEqual(a, b) {
		t.Fatal("different hashes compared equal")
	}
	if HashEqual(a, a[:10]) {
		t.Fatal("prefix compared equal")
	}
}

// ValidSHA256Hex

func TestValidSHA256Hex(t *testing.T) {
	good := SHA256Hex([]byte("bundle"))
	tests := []struct {
		in   string
		want bool
	}{
		{good, true},
		{strings.ToUpper(good), false},
		{good[:63], false},
		{good + "0", false},
		{"", false},
		{strings.Repeat("g", 64), false},
	}
	for _, tt := range tests {
		if got := ValidSHA256Hex(tt.in); got != tt.want {
			t.Errorf("ValidSHA256Hex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
