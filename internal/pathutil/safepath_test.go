package pathutil

import "testing"

func TestHasDotSegments(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/static/site.css", false},
		{"/static/./site.css", true},
		{"/static/../etc", true},
		{"..", true},
		{"/...", false},
		{"/.well-known/x", false},
		{`static\..\x`, true},
	}
	for _, tt := range tests {
		if got := HasDotSegments(tt.path); got != tt.want {
			t.Errorf("HasDotSegments(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestHasTraversal(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"./et/index.md", false},
		{"content/en/english.md", false},
		{"../outside.md", true},
		{"et/../../x", true},
		{`et\..\x`, true},
		{"et/..md", false},
	}
	for _, tt := range tests {
		if got := HasTraversal(tt.path); got != tt.want {
			t.Errorf("HasTraversal(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
