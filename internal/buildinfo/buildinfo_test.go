package buildinfo

import "testing"

func TestShort(t *testing.T) {
	defer func(v, c string) { Version, Commit = v, c }(Version, Commit)

	tests := []struct {
		version, commit, want string
	}{
		{"dev", "unknown", "dev"},
		{"v1.2.0", "abc", "v1.2.0"},
		{"dev", "0123456789abcdef", "0123456789ab"},
		{"", "abc", "abc"},
	}
	for _, tt := range tests {
		Version, Commit = tt.version, tt.commit
		if got := Short(); got != tt.want {
			t.Errorf("Short() with %q/%q = %q, want %q", tt.version, tt.commit, got, tt.want)
		}
	}
}
