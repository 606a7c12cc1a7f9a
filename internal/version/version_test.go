package version

import "testing"

func TestString(t *testing.T) {
	Version, GitSHA, BuildTime = "1.2.3", "abc123", "2025-01-01"
	t.Cleanup(func() { Version, GitSHA, BuildTime = "dev", "unknown", "unknown" })

	if got, want := String(), "1.2.3 (abc123, built 2025-01-01)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
