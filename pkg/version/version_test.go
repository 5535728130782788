package version

import (
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	if Version != "dev" {
		t.Errorf("default Version = %q, want %q", Version, "dev")
	}
	if GitCommit != "unknown" {
		t.Errorf("default GitCommit = %q, want %q", GitCommit, "unknown")
	}
}

func TestInfo(t *testing.T) {
	got := Info()
	if !strings.HasPrefix(got, "dev (unknown) built unknown ") {
		t.Errorf("Info() = %q", got)
	}
}
