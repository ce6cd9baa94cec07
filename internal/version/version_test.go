package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()
	if !strings.HasPrefix(info, "fixkit ") {
		t.Errorf("Info() = %q, want fixkit prefix", info)
	}
	if !strings.Contains(info, GoVersion) {
		t.Errorf("Info() = %q, want Go version %s", info, GoVersion)
	}
}

func TestShortPrefersLdflags(t *testing.T) {
	old := Version
	Version = "v1.2.3"
	defer func() { Version = old }()

	if got := Short(); got != "v1.2.3" {
		t.Errorf("Short() = %q, want v1.2.3", got)
	}
}
