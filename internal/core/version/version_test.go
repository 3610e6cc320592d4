package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	bi := Info()
	if bi.Service != "appimage-finder" || bi.Version != "dev" || bi.GoVersion != runtime.Version() {
		t.Fatalf("unexpected build info %+v", bi)
	}
	if s := bi.String(); !strings.HasPrefix(s, "appimage-finder dev (commit none") {
		t.Fatalf("String() = %q", s)
	}
}
