package appimage

import (
	"regexp"
	"strings"

	perr "appimagefinder/internal/platform/errors"
)

// FallbackVersion is used when neither tag nor file name carries a version
const FallbackVersion = "1.0.0.0"

var (
	reLoose  = regexp.MustCompile(`[-_]?v?(\d+\.\d+(?:\.\d+)*)`)
	reStrict = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)(?:\.(\d+))?`)
	rePair   = regexp.MustCompile(`(\d+)\.(\d+)`)
)

// LooseVersion returns the first dotted number in name, used only to count
// distinct builds in a release
func LooseVersion(name string) (string, bool) {
	m := reLoose.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// NormalizeVersion returns a four component version from the tag, then the
// file name. Three or four component matches win over two component ones;
// missing components are zero filled
func NormalizeVersion(tag, filename string) string {
	for _, s := range [...]string{tag, filename} {
		if m := reStrict.FindStringSubmatch(s); m != nil {
			return join4(m[1:])
		}
	}
	for _, s := range [...]string{tag, filename} {
		if m := rePair.FindStringSubmatch(s); m != nil {
			return join4(m[1:])
		}
	}
	return FallbackVersion
}

func join4(groups []string) string {
	parts := [4]string{"0", "0", "0", "0"}
	for i, g := range groups {
		if i < 4 && g != "" {
			parts[i] = g
		}
	}
	return strings.Join(parts[:], ".")
}

// PackageName builds the reverse DNS id io.github.<owner>.<repo> from an
// owner/repo string, split on the first slash
func PackageName(repo string) (string, error) {
	owner, name, ok := strings.Cut(strings.ToLower(strings.TrimSpace(repo)), "/")
	if !ok || owner == "" || name == "" {
		return "", perr.MalformedRepof("appimage: repo name %q is not owner/name", repo)
	}
	return "io.github." + owner + "." + name, nil
}
