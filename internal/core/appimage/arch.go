package appimage

import (
	"regexp"
	"strings"

	perr "appimagefinder/internal/platform/errors"
)

// Arch is an architecture tag as written into records and file names
type Arch string

const (
	ArchUnknown Arch = "unknown"
	ArchX86_64  Arch = "x86_64"
	ArchAarch64 Arch = "aarch64"
	// ArchAll is only valid as a target, never as a record tag
	ArchAll Arch = "all"
)

var (
	reX86 = regexp.MustCompile(`(?i)(x86_64|x86-64|amd64|64bit|x64|x86)`)
	reArm = regexp.MustCompile(`(?i)(aarch64|arm64)`)
)

// ParseTarget validates a user supplied target architecture
func ParseTarget(s string) (Arch, error) {
	switch a := Arch(strings.ToLower(strings.TrimSpace(s))); a {
	case ArchX86_64, ArchAarch64, ArchAll:
		return a, nil
	case "":
		return ArchAll, nil
	default:
		return "", perr.WithField(perr.InvalidArgf("appimage: unknown architecture %q", s), "arch")
	}
}

// ExtractArch scans a file name for an architecture marker. x86 spellings win
// over arm ones when both appear
func ExtractArch(name string) Arch {
	switch {
	case reX86.MatchString(name):
		return ArchX86_64
	case reArm.MatchString(name):
		return ArchAarch64
	default:
		return ArchUnknown
	}
}

// ResolveArch applies the default for unlabeled assets: most published
// AppImages are x86_64, so an unknown tag becomes x86_64 unless the caller
// asked for aarch64 specifically
func ResolveArch(extracted, target Arch) Arch {
	if extracted != ArchUnknown && extracted != "" {
		return extracted
	}
	if target == ArchAll || target == ArchX86_64 {
		return ArchX86_64
	}
	return ArchUnknown
}
