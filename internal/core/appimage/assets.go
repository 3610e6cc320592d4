package appimage

import "strings"

// Suffix marks an AppImage bundle
const Suffix = ".AppImage"

// ChecksumSuffixes are the sidecar extensions kept with include-checksums
var ChecksumSuffixes = []string{".sha256sum", ".md5", ".sha256", ".sha512", ".md5sum"}

// Asset is the part of a release asset the filter looks at
type Asset struct {
	Name string
	URL  string
}

// IsAppImage reports whether name carries the AppImage suffix
func IsAppImage(name string) bool { return strings.HasSuffix(name, Suffix) }

func isChecksum(name string) bool {
	for _, s := range ChecksumSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// FilterAssets returns the qualifying assets of one release in input order.
// AppImages pass when their resolved arch matches target (any arch for
// ArchAll). With includeChecksums a checksum file passes when some accepted
// AppImage in the same release starts with the checksum's base name, the part
// before its first dot
func FilterAssets(assets []Asset, includeChecksums bool, target Arch) []Asset {
	var out []Asset
	for _, a := range assets {
		switch {
		case IsAppImage(a.Name):
			if acceptArch(a.Name, target) {
				out = append(out, a)
			}
		case includeChecksums && isChecksum(a.Name):
			if hasSibling(assets, baseName(a.Name), target) {
				out = append(out, a)
			}
		}
	}
	return out
}

func acceptArch(name string, target Arch) bool {
	if target == ArchAll {
		return true
	}
	return ResolveArch(ExtractArch(name), target) == target
}

func baseName(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

func hasSibling(assets []Asset, base string, target Arch) bool {
	for _, a := range assets {
		if IsAppImage(a.Name) && strings.HasPrefix(a.Name, base) && acceptArch(a.Name, target) {
			return true
		}
	}
	return false
}
