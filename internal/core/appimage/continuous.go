package appimage

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultKeywords flag rolling release names. "continous" is a common typo
var DefaultKeywords = []string{"continuous", "continous", "latest", "nightly", "daily", "current"}

// ContinuousPolicy decides whether a release is a rolling CI publication
// rather than a discrete version. It is a heuristic: a versioned release that
// ships three independently numbered builds trips the version threshold too
type ContinuousPolicy struct {
	Keywords []string
	// MinDistinctVersions is the number of distinct loose versions across the
	// qualifying assets at which a release counts as continuous; <= 0 disables it
	MinDistinctVersions int
}

// DefaultContinuousPolicy is the policy used by the finder
var DefaultContinuousPolicy = ContinuousPolicy{Keywords: DefaultKeywords, MinDistinctVersions: 3}

var foldPool = sync.Pool{
	New: func() any { return transform.Chain(norm.NFKC, cases.Fold()) },
}

// Fold maps s to NFKC and case folds it so fullwidth and mixed case spellings
// compare equal to their ASCII lowercase form
func Fold(s string) string {
	if s == "" {
		return ""
	}
	tr := foldPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// IsContinuous reports whether the release should be dropped
func (p ContinuousPolicy) IsContinuous(releaseName string, qualifying []Asset) bool {
	if p.MatchesKeyword(releaseName) {
		return true
	}
	if p.MinDistinctVersions <= 0 {
		return false
	}
	return DistinctVersions(qualifying) >= p.MinDistinctVersions
}

// MatchesKeyword reports whether the folded release name contains a keyword
func (p ContinuousPolicy) MatchesKeyword(releaseName string) bool {
	if releaseName == "" {
		return false
	}
	name := Fold(releaseName)
	for _, kw := range p.Keywords {
		if kw != "" && strings.Contains(name, Fold(kw)) {
			return true
		}
	}
	return false
}

// DistinctVersions counts the loose versions found across asset names
func DistinctVersions(assets []Asset) int {
	seen := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		if v, ok := LooseVersion(a.Name); ok {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}
