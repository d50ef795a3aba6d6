package aeo

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// nameMatchCutoff is the similarity above which two names are the same brand.
const nameMatchCutoff = 0.85

// similarity is the Ratcliff/Obershelp ratio of two strings, character-wise.
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// canonicalName maps raw onto a name already in known: the closest match at
// or above the cutoff, else the first known name (longer than 3 chars) that
// contains raw or is contained in it. With no match raw is returned.
func canonicalName(raw string, known []string) string {
	best, bestScore := "", 0.0
	for _, k := range known {
		s := similarity(k, raw)
		if s < nameMatchCutoff {
			continue
		}
		if s > bestScore || (s == bestScore && k > best) {
			best, bestScore = k, s
		}
	}
	if best != "" {
		return best
	}
	for _, k := range known {
		if len(k) > 3 && (strings.Contains(raw, k) || strings.Contains(k, raw)) {
			return k
		}
	}
	return raw
}
