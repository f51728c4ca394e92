// Package match provides the fuzzy text comparison used for corpus
// deduplication: a normalized edit-distance similarity plus a numeric
// fingerprint that acts as a hard discriminator, so that two otherwise
// similar arithmetic questions with different operands never compare
// as duplicates.
package match

import (
	"sort"
	"strings"
	"unicode"
)

// Similarity returns 1 - normalized edit distance between a and b,
// case-insensitive. The result is in [0,1]; 1 means equal (ignoring
// case), 0 means maximally different. Two empty strings are equal.
func Similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 1
	}

	d := editDistance(ra, rb)
	return 1 - float64(d)/float64(longer)
}

// editDistance computes the Levenshtein distance with unit costs for
// insert, delete, and substitute, using the classic two-row DP.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // delete
				curr[j-1]+1,    // insert
				prev[j-1]+cost, // substitute
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// Fingerprint extracts every maximal digit run in text, sorts the values
// numerically, and joins them into a canonical key. Texts with different
// fingerprints are never duplicates regardless of textual similarity.
// Returns "" for text with no digits.
func Fingerprint(text string) string {
	var runs []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			runs = append(runs, canonNumber(cur.String()))
			cur.Reset()
		}
	}

	for _, r := range text {
		if unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	if len(runs) == 0 {
		return ""
	}

	// Numeric order for arbitrary-length runs: shorter strings are
	// smaller, equal lengths compare lexicographically.
	sort.Slice(runs, func(i, j int) bool {
		if len(runs[i]) != len(runs[j]) {
			return len(runs[i]) < len(runs[j])
		}
		return runs[i] < runs[j]
	})

	return strings.Join(runs, ",")
}

// canonNumber strips leading zeros so "007" and "7" fingerprint equally.
func canonNumber(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
