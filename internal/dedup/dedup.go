// Package dedup identifies near-duplicate corpus items. Identification
// is a pure function over a batch; applying the deletions is the
// caller's job (see Cleaner).
package dedup

import (
	"quizforge/internal/item"
	"quizforge/internal/match"
)

const (
	// SimilarityThreshold is the normalized similarity above which two
	// same-category, same-fingerprint texts are considered duplicates.
	SimilarityThreshold = 0.85

	// MinTextLength guards against degenerate entries. Shorter texts are
	// skipped entirely: neither kept as canonical nor flagged.
	MinTextLength = 12
)

// Candidate is one corpus entry under consideration.
type Candidate struct {
	ID       string
	Category item.Category
	Text     string
}

type kept struct {
	category    item.Category
	text        string
	fingerprint string
}

// IdentifyDuplicates scans candidates in input order and returns the IDs
// judged redundant. Earlier-seen items survive as the canonical copies;
// a flagged item is compared no further. Items from different categories
// or with different numeric fingerprints are never duplicates of each
// other, regardless of textual similarity.
func IdentifyDuplicates(candidates []Candidate) []string {
	var dupes []string
	var keep []kept

	for _, c := range candidates {
		if len(c.Text) < MinTextLength {
			continue
		}

		fp := match.Fingerprint(c.Text)

		flagged := false
		for _, k := range keep {
			if k.category != c.Category {
				continue
			}
			if k.fingerprint != fp {
				continue
			}
			if match.Similarity(k.text, c.Text) > SimilarityThreshold {
				dupes = append(dupes, c.ID)
				flagged = true
				break
			}
		}

		if !flagged {
			keep = append(keep, kept{category: c.Category, text: c.Text, fingerprint: fp})
		}
	}

	return dupes
}
