package questions

import (
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// NearDuplicateSimilarity is the normalized similarity at or above which two
// questions are treated as the same.
const NearDuplicateSimilarity = 0.9

var editOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// cleanLine strips list bullets and leading numbering like "1.", "2)" or "3 -".
func cleanLine(line string) string {
	return strings.TrimSpace(strings.TrimLeftFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsDigit(r) || strings.ContainsRune("-*•.)", r)
	}))
}

func normalize(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// Similarity returns 1 - editDistance/maxLen over the normalized forms of a and b.
func Similarity(a, b string) float64 {
	ra, rb := []rune(normalize(a)), []rune(normalize(b))
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	d := levenshtein.DistanceForStrings(ra, rb, editOptions)
	return 1 - float64(d)/float64(longest)
}

// ParseQuestions extracts at most limit questions from model output, one per
// line, dropping exact and near duplicates while keeping order.
func ParseQuestions(text string, limit int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		q := cleanLine(line)
		if q == "" {
			continue
		}
		duplicate := false
		for _, kept := range out {
			if kept == q || Similarity(kept, q) >= NearDuplicateSimilarity {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, q)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
