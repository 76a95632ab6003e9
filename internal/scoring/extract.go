package scoring

import (
	"math"
	"strconv"
	"strings"
)

var explainTriggers = map[string]struct{}{
	"explain":         {},
	"explain please":  {},
	"can you explain": {},
	"idk":             {},
	"i dont know":     {},
	"i don't know":    {},
	"no idea":         {},
}

var depthKeywords = []string{"because", "architecture", "scalable", "tradeoff"}

// IsExplainTrigger reports whether transcript asks for the question to be
// explained rather than answering it.
func IsExplainTrigger(transcript string) bool {
	t := strings.ToLower(strings.TrimSpace(transcript))
	if _, ok := explainTriggers[t]; ok {
		return true
	}
	return strings.Contains(t, "explain") && len(strings.Fields(t)) <= 6
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// ExtractScore returns the first standalone number in text that is either 10
// (optionally followed by ".0...") or a single digit with an optional
// fraction, provided it lies in [0, 10]. A number embedded in a longer run of
// digits, like "123", never matches.
func ExtractScore(text string) (float64, bool) {
	for i := 0; i < len(text); i++ {
		if !isDigit(text[i]) || (i > 0 && isDigit(text[i-1])) {
			continue
		}
		for _, end := range candidateEnds(text, i) {
			if end < len(text) && isDigit(text[end]) {
				continue
			}
			v, err := strconv.ParseFloat(text[i:end], 64)
			if err != nil || v < 0 || v > 10 {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}

// candidateEnds lists match ends starting at i, longest first within each
// alternative, with the "10" forms tried before the single digit forms.
func candidateEnds(text string, i int) []int {
	var ends []int

	if strings.HasPrefix(text[i:], "10") {
		j := i + 2
		if j < len(text) && text[j] == '.' {
			k := j + 1
			for k < len(text) && text[k] == '0' {
				k++
			}
			for e := k; e > j+1; e-- {
				ends = append(ends, e)
			}
		}
		ends = append(ends, i+2)
	}

	j := i + 1
	if j < len(text) && text[j] == '.' {
		k := j + 1
		for k < len(text) && isDigit(text[k]) {
			k++
		}
		for e := k; e > j+1; e-- {
			ends = append(ends, e)
		}
	}
	return append(ends, i+1)
}

// Heuristic scores an answer without a model: 4 points for answering, up to
// 4 more for length (full at 80 words) and 2 for any depth keyword.
func Heuristic(answer string) float64 {
	if strings.TrimSpace(answer) == "" {
		return 0
	}
	lengthFactor := math.Min(float64(len(strings.Fields(answer)))/80.0, 1.0)

	bonus := 0.0
	lower := strings.ToLower(answer)
	for _, k := range depthKeywords {
		if strings.Contains(lower, k) {
			bonus = 2.0
			break
		}
	}
	return Round2(Clamp(4.0 + lengthFactor*4.0 + bonus))
}

// Clamp limits v to [0, 10].
func Clamp(v float64) float64 {
	return math.Max(0, math.Min(10, v))
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
