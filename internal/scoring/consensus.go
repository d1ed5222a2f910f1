package scoring

import (
	"sort"
	"strings"
	"unicode"
)

const minTokenLength = 2

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {}, "for": {},
	"from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "their": {}, "they": {}, "this": {}, "to": {}, "was": {},
	"were": {}, "which": {}, "with": {}, "you": {}, "your": {},
}

// Tokenize lowercases text, strips punctuation, drops stopwords and very short
// tokens and returns the remaining distinct tokens.
func Tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) < minTokenLength {
			continue
		}
		if _, skip := stopwords[f]; skip {
			continue
		}
		set[f] = struct{}{}
	}
	return set
}

// Jaccard returns |A∩B| / |A∪B|. Two empty sets have similarity 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// PairSimilarity is the similarity of one platform pair.
type PairSimilarity struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	Similarity float64 `json:"similarity"`
}

// ConsensusResult summarises cross-platform agreement on a 0-100 scale.
type ConsensusResult struct {
	Score        float64          `json:"score"`
	Level        string           `json:"level"`
	Platforms    []string         `json:"platforms"`
	Pairs        []PairSimilarity `json:"pairs"`
	Insufficient bool             `json:"insufficient"`
}

// Consensus scores agreement between platform answers as the mean pairwise
// Jaccard similarity. Empty answers are ignored; fewer than two remaining
// answers yield an insufficient result with score 0.
func Consensus(answers map[string]string) ConsensusResult {
	names := make([]string, 0, len(answers))
	tokens := make(map[string]map[string]struct{}, len(answers))
	for name, answer := range answers {
		if strings.TrimSpace(answer) == "" {
			continue
		}
		names = append(names, name)
		tokens[name] = Tokenize(answer)
	}
	sort.Strings(names)

	res := ConsensusResult{Platforms: names, Pairs: []PairSimilarity{}}
	if len(names) < 2 {
		res.Insufficient = true
		res.Level = ConsensusLevel(0)
		return res
	}

	var total float64
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			sim := Jaccard(tokens[names[i]], tokens[names[j]])
			total += sim
			res.Pairs = append(res.Pairs, PairSimilarity{A: names[i], B: names[j], Similarity: Round(sim, 4)})
		}
	}

	res.Score = Round(total/float64(len(res.Pairs))*100, 2)
	res.Level = ConsensusLevel(res.Score)
	return res
}

// ConsensusLevel labels a consensus score.
func ConsensusLevel(score float64) string {
	switch {
	case score >= 70:
		return "strong"
	case score >= 40:
		return "moderate"
	case score > 0:
		return "weak"
	default:
		return "none"
	}
}
