package normalize

import (
	"strings"
	"unicode"

	"github.com/pulsemed/protosearch/core"
	"github.com/pulsemed/protosearch/dictionary"
)

// Normalize turns a raw query into its canonical form.
//
// The input is lowercased and tokenized on whitespace, with punctuation
// stripped except for characters that carry clinical meaning ("/" in
// dosing like mg/kg, "." in decimals, "-" in hyphenated terms). Two-token
// phrases and single tokens are then expanded through the dictionary
// tables; unmatched tokens pass through unchanged. The intent category is
// scored from the canonical tokens.
//
// An input that is empty after stripping yields an empty token list and
// IntentGeneral; callers must treat that as "no searchable content".
func Normalize(rawQuery string) core.NormalizedQuery {
	tokens := tokenize(rawQuery)
	if len(tokens) == 0 {
		return core.NormalizedQuery{Intent: core.IntentGeneral}
	}

	canonical, expanded := expand(tokens)

	return core.NormalizedQuery{
		CanonicalText: strings.Join(canonical, " "),
		Tokens:        canonical,
		Intent:        classify(canonical),
		ExpandedTerms: expanded,
	}
}

// clinically meaningful punctuation retained inside tokens
func keepRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '/' || r == '.' || r == '-' || r == '%'
}

func tokenize(raw string) []string {
	lowered := strings.ToLower(raw)
	mapped := strings.Map(func(r rune) rune {
		if keepRune(r) {
			return r
		}
		return ' '
	}, lowered)

	fields := strings.Fields(mapped)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		// Trailing sentence punctuation is noise; interior characters
		// like the "/" in mg/kg or the "." in 0.3 stay.
		token := strings.Trim(field, "./-")
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// expand applies phrase and abbreviation expansion. It returns the
// canonical token sequence and the expanded term list, which keeps both
// original and canonical forms for keyword scoring.
func expand(tokens []string) (canonical, expanded []string) {
	canonical = make([]string, 0, len(tokens))
	seen := make(map[string]bool, len(tokens)*2)
	addTerm := func(term string) {
		if term != "" && !seen[term] {
			seen[term] = true
			expanded = append(expanded, term)
		}
	}

	for i := 0; i < len(tokens); i++ {
		if i+1 < len(tokens) {
			if phrase, ok := dictionary.Phrase(tokens[i], tokens[i+1]); ok {
				addTerm(tokens[i])
				addTerm(tokens[i+1])
				addTerm(phrase)
				canonical = append(canonical, tokenize(phrase)...)
				i++
				continue
			}
		}

		if form, ok := dictionary.Canonical(tokens[i]); ok {
			addTerm(tokens[i])
			addTerm(form)
			canonical = append(canonical, tokenize(form)...)
			continue
		}

		addTerm(tokens[i])
		canonical = append(canonical, tokens[i])
	}
	return canonical, expanded
}

// classify scores token overlap against the weighted keyword lists and
// picks the highest-scoring non-zero category. Ties and all-zero scores
// fall back to IntentGeneral.
func classify(tokens []string) core.IntentCategory {
	best := core.IntentGeneral
	var bestScore float64
	tied := false

	for _, category := range dictionary.ScoredCategories() {
		var score float64
		for _, token := range tokens {
			score += dictionary.IntentWeight(category, token)
		}
		switch {
		case score > bestScore:
			best = category
			bestScore = score
			tied = false
		case score == bestScore && score > 0:
			tied = true
		}
	}

	if bestScore == 0 || tied {
		return core.IntentGeneral
	}
	return best
}
