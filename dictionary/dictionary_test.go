package dictionary

import (
	"strings"
	"testing"

	"github.com/pulsemed/protosearch/core"
	"github.com/stretchr/testify/assert"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		token string
		want  string
		found bool
	}{
		{"epi", "epinephrine", true},
		{"narcan", "naloxone", true},
		{"sob", "shortness of breath", true},
		{"bvm", "bag-valve-mask", true},
		{"epinephrine", "", false},
		{"chest", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := Canonical(tt.token)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPhrase(t *testing.T) {
	got, ok := Phrase("epi", "pen")
	assert.True(t, ok)
	assert.Equal(t, "epinephrine auto-injector", got)

	_, ok = Phrase("chest", "pain")
	assert.False(t, ok)
}

func TestIntentWeight(t *testing.T) {
	assert.Equal(t, float64(3), IntentWeight(core.IntentDrug, "epinephrine"))
	assert.Equal(t, float64(2), IntentWeight(core.IntentDrug, "dose"))
	assert.Equal(t, float64(3), IntentWeight(core.IntentProcedure, "intubation"))
	assert.Equal(t, float64(3), IntentWeight(core.IntentSymptom, "anaphylaxis"))
	assert.Zero(t, IntentWeight(core.IntentDrug, "xylophone"))
	assert.Zero(t, IntentWeight(core.IntentGeneral, "epinephrine"))
}

func TestScoredCategories(t *testing.T) {
	cats := ScoredCategories()
	assert.Equal(t, []core.IntentCategory{core.IntentDrug, core.IntentProcedure, core.IntentSymptom}, cats)
}

// Canonical forms must never themselves be abbreviation keys, otherwise
// normalization would not be idempotent.
func TestCanonicalFormsAreTerminal(t *testing.T) {
	for token, expansion := range abbreviations {
		for _, word := range strings.Fields(expansion) {
			_, ok := abbreviations[word]
			assert.False(t, ok, "expansion of %q contains abbreviation key %q", token, word)
		}
	}
	for phrase, expansion := range phrases {
		for _, word := range strings.Fields(expansion) {
			_, ok := abbreviations[word]
			assert.False(t, ok, "expansion of %q contains abbreviation key %q", phrase, word)
		}
	}
}
