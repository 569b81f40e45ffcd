package normalize

import (
	"testing"

	"github.com/pulsemed/protosearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_PhraseAndAbbreviationExpansion(t *testing.T) {
	nq := Normalize("Epi Pen dose")

	assert.Contains(t, nq.Tokens, "epinephrine")
	assert.Contains(t, nq.Tokens, "auto-injector")
	assert.Contains(t, nq.Tokens, "dose")
	assert.Equal(t, core.IntentDrug, nq.Intent)

	// Expanded terms keep both original and canonical forms.
	assert.Contains(t, nq.ExpandedTerms, "epi")
	assert.Contains(t, nq.ExpandedTerms, "pen")
	assert.Contains(t, nq.ExpandedTerms, "epinephrine auto-injector")
	assert.Contains(t, nq.ExpandedTerms, "dose")
}

func TestNormalize_SingleTokenExpansion(t *testing.T) {
	nq := Normalize("narcan overdose")

	assert.Equal(t, []string{"naloxone", "overdose"}, nq.Tokens)
	assert.Equal(t, "naloxone overdose", nq.CanonicalText)
	assert.Contains(t, nq.ExpandedTerms, "narcan")
	assert.Contains(t, nq.ExpandedTerms, "naloxone")
}

func TestNormalize_UnmatchedTokensPassThrough(t *testing.T) {
	nq := Normalize("pelvic binder placement")
	assert.Equal(t, []string{"pelvic", "binder", "placement"}, nq.Tokens)
	assert.Equal(t, core.IntentGeneral, nq.Intent)
}

func TestNormalize_ClinicalPunctuationRetained(t *testing.T) {
	nq := Normalize("epinephrine 0.01 mg/kg IM?")

	assert.Contains(t, nq.Tokens, "0.01")
	assert.Contains(t, nq.Tokens, "mg/kg")
	assert.Contains(t, nq.Tokens, "intramuscular")
	assert.NotContains(t, nq.CanonicalText, "?")
	assert.Equal(t, core.IntentDrug, nq.Intent)
}

func TestNormalize_EmptyAfterStripping(t *testing.T) {
	for _, raw := range []string{"", "   ", "!!!", "?!,;"} {
		nq := Normalize(raw)
		assert.True(t, nq.Empty(), "input %q", raw)
		assert.Equal(t, core.IntentGeneral, nq.Intent)
		assert.Empty(t, nq.CanonicalText)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"epi pen dose",
		"Narcan for suspected overdose",
		"SOB with wheezing",
		"chest pain ASA and nitro",
		"BVM ventilation rate",
	}

	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			first := Normalize(raw)
			second := Normalize(first.CanonicalText)

			require.Equal(t, first.CanonicalText, second.CanonicalText)
			require.Equal(t, first.Tokens, second.Tokens)
			require.Equal(t, first.Intent, second.Intent)
		})
	}
}

func TestNormalize_IntentClassification(t *testing.T) {
	tests := []struct {
		query string
		want  core.IntentCategory
	}{
		{"epinephrine dose anaphylaxis", core.IntentDrug},
		{"needle decompression technique", core.IntentProcedure},
		{"seizure with fever", core.IntentSymptom},
		{"protocol index", core.IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.query).Intent)
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	first := Normalize("epi pen dose")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Normalize("epi pen dose"))
	}
}
