package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := IDFromContent("epinephrine auto-injector")
		b := IDFromContent("epinephrine auto-injector")
		assert.Equal(t, a, b)
	})

	t.Run("distinct content distinct ids", func(t *testing.T) {
		a := IDFromContent("epinephrine")
		b := IDFromContent("naloxone")
		assert.NotEqual(t, a, b)
	})
}

func TestCacheKeyFromText(t *testing.T) {
	a := CacheKeyFromText("epinephrine auto-injector dose")
	b := CacheKeyFromText("epinephrine auto-injector dose")
	c := CacheKeyFromText("naloxone dose")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	// 128-bit digest, hex encoded
	assert.Len(t, string(a), 32)
}

func TestProtocolChunkContentID(t *testing.T) {
	chunk := &ProtocolChunk{
		StateCode:      "CA",
		ProtocolNumber: "P-201",
		Section:        "Adult Dosing",
		Text:           "Administer epinephrine 0.3 mg IM.",
	}
	other := &ProtocolChunk{
		StateCode:      "CA",
		ProtocolNumber: "P-201",
		Section:        "Pediatric Dosing",
		Text:           "Administer epinephrine 0.3 mg IM.",
	}

	assert.Equal(t, chunk.ContentID(), chunk.ContentID())
	assert.NotEqual(t, chunk.ContentID(), other.ContentID())
}

func TestScopeFilterMatches(t *testing.T) {
	scope := ScopeFilter{StateCode: "CA", AgencyId: 42}

	tests := []struct {
		name  string
		chunk *ProtocolChunk
		want  bool
	}{
		{"same state same agency", &ProtocolChunk{StateCode: "CA", AgencyId: 42}, true},
		{"same state other agency", &ProtocolChunk{StateCode: "CA", AgencyId: 7}, true},
		{"state case insensitive", &ProtocolChunk{StateCode: "ca"}, true},
		{"other state", &ProtocolChunk{StateCode: "NV", AgencyId: 42}, false},
		{"nil chunk", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scope.Matches(tt.chunk))
		})
	}
}

func TestNormalizedQueryEmpty(t *testing.T) {
	assert.True(t, NormalizedQuery{}.Empty())
	assert.False(t, NormalizedQuery{Tokens: []string{"epinephrine"}}.Empty())
}

func TestCacheEntryExpired(t *testing.T) {
	now := time.Now().UTC()

	t.Run("fresh entry", func(t *testing.T) {
		e := &CacheEntry{CreatedAt: now, TTL: time.Hour}
		assert.False(t, e.Expired(now.Add(30*time.Minute)))
	})

	t.Run("expired entry", func(t *testing.T) {
		e := &CacheEntry{CreatedAt: now, TTL: time.Hour}
		assert.True(t, e.Expired(now.Add(2*time.Hour)))
	})

	t.Run("zero TTL never expires", func(t *testing.T) {
		e := &CacheEntry{CreatedAt: now, TTL: 0}
		assert.False(t, e.Expired(now.Add(1000*time.Hour)))
	})
}

func TestIntentCategoryString(t *testing.T) {
	assert.Equal(t, "drug", IntentDrug.String())
	assert.Equal(t, "procedure", IntentProcedure.String())
	assert.Equal(t, "symptom", IntentSymptom.String())
	assert.Equal(t, "general", IntentGeneral.String())
	assert.Equal(t, "general", IntentCategory(99).String())
}

func TestSearchModeString(t *testing.T) {
	require.Equal(t, "vector", ModeVector.String())
	require.Equal(t, "keyword", ModeKeyword.String())
	require.Equal(t, "unknown", SearchMode(0).String())
}
