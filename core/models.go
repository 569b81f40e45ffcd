package core

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// CacheKey is the content-addressed key for a cached embedding.
// It is the hex form of a 128-bit BLAKE2b digest of the canonical query
// text. Collisions are treated as cache-layer bugs, not tolerated.
type CacheKey string

// CacheKeyFromText derives the cache key for a canonical query text.
func CacheKeyFromText(canonicalText string) CacheKey {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(canonicalText))
	return CacheKey(hex.EncodeToString(h.Sum(nil)))
}

// IntentCategory classifies what kind of protocol content a query is after.
type IntentCategory int

const (
	// IntentGeneral is the default when no category clearly dominates.
	IntentGeneral IntentCategory = iota
	// IntentDrug indicates a medication or dosing query.
	IntentDrug
	// IntentProcedure indicates a clinical procedure query.
	IntentProcedure
	// IntentSymptom indicates a presentation or complaint query.
	IntentSymptom
)

// String returns the lowercase name of the intent category.
func (c IntentCategory) String() string {
	switch c {
	case IntentDrug:
		return "drug"
	case IntentProcedure:
		return "procedure"
	case IntentSymptom:
		return "symptom"
	default:
		return "general"
	}
}

// SearchMode identifies which retrieval path produced a result set.
type SearchMode int

const (
	// ModeVector is the primary path using embedding similarity.
	ModeVector SearchMode = iota + 1
	// ModeKeyword is the degraded fallback path using keyword overlap only.
	ModeKeyword
)

// String returns the lowercase name of the search mode.
func (m SearchMode) String() string {
	switch m {
	case ModeVector:
		return "vector"
	case ModeKeyword:
		return "keyword"
	default:
		return "unknown"
	}
}

// ProtocolChunk is an immutable unit of retrievable protocol content.
// Chunks are created by an ingestion pipeline; the retrieval path only
// ever reads them.
type ProtocolChunk struct {
	Id             ID
	AgencyId       ID // 0 when the chunk is not agency specific
	CountyId       ID // 0 when the chunk is not county specific
	StateCode      string
	ProtocolNumber string
	Title          string
	Section        string
	Text           string
	Embedding      []float32
	Year           int
}

// ContentID derives the deterministic ID for a chunk from its identifying
// fields. Identical content always produces the same ID.
func (c *ProtocolChunk) ContentID() ID {
	return IDFromContent(c.StateCode + "|" + c.ProtocolNumber + "|" + c.Section + "|" + c.Text)
}

// ScopeFilter narrows which chunks are eligible candidates for a request.
// StateCode is a hard filter; CountyId and AgencyId are soft signals used
// for jurisdiction boosting during ranking.
type ScopeFilter struct {
	StateCode string
	CountyId  ID // optional, 0 = unset
	AgencyId  ID // optional, 0 = unset
}

// Matches reports whether a chunk is an eligible candidate under this scope.
func (s ScopeFilter) Matches(chunk *ProtocolChunk) bool {
	if chunk == nil {
		return false
	}
	return strings.EqualFold(s.StateCode, chunk.StateCode)
}

// NormalizedQuery is the canonical form of a raw query. It is recomputed
// per request and never persisted.
type NormalizedQuery struct {
	CanonicalText string
	Tokens        []string
	Intent        IntentCategory
	// ExpandedTerms holds both the original and canonical token forms,
	// used for keyword scoring.
	ExpandedTerms []string
}

// Empty reports whether the query has no searchable content. Callers must
// short-circuit before touching the cache or the index when this is true.
func (q NormalizedQuery) Empty() bool {
	return len(q.Tokens) == 0
}

// CacheEntry is a cached embedding for a canonical query text.
// Once written, a key's vector is immutable; entries expire and are
// recomputed, never mutated in place.
type CacheEntry struct {
	Key       CacheKey
	Vector    []float32
	CreatedAt time.Time
	TTL       time.Duration
}

// Expired reports whether the entry has outlived its TTL at the given time.
// A zero TTL means the entry never expires.
func (e *CacheEntry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.After(e.CreatedAt.Add(e.TTL))
}

// ChunkMatch is a candidate returned by the chunk index before ranking.
type ChunkMatch struct {
	Chunk *ProtocolChunk
	Score float32
}

// RankedResult is a scored candidate in a response. Results are
// constructed fresh per request and discarded after the response is sent.
type RankedResult struct {
	Chunk             *ProtocolChunk
	SimilarityScore   float64
	KeywordScore      float64
	RecencyBoost      float64
	JurisdictionBoost float64
	CompositeScore    float64
	Rank              int // 1-based
	Degraded          bool
}

// ContentGapSignal is emitted when no candidate clears the relevance
// threshold, flagging a coverage hole in the protocol corpus. It is
// fire-and-forget; recording failures never fail the search request.
type ContentGapSignal struct {
	Query NormalizedQuery
	Scope ScopeFilter
}
