// Copyright 2026 PulseMed Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ranking

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/pulsemed/protosearch/core"
)

// Engine assembles composite relevance scores from the individual signals
// and orders candidates deterministically. Scoring is pure: the same
// inputs always produce the same ordering, regardless of input order.
type Engine struct {
	weights Weights
	logger  *slog.Logger
}

// NewEngine creates a ranking engine with the given weights.
func NewEngine(weights Weights, logger *slog.Logger) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		weights: weights,
		logger:  logger.With("component", "ranking"),
	}, nil
}

// Weights returns the engine's scoring configuration.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Rank scores and orders candidates. In vector mode the candidate score
// is the vector similarity; in keyword mode similarity contributes
// nothing and the keyword floor applies instead. The boolean return is
// true when the top candidate fails to clear the relevance floor, which
// signals a coverage gap: in that case no results are returned at all,
// since serving weak matches for a medical query is worse than serving
// none.
func (e *Engine) Rank(query *core.NormalizedQuery, candidates []core.ChunkMatch, scope *core.ScopeFilter, mode core.SearchMode) ([]core.RankedResult, bool) {
	if len(candidates) == 0 {
		return nil, true
	}

	maxYear := 0
	for _, c := range candidates {
		if c.Chunk.Year > maxYear {
			maxYear = c.Chunk.Year
		}
	}

	degraded := mode == core.ModeKeyword
	results := make([]core.RankedResult, 0, len(candidates))
	for _, c := range candidates {
		r := core.RankedResult{
			Chunk:             c.Chunk,
			KeywordScore:      keywordSignal(query.ExpandedTerms, c.Chunk),
			RecencyBoost:      recencySignal(c.Chunk.Year, maxYear),
			JurisdictionBoost: jurisdictionSignal(c.Chunk, scope),
			Degraded:          degraded,
		}
		if !degraded {
			r.SimilarityScore = clamp01(float64(c.Score))
		}
		r.CompositeScore = e.weights.Similarity*r.SimilarityScore +
			e.weights.Keyword*r.KeywordScore +
			e.weights.Recency*r.RecencyBoost +
			e.weights.Jurisdiction*r.JurisdictionBoost
		results = append(results, r)
	}

	slices.SortFunc(results, compareResults)

	floor := e.weights.MinRelevance
	if degraded {
		floor = e.weights.KeywordMinRelevance
	}
	if results[0].CompositeScore < floor {
		e.logger.Debug("top candidate below relevance floor",
			"score", results[0].CompositeScore,
			"floor", floor,
			"mode", mode.String())
		return nil, true
	}

	for i := range results {
		results[i].Rank = i + 1
	}
	return results, false
}

// compareResults orders by composite score descending, then similarity
// descending, then protocol number ascending, then ID ascending. The
// trailing keys guarantee a stable total order for equal scores.
func compareResults(a, b core.RankedResult) int {
	if a.CompositeScore != b.CompositeScore {
		if a.CompositeScore > b.CompositeScore {
			return -1
		}
		return 1
	}
	if a.SimilarityScore != b.SimilarityScore {
		if a.SimilarityScore > b.SimilarityScore {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.Chunk.ProtocolNumber, b.Chunk.ProtocolNumber); c != 0 {
		return c
	}
	if a.Chunk.Id < b.Chunk.Id {
		return -1
	}
	if a.Chunk.Id > b.Chunk.Id {
		return 1
	}
	return 0
}

// keywordSignal is the fraction of expanded terms present in the chunk.
// Terms found in the title or protocol number earn double credit; the
// signal clamps to 1.0.
func keywordSignal(terms []string, chunk *core.ProtocolChunk) float64 {
	if len(terms) == 0 {
		return 0
	}

	text := strings.ToLower(chunk.Text)
	title := strings.ToLower(chunk.Title)
	number := strings.ToLower(chunk.ProtocolNumber)

	var credit float64
	for _, term := range terms {
		t := strings.ToLower(term)
		switch {
		case strings.Contains(title, t) || strings.Contains(number, t):
			credit += 2
		case strings.Contains(text, t):
			credit += 1
		}
	}
	return clamp01(credit / float64(len(terms)))
}

// recencySignal decays linearly over a ten year window behind the newest
// candidate. Chunks without a year get no recency credit.
func recencySignal(year, maxYear int) float64 {
	if year <= 0 || maxYear <= 0 {
		return 0
	}
	return clamp01(1 - float64(maxYear-year)/10)
}

// jurisdictionSignal rewards candidates close to the caller's scope: a
// direct agency match scores 1.0, a county match 0.6. State membership
// alone earns nothing since every candidate already shares the state.
func jurisdictionSignal(chunk *core.ProtocolChunk, scope *core.ScopeFilter) float64 {
	if scope == nil {
		return 0
	}
	if scope.AgencyId != 0 && chunk.AgencyId == scope.AgencyId {
		return 1.0
	}
	if scope.CountyId != 0 && chunk.CountyId == scope.CountyId {
		return 0.6
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
