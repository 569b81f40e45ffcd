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
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Weights controls how the composite relevance score is assembled from the
// individual signals. All weights and thresholds live in [0, 1].
type Weights struct {
	// Similarity weights the vector similarity signal.
	Similarity float64 `toml:"similarity"`

	// Keyword weights the keyword overlap signal.
	Keyword float64 `toml:"keyword"`

	// Recency weights the protocol year signal.
	Recency float64 `toml:"recency"`

	// Jurisdiction weights the scope proximity signal.
	Jurisdiction float64 `toml:"jurisdiction"`

	// MinRelevance is the floor the top result must clear in vector mode.
	MinRelevance float64 `toml:"min_relevance"`

	// KeywordMinRelevance is the floor the top result must clear in
	// degraded keyword-only mode.
	KeywordMinRelevance float64 `toml:"keyword_min_relevance"`
}

// DefaultWeights returns the production scoring configuration.
func DefaultWeights() Weights {
	return Weights{
		Similarity:          0.60,
		Keyword:             0.25,
		Recency:             0.05,
		Jurisdiction:        0.10,
		MinRelevance:        0.35,
		KeywordMinRelevance: 0.15,
	}
}

// LoadWeights reads scoring weights from a TOML file. Fields absent from
// the file keep their default values.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()

	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("reading weights file: %w", err)
	}
	if err := toml.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("parsing weights file: %w", err)
	}
	if err := w.Validate(); err != nil {
		return w, err
	}
	return w, nil
}

// Validate checks that all weights and thresholds are within [0, 1] and
// that at least one signal carries weight.
func (w Weights) Validate() error {
	fields := map[string]float64{
		"similarity":            w.Similarity,
		"keyword":               w.Keyword,
		"recency":               w.Recency,
		"jurisdiction":          w.Jurisdiction,
		"min_relevance":         w.MinRelevance,
		"keyword_min_relevance": w.KeywordMinRelevance,
	}
	for name, v := range fields {
		if v < 0 || v > 1 {
			return fmt.Errorf("weight %s must be in [0, 1], got %v", name, v)
		}
	}
	if w.Similarity+w.Keyword+w.Recency+w.Jurisdiction == 0 {
		return fmt.Errorf("at least one scoring weight must be positive")
	}
	return nil
}
