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


package retrieval

import (
	"errors"
	"fmt"

	"github.com/pulsemed/protosearch/core"
)

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrEmbeddingCacheRequired is returned when an embedding cache is not provided.
	ErrEmbeddingCacheRequired = errors.New("embedding cache required")

	// ErrRankingEngineRequired is returned when a ranking engine is not provided.
	ErrRankingEngineRequired = errors.New("ranking engine required")
)

// TimeoutError reports that the request deadline expired during a specific
// stage of the search pipeline. It matches both core.ErrTimeout and the
// underlying context error through errors.Is.
type TimeoutError struct {
	Stage Stage
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("search deadline expired during %s: %v", e.Stage, e.Err)
}

func (e *TimeoutError) Unwrap() []error {
	return []error{core.ErrTimeout, e.Err}
}
