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


package core

import "fmt"

// Protocol chunks predate electronic records only back so far, and a year
// in the far future is a data entry error.
const (
	minProtocolYear = 1970
	maxProtocolYear = 2100
)

// ValidateProtocolChunk validates a ProtocolChunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - StateCode must not be empty
//   - Year, when set, must be plausible
//
// NOT validated (populated by the ingestion pipeline):
//   - Embedding (can be empty until the chunk is embedded)
//   - Id (0 is valid until a content ID is assigned)
func ValidateProtocolChunk(chunk *ProtocolChunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkText)
	}

	if chunk.StateCode == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrMissingStateCode)
	}

	if chunk.Year != 0 && (chunk.Year < minProtocolYear || chunk.Year > maxProtocolYear) {
		return fmt.Errorf("%w: %w: %d", ErrInvalidChunk, ErrInvalidYear, chunk.Year)
	}

	return nil
}

// ValidateScopeFilter validates a ScopeFilter according to domain rules.
// StateCode is required; county and agency are optional narrowing signals.
func ValidateScopeFilter(scope *ScopeFilter) error {
	if scope == nil {
		return fmt.Errorf("%w: scope is nil", ErrInvalidScope)
	}
	if scope.StateCode == "" {
		return fmt.Errorf("%w: %w", ErrInvalidScope, ErrMissingStateCode)
	}
	return nil
}
