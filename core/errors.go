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

import "errors"

// Domain errors
var (
	// ErrProvider indicates the embedding provider was unreachable or
	// failing after retries were exhausted.
	ErrProvider = errors.New("embedding provider unavailable")

	// ErrMalformedEmbedding indicates the provider returned an unusable
	// embedding. Not retried.
	ErrMalformedEmbedding = errors.New("malformed embedding response")

	// ErrIndex indicates the chunk index was unavailable. Retriable by the
	// caller, never retried locally.
	ErrIndex = errors.New("chunk index unavailable")

	// ErrTimeout indicates the per-request deadline elapsed.
	ErrTimeout = errors.New("request deadline exceeded")

	// ErrInvalidChunk indicates a ProtocolChunk failed validation.
	ErrInvalidChunk = errors.New("invalid protocol chunk")

	// ErrInvalidScope indicates a ScopeFilter failed validation.
	ErrInvalidScope = errors.New("invalid scope filter")

	// ErrEmptyChunkText indicates the chunk Text field is empty.
	ErrEmptyChunkText = errors.New("chunk text cannot be empty")

	// ErrMissingStateCode indicates a missing state code.
	ErrMissingStateCode = errors.New("state code is required")

	// ErrInvalidYear indicates an implausible protocol year.
	ErrInvalidYear = errors.New("protocol year out of range")
)
