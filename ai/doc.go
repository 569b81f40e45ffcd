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


// Package ai defines the embedding provider abstraction used by the
// retrieval pipeline.
//
// The retrieval core depends only on the Embedder interface; concrete
// implementations live in sub-packages:
//
//   - ai/openai: production implementation against OpenAI-compatible APIs
//   - ai/ratelimit: client-side rate-limiting decorator for any Embedder
//   - ai/mock: test doubles with call counting and behavior injection
//
// Public constructors (openai.NewEmbedder, ratelimit.NewEmbedder) return
// the ai.Embedder interface to enforce abstraction. Mock constructors
// return concrete types so tests can assert call counts and inject
// failure behavior.
package ai
