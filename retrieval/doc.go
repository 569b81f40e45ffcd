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


// Package retrieval orchestrates the search pipeline end to end.
//
// A request flows through query normalization, embedding lookup (served
// from the deduplicating cache), jurisdiction-scoped candidate retrieval,
// and composite ranking. The pipeline degrades rather than fails: when
// the embedding provider or the vector index is unavailable, the request
// is served from keyword matching alone and the response is flagged as
// degraded.
//
// When no candidate clears the relevance floor in vector mode, a content
// gap signal is emitted asynchronously so corpus coverage holes can be
// tracked without slowing down callers.
package retrieval
