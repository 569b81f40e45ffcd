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


// Package ingestion loads protocol chunks into the search index.
//
// The Pipeline splits input into batches and processes them concurrently
// on a worker pool. Each batch is validated, embedded (chunks that
// already carry a vector skip the provider), normalized to unit length,
// and written to storage. Chunk IDs are content-derived, so loading the
// same source material twice overwrites instead of duplicating.
package ingestion
