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

// Package storage defines the persistence interfaces for protocol chunks
// and the binary serialization used by storage backends.
//
// The chunk index is jurisdiction-scoped: nearest-neighbor and keyword
// queries take a core.ScopeFilter and only consider chunks within the
// requested state. The retrieval pipeline treats the index as read-only;
// writing chunks is the ingestion pipeline's job.
//
// The badger sub-package provides the BadgerDB-backed implementation,
// including an in-memory mode for tests.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
