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


// Package embcache provides a content-addressed embedding cache with
// single-flight deduplication.
//
// The cache maps the hash of a canonical query text to a fixed-length
// vector. Lookups hit the entry store first; on a miss, at most one
// provider call is in flight per distinct canonical text at any time, and
// concurrent callers attach to that computation instead of issuing
// duplicates. Provider failures are retried with bounded exponential
// backoff for transient errors; after retries are exhausted, every
// attached waiter receives the same provider error and the key leaves the
// in-flight bookkeeping so a later request can retry fresh.
//
// Entries are write-once: re-reading a key before its TTL expires never
// triggers a provider call and always returns the same vector. Expired
// entries are treated as misses, never served stale.
package embcache
