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


// Package ranking turns raw index candidates into an ordered result list.
//
// Four signals feed a weighted composite score: vector similarity, keyword
// overlap, protocol recency, and jurisdiction proximity. Weights are
// configurable through TOML; the defaults favor semantic similarity with
// keyword overlap as the strongest secondary signal.
//
// Ordering is fully deterministic. Ties on the composite score fall back
// to similarity, then protocol number, then chunk ID, so identical corpora
// always produce identical result lists.
package ranking
