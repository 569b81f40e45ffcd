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

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the storage wire format. Timestamps are encoded as
// microseconds since the Unix epoch, durations as nanoseconds. Embedding
// vectors use raw float32 encoding to avoid varint overhead on dense data.

var (
	// IDMUS serializes chunk IDs.
	IDMUS = idMUS{}

	// ProtocolChunkMUS serializes protocol chunks.
	ProtocolChunkMUS = protocolChunkMUS{}

	// CacheEntryMUS serializes embedding cache entries.
	CacheEntryMUS = cacheEntryMUS{}

	float32SliceMUS = ord.NewSliceSer[float32](raw.Float32)
)

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	num, n, err := varint.Uint64.Unmarshal(bs)
	return ID(num), n, err
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type protocolChunkMUS struct{}

func (s protocolChunkMUS) Marshal(v ProtocolChunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.AgencyId, bs[n:])
	n += IDMUS.Marshal(v.CountyId, bs[n:])
	n += ord.String.Marshal(v.StateCode, bs[n:])
	n += ord.String.Marshal(v.ProtocolNumber, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Section, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += float32SliceMUS.Marshal(v.Embedding, bs[n:])
	n += varint.Int.Marshal(v.Year, bs[n:])
	return n
}

func (s protocolChunkMUS) Unmarshal(bs []byte) (v ProtocolChunk, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.AgencyId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CountyId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.StateCode, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ProtocolNumber, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Section, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Embedding, n1, err = float32SliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Year, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (s protocolChunkMUS) Size(v ProtocolChunk) (size int) {
	size = IDMUS.Size(v.Id)
	size += IDMUS.Size(v.AgencyId)
	size += IDMUS.Size(v.CountyId)
	size += ord.String.Size(v.StateCode)
	size += ord.String.Size(v.ProtocolNumber)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Section)
	size += ord.String.Size(v.Text)
	size += float32SliceMUS.Size(v.Embedding)
	size += varint.Int.Size(v.Year)
	return size
}

func (s protocolChunkMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	for i := 0; i < 2; i++ {
		n1, err = IDMUS.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for i := 0; i < 5; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = float32SliceMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	return
}

type cacheEntryMUS struct{}

func (s cacheEntryMUS) Marshal(v CacheEntry, bs []byte) (n int) {
	n = ord.String.Marshal(string(v.Key), bs)
	n += float32SliceMUS.Marshal(v.Vector, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(int64(v.TTL), bs[n:])
	return n
}

func (s cacheEntryMUS) Unmarshal(bs []byte) (v CacheEntry, n int, err error) {
	key, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Key = CacheKey(key)
	var n1 int
	v.Vector, n1, err = float32SliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt = time.UnixMicro(micros).UTC()
	var nanos int64
	nanos, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	v.TTL = time.Duration(nanos)
	return
}

func (s cacheEntryMUS) Size(v CacheEntry) (size int) {
	size = ord.String.Size(string(v.Key))
	size += float32SliceMUS.Size(v.Vector)
	size += varint.Int64.Size(v.CreatedAt.UnixMicro())
	size += varint.Int64.Size(int64(v.TTL))
	return size
}

func (s cacheEntryMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = float32SliceMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		n1, err = varint.Int64.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}
