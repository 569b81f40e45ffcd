package badger

import (
	"encoding/binary"
	"strings"

	"github.com/pulsemed/protosearch/core"
)

// Key prefixes for different data types
const (
	chunkPrefix      = "prochk"
	cacheEntryPrefix = "embent"
)

// normalizeState folds a state code to its canonical key form.
func normalizeState(stateCode string) string {
	return strings.ToUpper(strings.TrimSpace(stateCode))
}

// makeStatePrefix generates the scan prefix for all chunks in a state.
// Format: prefix:STATE:
func makeStatePrefix(stateCode string) []byte {
	return []byte(chunkPrefix + ":" + normalizeState(stateCode) + ":")
}

// makeChunkKey generates a key for a protocol chunk by state and ID.
// Format: prefix:STATE:id
func makeChunkKey(stateCode string, id core.ID) []byte {
	prefix := makeStatePrefix(stateCode)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeCacheEntryKey generates a key for an embedding cache entry.
// Format: prefix:key
func makeCacheEntryKey(key core.CacheKey) []byte {
	return []byte(cacheEntryPrefix + ":" + string(key))
}
