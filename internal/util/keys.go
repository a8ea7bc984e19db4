package util

import (
	"encoding/binary"
	"encoding/hex"
	"sort"

	"github.com/zeebo/blake3"
)

// BatchKey returns a deterministic composite key for a set of member keys:
// prefix, ":" and the first 16 bytes of a BLAKE3 digest over the sorted,
// length-framed members. Order of keys does not matter.
func BatchKey(prefix string, keys []string) string {
	s := make([]string, len(keys))
	copy(s, keys)
	sort.Strings(s)
	return BatchKeySorted(prefix, s)
}

// BatchKeySorted is BatchKey for keys already sorted ascending.
func BatchKeySorted(prefix string, sorted []string) string {
	h := blake3.New()
	var n [binary.MaxVarintLen64]byte
	for _, k := range sorted {
		h.Write(binary.AppendUvarint(n[:0], uint64(len(k))))
		h.WriteString(k)
	}
	sum := h.Sum(nil)
	return prefix + ":" + hex.EncodeToString(sum[:16])
}
