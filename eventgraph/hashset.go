package eventgraph

import (
	"hash/maphash"
	"sort"
)

var hashSeed = maphash.MakeSeed()

// sortedKeys renders a split-id set as a stable sorted slice, both so two
// equal sets produce an identical canonical key and so any iteration over
// the set downstream is deterministic.
func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// hashIntSlice hashes a canonical (sorted) slice of ids. hash/maphash gives
// collisions a real (if small) probability, unlike the distilled spec's
// assumption that Python's hash(frozenset) never collides for this
// workload -- every caller of this function must still verify exact slice
// equality before treating two hash matches as the same set (see
// bucketFor in graph.go).
func hashIntSlice(ids []int) uint64 {
	var h maphash.Hash
	h.SetSeed(hashSeed)
	buf := make([]byte, 8)
	for _, id := range ids {
		u := uint64(int64(id))
		for i := 0; i < 8; i++ {
			buf[i] = byte(u >> (8 * i))
		}
		h.Write(buf)
	}
	return h.Sum64()
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
