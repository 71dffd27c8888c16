package sync

import (
	"encoding/binary"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring consistently hashes keys onto a fixed number of buckets. Each bucket
// owns replicas points on the ring, and a key belongs to the bucket owning the
// first point at or after the key's hash.
type ring struct {
	points *treemap.Map // int64 -> int

	// first is the bucket owning the lowest point, for keys hashing past the
	// last one
	first int
}

func newRing(buckets, replicas int) *ring {
	points := treemap.NewWith(utils.Int64Comparator)

	var bucket, replica [4]byte
	for b := 0; b < buckets; b++ {
		binary.LittleEndian.PutUint32(bucket[:], uint32(b))
		for r := 0; r < replicas; r++ {
			binary.LittleEndian.PutUint32(replica[:], uint32(r))
			points.Put(hash(bucket[:], replica[:]), b)
		}
	}

	r := &ring{points: points}
	if _, first := points.Min(); first != nil {
		r.first = first.(int)
	}
	return r
}

func (r *ring) bucket(key []byte) int {
	if _, b := r.points.Ceiling(hash(key)); b != nil {
		return b.(int)
	}
	return r.first
}

func hash(parts ...[]byte) int64 {
	h := murmur3.New64()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return int64(h.Sum64())
}
