package sync

import (
	"encoding/binary"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring over a fixed number of stripes. Every stripe
// owns replicas points on the ring, and a key maps to the stripe owning the
// first point at or after the key's hash.
type ring struct {
	points *treemap.Map

	// first caches the stripe owning the lowest point, which receives keys
	// hashing past the highest point.
	first int
}

func newRing(stripes, replicas uint) *ring {
	points := treemap.NewWith(utils.Int64Comparator)

	for stripe := 0; stripe < int(stripes); stripe++ {
		stripeHash, _ := murmur3.Sum128([]byte(fmt.Sprintf("entry%d", stripe)))

		var seed [12]byte
		binary.LittleEndian.PutUint64(seed[:8], stripeHash)
		for replica := uint32(0); replica < uint32(replicas); replica++ {
			binary.LittleEndian.PutUint32(seed[8:], replica)
			point, _ := murmur3.Sum128(seed[:])
			points.Put(int64(point), stripe)
		}
	}

	r := &ring{points: points}
	if _, first := points.Min(); first != nil {
		r.first = first.(int)
	}
	return r
}

// shard returns the stripe for key.
func (r *ring) shard(key []byte) int {
	hash, _ := murmur3.Sum128(key)
	if _, stripe := r.points.Ceiling(int64(hash)); stripe != nil {
		return stripe.(int)
	}
	return r.first
}
