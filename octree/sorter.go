package octree

import (
	"math"
	"sort"

	"go.viam.com/octreelocator/pointcloud"
)

// nearestNSorter is an ordered, bounded multiset of (dist2, id) pairs
// keyed by squared distance, capped at capacity K. Ids sharing the same
// key are grouped into one bucket so that ties at the K-th boundary are
// all kept, in insertion order, rather than arbitrarily truncated.
type nearestNSorter struct {
	capacity     int
	count        int
	largestDist2 float64 // pruning radius; stays math.MaxFloat64 until a bucket is actually dropped
	buckets      map[float64][]int
	keys         []float64 // ascending
}

func newNearestNSorter(k int) *nearestNSorter {
	return &nearestNSorter{
		capacity:     k,
		largestDist2: math.MaxFloat64,
		buckets:      make(map[float64][]int),
	}
}

// insert offers (dist2, id) to the sorter. It is kept if fewer than K
// entries are held or if it is no farther than the current pruning radius. Once accepting it would leave more than K entries, the
// whole bucket at the current largest key is dropped, provided doing so
// still leaves at least K entries; otherwise the tied bucket is kept in
// full and the sorter temporarily holds more than K entries.
func (s *nearestNSorter) insert(dist2 float64, id int) {
	if dist2 > s.largestDist2 && s.count >= s.capacity {
		return
	}

	if _, ok := s.buckets[dist2]; !ok {
		s.insertKey(dist2)
	}
	s.buckets[dist2] = append(s.buckets[dist2], id)
	s.count++

	if s.count > s.capacity {
		lastKey := s.keys[len(s.keys)-1]
		bucket := s.buckets[lastKey]
		if s.count-len(bucket) >= s.capacity {
			s.count -= len(bucket)
			delete(s.buckets, lastKey)
			s.keys = s.keys[:len(s.keys)-1]
			if len(s.keys) > 0 {
				s.largestDist2 = s.keys[len(s.keys)-1]
			} else {
				s.largestDist2 = math.MaxFloat64
			}
		}
	}
}

func (s *nearestNSorter) insertKey(key float64) {
	i := sort.SearchFloat64s(s.keys, key)
	s.keys = append(s.keys, 0)
	copy(s.keys[i+1:], s.keys[i:])
	s.keys[i] = key
}

// largest returns the current pruning radius used by traversal to decide
// whether a node's data box can still hold a closer point.
func (s *nearestNSorter) largest() float64 {
	return s.largestDist2
}

// emitSorted writes min(K, count) ids to out in ascending distance order,
// preserving insertion order within a tied bucket.
func (s *nearestNSorter) emitSorted(out pointcloud.IDList) {
	out.Reset()
	remaining := s.capacity
	if s.count < remaining {
		remaining = s.count
	}
	out.Reserve(remaining)
	for _, key := range s.keys {
		if remaining <= 0 {
			break
		}
		for _, id := range s.buckets[key] {
			if remaining <= 0 {
				break
			}
			out.Append(id)
			remaining--
		}
	}
}
