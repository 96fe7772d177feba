package octree

import (
	"testing"

	"go.viam.com/octreelocator/pointcloud"
	"go.viam.com/test"
)

func TestNearestNSorter(t *testing.T) {
	t.Run("keeps the k smallest in ascending order", func(t *testing.T) {
		s := newNearestNSorter(3)
		s.insert(9, 100)
		s.insert(1, 101)
		s.insert(4, 102)
		s.insert(16, 103)
		s.insert(2, 104)

		out := pointcloud.NewSliceIDList()
		s.emitSorted(out)

		test.That(t, out.Count(), test.ShouldEqual, 3)
		test.That(t, out.Get(0), test.ShouldEqual, 101)
		test.That(t, out.Get(1), test.ShouldEqual, 104)
		test.That(t, out.Get(2), test.ShouldEqual, 102)
	})

	t.Run("keeps every id within an over-capacity tied bucket", func(t *testing.T) {
		s := newNearestNSorter(2)
		s.insert(5, 1)
		s.insert(5, 2)
		s.insert(5, 3)

		out := pointcloud.NewSliceIDList()
		s.emitSorted(out)

		test.That(t, s.count, test.ShouldEqual, 3)
		test.That(t, out.Count(), test.ShouldEqual, 2)
	})

	t.Run("drops the farthest bucket once capacity is exceeded", func(t *testing.T) {
		s := newNearestNSorter(2)
		s.insert(1, 1)
		s.insert(2, 2)
		s.insert(3, 3)

		test.That(t, s.largest(), test.ShouldEqual, float64(2))

		out := pointcloud.NewSliceIDList()
		s.emitSorted(out)
		test.That(t, out.Count(), test.ShouldEqual, 2)
		test.That(t, out.Get(0), test.ShouldEqual, 1)
		test.That(t, out.Get(1), test.ShouldEqual, 2)
	})

	t.Run("rejects points beyond the pruning radius once full", func(t *testing.T) {
		s := newNearestNSorter(1)
		s.insert(1, 1)
		s.insert(5, 2)

		out := pointcloud.NewSliceIDList()
		s.emitSorted(out)
		test.That(t, out.Count(), test.ShouldEqual, 1)
		test.That(t, out.Get(0), test.ShouldEqual, 1)
	})

	t.Run("largest stays unbounded until a bucket is actually dropped", func(t *testing.T) {
		s := newNearestNSorter(5)
		s.insert(1, 1)
		s.insert(2, 2)
		test.That(t, s.largest(), test.ShouldEqual, sentinelDist2)
	})

	t.Run("capacity one drops a whole tied bucket when a nearer point arrives", func(t *testing.T) {
		s := newNearestNSorter(1)
		s.insert(5, 1)
		s.insert(5, 2)
		s.insert(1, 3)

		out := pointcloud.NewSliceIDList()
		s.emitSorted(out)
		test.That(t, out.Count(), test.ShouldEqual, 1)
		test.That(t, out.Get(0), test.ShouldEqual, 3)
	})

	t.Run("emitting from an empty sorter yields an empty list", func(t *testing.T) {
		s := newNearestNSorter(3)
		out := pointcloud.NewSliceIDList()
		out.Append(42)
		s.emitSorted(out)
		test.That(t, out.Count(), test.ShouldEqual, 0)
	})
}
