package pointcloud

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestDenseStorage(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s := NewDenseStorage(Float64)
		test.That(t, s.Count(), test.ShouldEqual, 0)
		test.That(t, s.Type(), test.ShouldEqual, Float64)
	})

	t.Run("append assigns dense ids in order", func(t *testing.T) {
		s := NewDenseStorage(Float64)
		id0 := s.Append(r3.Vector{X: 1, Y: 2, Z: 3})
		id1 := s.Append(r3.Vector{X: 4, Y: 5, Z: 6})
		test.That(t, id0, test.ShouldEqual, 0)
		test.That(t, id1, test.ShouldEqual, 1)
		test.That(t, s.Count(), test.ShouldEqual, 2)
		test.That(t, s.Get(id0), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
		test.That(t, s.Get(id1), test.ShouldResemble, r3.Vector{X: 4, Y: 5, Z: 6})
	})

	t.Run("float32 storage truncates precision", func(t *testing.T) {
		s := NewDenseStorage(Float32)
		id := s.Append(r3.Vector{X: 0.1, Y: 0.2, Z: 0.3})
		got := s.Get(id)
		test.That(t, got.X, test.ShouldAlmostEqual, float64(float32(0.1)))
		test.That(t, got.Y, test.ShouldAlmostEqual, float64(float32(0.2)))
		test.That(t, got.Z, test.ShouldAlmostEqual, float64(float32(0.3)))
	})

	t.Run("preallocated capacity does not affect count", func(t *testing.T) {
		s := NewDenseStorageWithCapacity(Float64, 1000)
		test.That(t, s.Count(), test.ShouldEqual, 0)
		s.Append(r3.Vector{X: 1, Y: 1, Z: 1})
		test.That(t, s.Count(), test.ShouldEqual, 1)
	})
}

func TestSliceIDList(t *testing.T) {
	t.Run("append and get", func(t *testing.T) {
		l := NewSliceIDList()
		l.Append(5)
		l.Append(7)
		test.That(t, l.Count(), test.ShouldEqual, 2)
		test.That(t, l.Get(0), test.ShouldEqual, 5)
		test.That(t, l.Get(1), test.ShouldEqual, 7)
	})

	t.Run("set grows the list", func(t *testing.T) {
		l := NewSliceIDList()
		l.Set(2, 9)
		test.That(t, l.Count(), test.ShouldEqual, 3)
		test.That(t, l.Get(2), test.ShouldEqual, 9)
		test.That(t, l.Get(0), test.ShouldEqual, 0)
	})

	t.Run("reset empties without losing capacity", func(t *testing.T) {
		l := NewSliceIDList()
		l.Reserve(10)
		l.Append(1)
		l.Append(2)
		l.Reset()
		test.That(t, l.Count(), test.ShouldEqual, 0)
		l.Append(3)
		test.That(t, l.Get(0), test.ShouldEqual, 3)
	})
}
