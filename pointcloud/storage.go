// Package pointcloud provides the storage primitives the octree locator
// depends on but does not itself implement: a dense, append-only point
// container addressed by integer id, and a growable id-list used to return
// query results.
package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// PointType records the floating point precision points were stored at. A
// zero-tolerance duplicate lookup compares coordinates component-wise at
// this precision.
type PointType int

const (
	// Float64 stores points at double precision.
	Float64 = PointType(iota)
	// Float32 stores points at single precision.
	Float32
)

// Storage is the point container the octree locator reads from and appends
// to. Implementations are append-only and dense: ids start at 0 and are
// handed out in insertion order.
type Storage interface {
	// Append adds a point to the end of the container and returns its id.
	Append(p r3.Vector) int

	// Get returns the point previously stored at id. Callers must only pass
	// ids returned by Append.
	Get(id int) r3.Vector

	// Type reports the precision points are compared at for exact-match
	// duplicate detection.
	Type() PointType

	// Count returns the number of stored points.
	Count() int
}

// DenseStorage is the default Storage implementation: a flat, growable
// slice of points. It is not safe for concurrent use, matching the
// single-threaded locator it backs.
type DenseStorage struct {
	points    []r3.Vector
	pointType PointType
}

// NewDenseStorage returns an empty DenseStorage that compares points at the
// given precision.
func NewDenseStorage(pointType PointType) *DenseStorage {
	return &DenseStorage{pointType: pointType}
}

// NewDenseStorageWithCapacity is like NewDenseStorage but preallocates room
// for n points, avoiding reallocation during a bulk build.
func NewDenseStorageWithCapacity(pointType PointType, n int) *DenseStorage {
	return &DenseStorage{points: make([]r3.Vector, 0, n), pointType: pointType}
}

// Append implements Storage.
func (s *DenseStorage) Append(p r3.Vector) int {
	if s.pointType == Float32 {
		p = r3.Vector{X: float64(float32(p.X)), Y: float64(float32(p.Y)), Z: float64(float32(p.Z))}
	}
	s.points = append(s.points, p)
	return len(s.points) - 1
}

// Get implements Storage.
func (s *DenseStorage) Get(id int) r3.Vector {
	return s.points[id]
}

// Type implements Storage.
func (s *DenseStorage) Type() PointType {
	return s.pointType
}

// Count implements Storage.
func (s *DenseStorage) Count() int {
	return len(s.points)
}

// ErrNilStorage is returned by callers that require a non-nil Storage, such
// as octree.Locator.InitInsertion.
var ErrNilStorage = errors.New("a non-nil point storage is required")
