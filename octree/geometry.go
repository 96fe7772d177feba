package octree

import (
	"math"

	"github.com/golang/geo/r3"
)

// sentinelDist2 stands in for "infinitely far" when a node's data box is
// empty and must never be selected by a pruned search.
const sentinelDist2 = math.MaxFloat64

// containsPoint reports whether p lies inside box [min, max] under the
// half-open convention min < p <= max on every axis.
func containsPoint(min, max, p r3.Vector) bool {
	return p.X > min.X && p.X <= max.X &&
		p.Y > min.Y && p.Y <= max.Y &&
		p.Z > min.Z && p.Z <= max.Z
}

// childIndex returns the 3-bit mask selecting which of 8 children contains
// p, given the parent's midpoint: bit 0 is set if p.X > mid.X, bit 1 if
// p.Y > mid.Y, bit 2 if p.Z > mid.Z.
func childIndex(mid, p r3.Vector) int {
	idx := 0
	if p.X > mid.X {
		idx |= 1
	}
	if p.Y > mid.Y {
		idx |= 2
	}
	if p.Z > mid.Z {
		idx |= 4
	}
	return idx
}

// childBounds returns the bounds of child i (as returned by childIndex) of
// a box [min, max] with the given midpoint.
func childBounds(min, max, mid r3.Vector, i int) (r3.Vector, r3.Vector) {
	childMin, childMax := min, max
	if i&1 != 0 {
		childMin.X = mid.X
	} else {
		childMax.X = mid.X
	}
	if i&2 != 0 {
		childMin.Y = mid.Y
	} else {
		childMax.Y = mid.Y
	}
	if i&4 != 0 {
		childMin.Z = mid.Z
	} else {
		childMax.Z = mid.Z
	}
	return childMin, childMax
}

// distanceSquaredToBoxRootAware returns the squared distance from p to box
// [min, max], clamped to 0 when p is inside. A face of [min, max] that
// coincides with the corresponding face of [rootMin, rootMax] does not
// contribute to the distance unless p's projection has crossed all the way
// past the root's opposite face on that axis, in which case the distance to
// that far root face is used instead. This keeps closest-point search from
// artificially excluding nodes that sit flush against the domain boundary.
func distanceSquaredToBoxRootAware(min, max, rootMin, rootMax, p r3.Vector) float64 {
	var d2 float64
	d2 += axisDistanceRootAware(min.X, max.X, rootMin.X, rootMax.X, p.X)
	d2 += axisDistanceRootAware(min.Y, max.Y, rootMin.Y, rootMax.Y, p.Y)
	d2 += axisDistanceRootAware(min.Z, max.Z, rootMin.Z, rootMax.Z, p.Z)
	return d2
}

func axisDistanceRootAware(lo, hi, rootLo, rootHi, v float64) float64 {
	switch {
	case v < lo:
		if lo == rootLo {
			if v > rootHi {
				d := v - rootHi
				return d * d
			}
			return 0
		}
		d := lo - v
		return d * d
	case v > hi:
		if hi == rootHi {
			if v < rootLo {
				d := rootLo - v
				return d * d
			}
			return 0
		}
		d := v - hi
		return d * d
	default:
		return 0
	}
}

// cornerDistancesSquared returns the squared minimum and maximum distance
// from p to any point of the box [min, max], using the sign pattern of
// (p - min) and (max - p) on each axis. minDist2 is 0 when p is inside the
// box; maxDist2 is the squared distance to the farthest corner.
func cornerDistancesSquared(min, max, p r3.Vector) (minDist2, maxDist2 float64) {
	axes := [3][3]float64{
		{min.X, max.X, p.X},
		{min.Y, max.Y, p.Y},
		{min.Z, max.Z, p.Z},
	}
	for _, axis := range axes {
		lo, hi, v := axis[0], axis[1], axis[2]
		belowLo := v - lo
		aboveHi := hi - v
		switch {
		case belowLo < 0:
			minDist2 += belowLo * belowLo
			maxDist2 += aboveHi * aboveHi
		case aboveHi < 0:
			minDist2 += aboveHi * aboveHi
			maxDist2 += belowLo * belowLo
		case aboveHi > belowLo:
			maxDist2 += aboveHi * aboveHi
		default:
			maxDist2 += belowLo * belowLo
		}
	}
	return minDist2, maxDist2
}

// projectToBox returns the closest point of box [min, max] to p (p itself,
// per axis, when already inside the box's range on that axis).
func projectToBox(min, max, p r3.Vector) r3.Vector {
	return r3.Vector{
		X: clamp(p.X, min.X, max.X),
		Y: clamp(p.Y, min.Y, max.Y),
		Z: clamp(p.Z, min.Z, max.Z),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func distanceSquared(a, b r3.Vector) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}
