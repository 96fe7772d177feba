package octree

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/octreelocator/pointcloud"
)

// node is one box of the octree: either a leaf owning an ordered list of
// point ids, or an internal node owning exactly 8 children. Nodes are
// created once and never individually freed; the whole tree is dropped
// together when the locator is reset.
type node struct {
	min, max r3.Vector // geometric bounds of this node
	mid      r3.Vector // box center, cached at construction

	dataMin, dataMax r3.Vector // tight bounds of points stored under this node
	numPoints        int       // count of ids in this subtree

	isLeaf   bool
	pointIDs []int    // leaf only
	children [8]*node // internal only
}

func newLeaf(min, max r3.Vector) *node {
	return &node{
		min:    min,
		max:    max,
		mid:    min.Add(max).Mul(0.5),
		isLeaf: true,
	}
}

// containsPoint reports whether p lies inside this node's geometric box
// under the half-open convention min < p <= max.
func (n *node) containsPoint(p r3.Vector) bool {
	return containsPoint(n.min, n.max, p)
}

// containsPointByData is like containsPoint but against the tighter data
// box; it is always false for an empty node.
func (n *node) containsPointByData(p r3.Vector) bool {
	if n.numPoints == 0 {
		return false
	}
	return containsPoint(n.dataMin, n.dataMax, p)
}

// childIndexFor returns which of the 8 children contains p.
func (n *node) childIndexFor(p r3.Vector) int {
	return childIndex(n.mid, p)
}

// distanceSquaredToBoundary returns the squared distance from p to this
// node's box (data box when useDataBox is set), treating faces shared with
// root's box as non-contributing unless p has crossed the root's opposite
// face on that axis. An empty node's data box yields sentinelDist2.
func (n *node) distanceSquaredToBoundary(p r3.Vector, root *node, useDataBox bool) float64 {
	min, max := n.min, n.max
	if useDataBox {
		if n.numPoints == 0 {
			return sentinelDist2
		}
		min, max = n.dataMin, n.dataMax
	}
	return distanceSquaredToBoxRootAware(min, max, root.min, root.max, p)
}

// distanceSquaredToInnerBoundary returns the squared distance from p to the
// nearest face of this node's geometric box that is not shared with root's
// box. It is used to decide whether a closest-point search must leave the
// leaf it landed in.
func (n *node) distanceSquaredToInnerBoundary(p r3.Vector, root *node) float64 {
	best := sentinelDist2
	consider := func(nodeFace, rootFace, v float64) {
		if nodeFace == rootFace {
			return
		}
		d := v - nodeFace
		if d2 := d * d; d2 < best {
			best = d2
		}
	}
	consider(n.min.X, root.min.X, p.X)
	consider(n.max.X, root.max.X, p.X)
	consider(n.min.Y, root.min.Y, p.Y)
	consider(n.max.Y, root.max.Y, p.Y)
	consider(n.min.Z, root.min.Z, p.Z)
	consider(n.max.Z, root.max.Z, p.Z)
	return best
}

// addPoint records id/p as belonging to this node's subtree, extending its
// data bounds and bumping its point count. On a leaf it also appends id to
// the point list; on an internal node it only updates this bookkeeping.
func (n *node) addPoint(id int, p r3.Vector) {
	if n.numPoints == 0 {
		n.dataMin, n.dataMax = p, p
	} else {
		n.dataMin = minVec(n.dataMin, p)
		n.dataMax = maxVec(n.dataMax, p)
	}
	if n.isLeaf {
		n.pointIDs = append(n.pointIDs, id)
	}
	n.numPoints++
}

// insertPoint absorbs a new point into this node's subtree. An internal
// node counts it and passes it down to the child containing p; a leaf
// stores it, subdividing into 8 children when it overflows maxPointsPerLeaf
// and doing so would still separate points (its box has not yet shrunk
// below 2*fudgeFactor on any axis). Coincident or near-coincident points
// are allowed to overflow a leaf indefinitely rather than recursing forever.
func (n *node) insertPoint(
	storage pointcloud.Storage, id int, p r3.Vector, maxPointsPerLeaf int, fudgeFactor float64,
) {
	n.addPoint(id, p)
	if !n.isLeaf {
		n.children[n.childIndexFor(p)].insertPoint(storage, id, p, maxPointsPerLeaf, fudgeFactor)
		return
	}
	if len(n.pointIDs) > maxPointsPerLeaf && n.canSubdivide(fudgeFactor) {
		n.subdivide(storage)
	}
}

func (n *node) canSubdivide(fudgeFactor float64) bool {
	minSide := 2 * fudgeFactor
	return n.max.X-n.min.X >= minSide && n.max.Y-n.min.Y >= minSide && n.max.Z-n.min.Z >= minSide
}

// subdivide converts this leaf into an internal node, distributing its
// points into 8 freshly created child leaves that tile its box.
func (n *node) subdivide(storage pointcloud.Storage) {
	var children [8]*node
	for i := 0; i < 8; i++ {
		childMin, childMax := childBounds(n.min, n.max, n.mid, i)
		children[i] = newLeaf(childMin, childMax)
	}

	for _, id := range n.pointIDs {
		p := storage.Get(id)
		idx := childIndex(n.mid, p)
		children[idx].addPoint(id, p)
	}

	n.children = children
	n.pointIDs = nil
	n.isLeaf = false
}

// findClosestPointInLeaf scans this leaf's points and returns the closest
// one to p, or (-1, sentinelDist2) if the leaf is empty.
func (n *node) findClosestPointInLeaf(storage pointcloud.Storage, p r3.Vector) (int, float64) {
	best := sentinelDist2
	bestID := -1
	for _, id := range n.pointIDs {
		d2 := distanceSquared(storage.Get(id), p)
		if d2 < best {
			best = d2
			bestID = id
		}
		if best == 0 {
			break
		}
	}
	return bestID, best
}

// exportAllPointIDs appends every id in this subtree to out, in DFS order.
func (n *node) exportAllPointIDs(out pointcloud.IDList) {
	if n.isLeaf {
		for _, id := range n.pointIDs {
			out.Append(id)
		}
		return
	}
	for _, child := range n.children {
		child.exportAllPointIDs(out)
	}
}

func minVec(a, b r3.Vector) r3.Vector {
	return r3.Vector{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func maxVec(a, b r3.Vector) r3.Vector {
	return r3.Vector{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}
