package octree

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"

	"go.viam.com/octreelocator/pointcloud"
)

// Locator owns an octree's root and the external point storage it indexes.
// It is not safe for concurrent mutation.
type Locator struct {
	cfg    *config
	logger golog.Logger

	storage     pointcloud.Storage
	root        *node
	fudgeFactor float64
	maxDim      float64
	tolerance2  float64
}

// New returns a Locator configured by opts. Call InitInsertion before
// inserting or querying points.
func New(opts ...Option) *Locator {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Locator{cfg: cfg, logger: cfg.logger, tolerance2: cfg.tolerance * cfg.tolerance}
}

// MaxPointsPerLeaf returns the current leaf subdivision threshold.
func (l *Locator) MaxPointsPerLeaf() int { return l.cfg.maxPointsPerLeaf }

// SetMaxPointsPerLeaf overrides the leaf subdivision threshold. It only
// takes effect for subdivisions that happen after this call.
func (l *Locator) SetMaxPointsPerLeaf(n int) {
	if n > 0 {
		l.cfg.maxPointsPerLeaf = n
	}
}

// BuildCubicOctree reports whether the root box is inflated to a cube.
func (l *Locator) BuildCubicOctree() bool { return l.cfg.buildCubicOctree }

// SetBuildCubicOctree sets whether the next InitInsertion builds a cubic
// root box.
func (l *Locator) SetBuildCubicOctree(cubic bool) { l.cfg.buildCubicOctree = cubic }

// Tolerance returns the current merge radius for duplicate detection.
func (l *Locator) Tolerance() float64 { return l.cfg.tolerance }

// SetTolerance overrides the merge radius used by IsInsertedPoint and
// InsertUniquePoint.
func (l *Locator) SetTolerance(tolerance float64) {
	if tolerance >= 0 {
		l.cfg.tolerance = tolerance
		l.tolerance2 = tolerance * tolerance
	}
}

// InitInsertion drops any existing tree, attaches points as the point
// container for subsequent inserts and queries, and computes a root box
// covering bounds ([xmin, xmax, ymin, ymax, zmin, zmax]) that every future
// insertion is guaranteed to fall strictly inside of.
func (l *Locator) InitInsertion(points pointcloud.Storage, bounds [6]float64) error {
	if points == nil {
		l.logger.Warn("InitInsertion called with nil point storage")
		return pointcloud.ErrNilStorage
	}

	l.root = nil
	l.storage = points
	l.tolerance2 = l.cfg.tolerance * l.cfg.tolerance

	box := bounds
	var dimDiff [3]float64
	maxDim := 0.0
	for i := 0; i < 3; i++ {
		lo, hi := 2*i, 2*i+1
		dimDiff[i] = box[hi] - box[lo]
		if dimDiff[i] > maxDim {
			maxDim = dimDiff[i]
		}
	}

	if l.cfg.buildCubicOctree {
		for i := 0; i < 3; i++ {
			if dimDiff[i] != maxDim {
				delta := maxDim - dimDiff[i]
				box[2*i] -= 0.5 * delta
				box[2*i+1] += 0.5 * delta
				dimDiff[i] = maxDim
			}
		}
	}

	fudgeFactor := maxDim * 1e-5
	minSideSize := maxDim * 1e-1

	for i := 0; i < 3; i++ {
		lo, hi := 2*i, 2*i+1
		if dimDiff[i] < minSideSize {
			oldLo := box[lo]
			box[lo] = box[hi] - minSideSize
			box[hi] = oldLo + minSideSize
		} else {
			box[lo] -= fudgeFactor
		}
	}

	l.maxDim = maxDim
	l.fudgeFactor = fudgeFactor
	l.root = newLeaf(
		r3.Vector{X: box[0], Y: box[2], Z: box[4]},
		r3.Vector{X: box[1], Y: box[3], Z: box[5]},
	)
	return nil
}

// GetBounds returns the root box as [xmin, xmax, ymin, ymax, zmin, zmax].
// It is the zero box if InitInsertion has not been called.
func (l *Locator) GetBounds() [6]float64 {
	if l.root == nil {
		return [6]float64{}
	}
	return [6]float64{
		l.root.min.X, l.root.max.X,
		l.root.min.Y, l.root.max.Y,
		l.root.min.Z, l.root.max.Z,
	}
}

// GetNumberOfPoints returns the number of points currently indexed.
func (l *Locator) GetNumberOfPoints() int {
	if l.root == nil {
		return 0
	}
	return l.root.numPoints
}

func getLeafContainer(n *node, p r3.Vector) *node {
	for !n.isLeaf {
		n = n.children[n.childIndexFor(p)]
	}
	return n
}

// InsertPointWithoutChecking appends p to the point storage and inserts its
// id into the tree without any duplicate check. It is intended for bulk
// builds where the caller already knows every point is unique.
func (l *Locator) InsertPointWithoutChecking(p r3.Vector) int {
	if l.root == nil {
		l.logger.Warn("InsertPointWithoutChecking called before InitInsertion")
		return -1
	}
	id := l.storage.Append(p)
	l.root.insertPoint(l.storage, id, p, l.cfg.maxPointsPerLeaf, l.fudgeFactor)
	return id
}

// isInsertedPoint is IsInsertedPoint's implementation, additionally
// returning the leaf p descended into.
func (l *Locator) isInsertedPoint(p r3.Vector) (int, *node) {
	leaf := getLeafContainer(l.root, p)
	if l.tolerance2 == 0 {
		return findDuplicatePoint(leaf, p, l.storage), leaf
	}
	return l.isInsertedPointWithTolerance(p, leaf), leaf
}

func (l *Locator) isInsertedPointWithTolerance(p r3.Vector, leaf *node) int {
	id, dist2 := leaf.findClosestPointInLeaf(l.storage, p)
	if dist2 == 0 {
		return id
	}

	if leaf.distanceSquaredToInnerBoundary(p, l.root) < l.tolerance2 {
		extID, extDist2 := l.closestPointInSphereWithTolerance(p, l.tolerance2, leaf)
		if extDist2 < dist2 {
			id, dist2 = extID, extDist2
		}
	}

	if dist2 <= l.tolerance2 {
		return id
	}
	return -1
}

func findDuplicatePoint(leaf *node, p r3.Vector, storage pointcloud.Storage) int {
	if storage.Type() == pointcloud.Float32 {
		px, py, pz := float32(p.X), float32(p.Y), float32(p.Z)
		for _, id := range leaf.pointIDs {
			q := storage.Get(id)
			if float32(q.X) == px && float32(q.Y) == py && float32(q.Z) == pz {
				return id
			}
		}
		return -1
	}
	for _, id := range leaf.pointIDs {
		q := storage.Get(id)
		if q.X == p.X && q.Y == p.Y && q.Z == p.Z {
			return id
		}
	}
	return -1
}

// IsInsertedPoint returns the id of the point already indexed at (or, with
// a nonzero tolerance, within tolerance of) p, or -1 if there is none.
func (l *Locator) IsInsertedPoint(p r3.Vector) int {
	if l.root == nil {
		return -1
	}
	id, _ := l.isInsertedPoint(p)
	return id
}

// InsertUniquePoint inserts p unless a point within tolerance already
// exists, in which case that existing point's id is returned unchanged.
func (l *Locator) InsertUniquePoint(p r3.Vector) (inserted bool, id int) {
	if l.root == nil {
		l.logger.Warn("InsertUniquePoint called before InitInsertion")
		return false, -1
	}
	existing, _ := l.isInsertedPoint(p)
	if existing > -1 {
		return false, existing
	}
	newID := l.storage.Append(p)
	l.root.insertPoint(l.storage, newID, p, l.cfg.maxPointsPerLeaf, l.fudgeFactor)
	return true, newID
}

// closestPointInSphereCore is a best-first, pruned DFS over the whole tree
// starting at the root. maskNode, if non-nil, is never visited (its own
// leaf scan is assumed to already be reflected in minDist2Init). When
// adaptiveRef is set, the pruning threshold tightens to the best distance
// found so far; otherwise it stays fixed at refInit.
func (l *Locator) closestPointInSphereCore(
	p r3.Vector, radius2 float64, maskNode *node, minDist2Init, refInit float64, adaptiveRef bool,
) (int, float64) {
	bestID := -1
	minDist2 := minDist2Init
	ref2 := refInit

	stack := []*node{l.root}
	for len(stack) > 0 && minDist2 > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !n.isLeaf {
			for _, child := range n.children {
				d2 := radius2 + radius2
				if child.numPoints > 0 {
					d2 = child.distanceSquaredToBoundary(p, l.root, true)
				}
				if child != maskNode && (d2 <= ref2 || child.containsPoint(p)) {
					stack = append(stack, child)
				}
			}
			continue
		}

		id, d2 := n.findClosestPointInLeaf(l.storage, p)
		if d2 < minDist2 {
			minDist2 = d2
			bestID = id
			if adaptiveRef {
				ref2 = minDist2
			}
		}
	}

	if minDist2 <= radius2 {
		return bestID, minDist2
	}
	return -1, minDist2
}

func (l *Locator) closestPointInSphereWithoutTolerance(p r3.Vector, radius2 float64, maskNode *node) (int, float64) {
	init := radius2 * 1.1
	return l.closestPointInSphereCore(p, radius2, maskNode, init, init, true)
}

func (l *Locator) closestPointInSphereWithTolerance(p r3.Vector, radius2 float64, maskNode *node) (int, float64) {
	sentinel := l.maxDim * l.maxDim * 4.0
	return l.closestPointInSphereCore(p, radius2, maskNode, sentinel, radius2, false)
}

// FindClosestPoint returns the id and squared distance of the point closest
// to p, or (-1, ...) if the tree is empty.
func (l *Locator) FindClosestPoint(p r3.Vector) (int, float64) {
	minDist2 := (l.maxDim * 2) * (l.maxDim * 2)
	if l.root == nil || l.root.numPoints == 0 {
		return -1, minDist2
	}

	if l.root.containsPoint(p) {
		id, dist2 := l.root2LeafClosest(p)
		return id, dist2
	}

	proj := projectToBox(l.root.min, l.root.max, p)
	proj = nudgeInside(proj, l.root.min, l.root.max, l.fudgeFactor)

	leaf := getLeafContainer(l.root, proj)
	id, dist2 := leaf.findClosestPointInLeaf(l.storage, p)
	extID, extDist2 := l.closestPointInSphereWithoutTolerance(p, dist2, leaf)
	if extDist2 < dist2 {
		id, dist2 = extID, extDist2
	}
	return id, dist2
}

func (l *Locator) root2LeafClosest(p r3.Vector) (int, float64) {
	leaf := getLeafContainer(l.root, p)
	id, dist2 := leaf.findClosestPointInLeaf(l.storage, p)
	if dist2 > 0 && leaf.distanceSquaredToInnerBoundary(p, l.root) < dist2 {
		extID, extDist2 := l.closestPointInSphereWithoutTolerance(p, dist2, leaf)
		if extDist2 < dist2 {
			id, dist2 = extID, extDist2
		}
	}
	return id, dist2
}

// nudgeInside pulls a point projected onto the root's box strictly inside
// it by fudgeFactor, so descent from it lands in a real leaf.
func nudgeInside(p, min, max r3.Vector, fudgeFactor float64) r3.Vector {
	nudge := func(v, lo, hi float64) float64 {
		switch {
		case v <= lo:
			return lo + fudgeFactor
		case v >= hi:
			return hi - fudgeFactor
		default:
			return v
		}
	}
	return r3.Vector{
		X: nudge(p.X, min.X, max.X),
		Y: nudge(p.Y, min.Y, max.Y),
		Z: nudge(p.Z, min.Z, max.Z),
	}
}

// FindClosestPointWithinSquaredRadius returns the id and squared distance
// of the closest point within r2 of p, or (-1, ...) if none qualifies.
func (l *Locator) FindClosestPointWithinSquaredRadius(r2 float64, p r3.Vector) (int, float64) {
	if l.root == nil {
		return -1, 0
	}
	return l.closestPointInSphereWithoutTolerance(p, r2, nil)
}

// FindClosestPointWithinRadius returns the id and squared distance of the
// closest point within r of p, or (-1, ...) if none qualifies.
func (l *Locator) FindClosestPointWithinRadius(r float64, p r3.Vector) (int, float64) {
	return l.FindClosestPointWithinSquaredRadius(r*r, p)
}

func (l *Locator) findPointsWithinSquaredRadius(n *node, r2 float64, p r3.Vector, out pointcloud.IDList) {
	min2, max2 := cornerDistancesSquared(n.min, n.max, p)
	if min2 > r2 {
		return
	}
	if max2 <= r2 {
		n.exportAllPointIDs(out)
		return
	}
	if n.isLeaf {
		for _, id := range n.pointIDs {
			if distanceSquared(l.storage.Get(id), p) <= r2 {
				out.Append(id)
			}
		}
		return
	}
	for _, child := range n.children {
		l.findPointsWithinSquaredRadius(child, r2, p, out)
	}
}

// FindPointsWithinSquaredRadius appends the id of every point within r2 of
// p to out. out is reset first.
func (l *Locator) FindPointsWithinSquaredRadius(r2 float64, p r3.Vector, out pointcloud.IDList) {
	out.Reset()
	if l.root == nil {
		return
	}
	l.findPointsWithinSquaredRadius(l.root, r2, p, out)
}

// FindPointsWithinRadius appends the id of every point within r of p to
// out. out is reset first.
func (l *Locator) FindPointsWithinRadius(r float64, p r3.Vector, out pointcloud.IDList) {
	l.FindPointsWithinSquaredRadius(r*r, p, out)
}

func (l *Locator) selectCompactStartNode(p r3.Vector, k int) *node {
	thisNode := l.root
	parent := l.root
	numPoints := thisNode.numPoints

	for {
		if thisNode.containsPoint(p) {
			for !thisNode.isLeaf && numPoints > k {
				parent = thisNode
				thisNode = thisNode.children[thisNode.childIndexFor(p)]
				numPoints = thisNode.numPoints
			}
			if numPoints > 0 {
				if numPoints < k {
					thisNode = parent
				}
				return thisNode
			}
			best := sentinelDist2
			for _, child := range parent.children {
				if d2 := child.distanceSquaredToBoundary(p, l.root, true); d2 < best {
					best = d2
					thisNode = child
				}
			}
		} else {
			for !thisNode.isLeaf && numPoints > k {
				parent = thisNode
				best := sentinelDist2
				for _, child := range parent.children {
					if d2 := child.distanceSquaredToBoundary(p, l.root, true); d2 < best {
						best = d2
						thisNode = child
					}
				}
				numPoints = thisNode.numPoints
			}
			if numPoints < k {
				thisNode = parent
			}
			return thisNode
		}
		numPoints = thisNode.numPoints
	}
}

func (l *Locator) seedSorter(n *node, p r3.Vector, sorter *nearestNSorter) {
	if n.isLeaf {
		for _, id := range n.pointIDs {
			sorter.insert(distanceSquared(l.storage.Get(id), p), id)
		}
		return
	}
	for _, child := range n.children {
		l.seedSorter(child, p, sorter)
	}
}

// FindClosestNPoints appends the ids of the k points closest to p to out,
// in ascending distance order, resetting out first. k is clamped to the
// number of indexed points, with a logged warning; a request for k <= 0 (after clamping)
// yields an empty result.
func (l *Locator) FindClosestNPoints(k int, p r3.Vector, out pointcloud.IDList) {
	out.Reset()
	if l.root == nil {
		l.logger.Warn("FindClosestNPoints called before InitInsertion")
		return
	}

	total := l.root.numPoints
	if k > total {
		l.logger.Warnf("requested %d nearest points but only %d are indexed; clamping", k, total)
		k = total
	}
	if k <= 0 {
		return
	}

	startNode := l.selectCompactStartNode(p, k)

	sorter := newNearestNSorter(k)
	l.seedSorter(startNode, p, sorter)

	queue := []*node{l.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n == startNode {
			continue
		}

		if !n.isLeaf {
			for _, child := range n.children {
				if child.containsPointByData(p) || child.distanceSquaredToBoundary(p, l.root, true) < sorter.largest() {
					queue = append(queue, child)
				}
			}
			continue
		}

		if n.distanceSquaredToBoundary(p, l.root, true) < sorter.largest() {
			for _, id := range n.pointIDs {
				sorter.insert(distanceSquared(l.storage.Get(id), p), id)
			}
		}
	}

	sorter.emitSorted(out)
}
