package octree

import "github.com/golang/geo/r3"

// NodeBox is the geometric box of one octree node, returned by
// GenerateRepresentation for visualization or debugging.
type NodeBox struct {
	Min, Max r3.Vector
}

// GenerateRepresentation returns the boxes of every node at the requested
// depth below the root (0 is the root itself). Nodes shallower than level
// that are already leaves are not descended into further, so the region
// they cover contributes no box at level.
func (l *Locator) GenerateRepresentation(level int) []NodeBox {
	if l.root == nil {
		return nil
	}

	type queued struct {
		n     *node
		level int
	}

	queue := []queued{{l.root, 0}}
	var matched []*node
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.level == level {
			matched = append(matched, cur.n)
			continue
		}
		if !cur.n.isLeaf {
			for _, child := range cur.n.children {
				queue = append(queue, queued{child, cur.level + 1})
			}
		}
	}

	boxes := make([]NodeBox, len(matched))
	for i, n := range matched {
		boxes[i] = NodeBox{Min: n.min, Max: n.max}
	}
	return boxes
}
