// Package octree implements an incremental octree point locator: a spatial
// index over 3D points supporting incremental insertion, tolerance-based
// deduplication, and closest-point, radius, and K-nearest-neighbor queries,
// without ever rebuilding the tree from scratch.
//
// The tree is owned by a Locator, which descends an axis-aligned octree of
// node to insert and query points stored in an external
// go.viam.com/octreelocator/pointcloud.Storage.
package octree
