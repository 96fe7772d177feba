package octree

import (
	"github.com/edaniels/golog"
)

// defaultMaxPointsPerLeaf is svtkIncrementalOctreePointLocator's historical
// default leaf capacity.
const defaultMaxPointsPerLeaf = 128

// config holds a Locator's tunables, set via Option at construction time.
type config struct {
	maxPointsPerLeaf int
	buildCubicOctree bool
	tolerance        float64
	logger           golog.Logger
}

func newConfig() *config {
	return &config{
		maxPointsPerLeaf: defaultMaxPointsPerLeaf,
		logger:           golog.NewDevelopmentLogger("octreelocator"),
	}
}

// Option configures a Locator at construction time.
type Option func(*config)

// WithMaxPointsPerLeaf overrides the default leaf subdivision threshold
// (128). A leaf splits once it holds more than this many points, unless
// doing so would fail to separate near-coincident points.
func WithMaxPointsPerLeaf(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxPointsPerLeaf = n
		}
	}
}

// WithCubicOctree makes the root (and hence every descendant octant) a
// cube, inflating whichever axes are shorter than the longest one.
func WithCubicOctree() Option {
	return func(c *config) {
		c.buildCubicOctree = true
	}
}

// WithTolerance sets the merge radius used by IsInsertedPoint and
// InsertUniquePoint: points within this distance of an existing point are
// treated as duplicates.
func WithTolerance(tolerance float64) Option {
	return func(c *config) {
		if tolerance >= 0 {
			c.tolerance = tolerance
		}
	}
}

// WithLogger overrides the Locator's default development logger.
func WithLogger(logger golog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
