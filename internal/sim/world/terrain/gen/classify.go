package gen

import (
	"voxelsandbox.app/internal/sim/catalogs"
	"voxelsandbox.app/internal/sim/voxel"
)

// Classifier decides air or ground for every voxel position. Edits made to
// a store never reach it; it only reflects generated terrain.
type Classifier struct {
	heights Heights
	cache   *ColumnCache // nil disables memoization
}

func NewClassifier(heights Heights, cache *ColumnCache) *Classifier {
	return &Classifier{heights: heights, cache: cache}
}

func (c *Classifier) Cache() *ColumnCache { return c.cache }

// Height returns the ground height of column (x, z).
func (c *Classifier) Height(x, z int32) float64 {
	compute := func() float64 { return c.heights.HeightAt(float64(x), float64(z)) }
	if c.cache == nil {
		return compute()
	}
	return c.cache.GetOrCompute(x, z, compute)
}

func (c *Classifier) Classify(pos voxel.Vec3i) voxel.Voxel {
	if float64(pos.Y) < c.Height(pos.X, pos.Z) {
		return voxel.Solid(catalogs.Moss)
	}
	return voxel.Air()
}
