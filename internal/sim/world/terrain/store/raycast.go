package store

import (
	"math"

	"voxelsandbox.app/internal/sim/voxel"
)

// Raycast walks the voxels pierced by ray (Amanatides-Woo traversal) and
// returns the first solid voxel accepted by filter. The hit normal is the
// face the ray entered through, or nil if the ray started inside the voxel.
func (s *ChunkStore) Raycast(ray voxel.Ray, filter voxel.Filter) (voxel.Hit, bool) {
	if filter == nil {
		filter = voxel.AcceptAll
	}
	dir := ray.Direction
	if dir.Len() == 0 {
		return voxel.Hit{}, false
	}
	dir = dir.Normalize()

	origin := [3]float64{float64(ray.Origin[0]), float64(ray.Origin[1]), float64(ray.Origin[2])}
	d := [3]float64{float64(dir[0]), float64(dir[1]), float64(dir[2])}

	var (
		cell   [3]int32
		step   [3]int32
		tMax   [3]float64
		tDelta [3]float64
	)
	for i := 0; i < 3; i++ {
		f := math.Floor(origin[i])
		cell[i] = int32(f)
		switch {
		case d[i] > 0:
			step[i] = 1
			tDelta[i] = 1 / d[i]
			tMax[i] = (f + 1 - origin[i]) / d[i]
		case d[i] < 0:
			step[i] = -1
			tDelta[i] = -1 / d[i]
			tMax[i] = (origin[i] - f) / -d[i]
		default:
			tDelta[i] = math.Inf(1)
			tMax[i] = math.Inf(1)
		}
	}

	maxDist := s.MaxRayDistance
	var normal *voxel.Vec3i
	for t := 0.0; t <= maxDist; {
		pos := voxel.Vec3i{X: cell[0], Y: cell[1], Z: cell[2]}
		v := s.GetVoxel(pos)
		if v.IsSolid() && filter(pos, v) {
			return voxel.Hit{Position: pos, Normal: normal, Voxel: v}, true
		}

		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		t = tMax[axis]
		tMax[axis] += tDelta[axis]
		cell[axis] += step[axis]

		n := voxel.Vec3i{}
		switch axis {
		case 0:
			n.X = -step[0]
		case 1:
			n.Y = -step[1]
		case 2:
			n.Z = -step[2]
		}
		normal = &n
	}
	return voxel.Hit{}, false
}
