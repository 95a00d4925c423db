package world

import (
	"voxelsandbox.app/internal/sim/tuning"
	"voxelsandbox.app/internal/sim/world/terrain/noise"
)

type WorldConfig struct {
	ID string

	Warp   noise.Params
	Detail noise.Params

	MaxRayDistance float64
}

func ConfigFromTuning(id string, t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:             id,
		Warp:           t.Terrain.Warp,
		Detail:         t.Terrain.Detail,
		MaxRayDistance: t.MaxRayDistance,
	}
}
