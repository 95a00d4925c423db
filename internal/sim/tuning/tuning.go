package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"voxelsandbox.app/internal/sim/world/terrain/noise"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version" json:"protocol_version"`

	// Chunks generated around the spawn before serving, and the radius a
	// client is allowed to request.
	SpawningDistance    int `yaml:"spawning_distance" json:"spawning_distance"`
	RenderDistance      int `yaml:"render_distance" json:"render_distance"`
	VerticalChunkRadius int `yaml:"vertical_chunk_radius" json:"vertical_chunk_radius"`

	MaxRayDistance float64    `yaml:"max_ray_distance" json:"max_ray_distance"`
	Spawn          [3]float32 `yaml:"spawn" json:"spawn"`
	Viewport       [2]int     `yaml:"viewport" json:"viewport"`

	Texture Texture `yaml:"texture" json:"texture"`
	Terrain Terrain `yaml:"terrain" json:"terrain"`
}

type Texture struct {
	Path   string `yaml:"path" json:"path"`
	Layers int    `yaml:"layers" json:"layers"`
}

type Terrain struct {
	Warp   noise.Params `yaml:"warp" json:"warp"`
	Detail noise.Params `yaml:"detail" json:"detail"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:     "1.0",
		SpawningDistance:    5,
		RenderDistance:      10,
		VerticalChunkRadius: 1,
		MaxRayDistance:      256,
		Spawn:               [3]float32{0, 60, 0},
		Viewport:            [2]int{1280, 720},
		Texture:             Texture{Path: "voxels.png", Layers: 4},
		Terrain: Terrain{
			Warp:   noise.Params{Seed: 1234, Octaves: 5, Frequency: 0.1, Lacunarity: 2.8, Persistence: 0.4},
			Detail: noise.Params{Seed: 1234, Octaves: 5, Frequency: 0.5, Lacunarity: 2.8, Persistence: 0.4},
		},
	}
}

// Load reads path over Defaults, so a file only needs the keys it changes.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	var errs []error
	if t.SpawningDistance < 0 {
		errs = append(errs, fmt.Errorf("spawning_distance must be >= 0"))
	}
	if t.RenderDistance < 1 {
		errs = append(errs, fmt.Errorf("render_distance must be >= 1"))
	}
	if t.VerticalChunkRadius < 0 {
		errs = append(errs, fmt.Errorf("vertical_chunk_radius must be >= 0"))
	}
	if !(t.MaxRayDistance > 0) {
		errs = append(errs, fmt.Errorf("max_ray_distance must be > 0"))
	}
	if t.Viewport[0] <= 0 || t.Viewport[1] <= 0 {
		errs = append(errs, fmt.Errorf("viewport must be positive, got %v", t.Viewport))
	}
	if t.Texture.Layers < 1 {
		errs = append(errs, fmt.Errorf("texture.layers must be >= 1"))
	}
	if err := t.Terrain.Warp.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("terrain.warp: %w", err))
	}
	if err := t.Terrain.Detail.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("terrain.detail: %w", err))
	}
	return errors.Join(errs...)
}
