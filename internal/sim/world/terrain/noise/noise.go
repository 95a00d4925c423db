package noise

import (
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
)

// Params configures one hybrid multifractal field.
type Params struct {
	Seed        int64   `yaml:"seed" json:"seed"`
	Octaves     int     `yaml:"octaves" json:"octaves"`
	Frequency   float64 `yaml:"frequency" json:"frequency"`
	Lacunarity  float64 `yaml:"lacunarity" json:"lacunarity"`
	Persistence float64 `yaml:"persistence" json:"persistence"`
}

func (p Params) Validate() error {
	if p.Octaves < 1 {
		return fmt.Errorf("octaves must be >= 1, got %d", p.Octaves)
	}
	if !(p.Frequency > 0) || math.IsInf(p.Frequency, 0) {
		return fmt.Errorf("frequency must be positive and finite, got %v", p.Frequency)
	}
	if !(p.Lacunarity > 0) || math.IsInf(p.Lacunarity, 0) {
		return fmt.Errorf("lacunarity must be positive and finite, got %v", p.Lacunarity)
	}
	if math.IsNaN(p.Persistence) || math.IsInf(p.Persistence, 0) {
		return fmt.Errorf("persistence must be finite, got %v", p.Persistence)
	}
	return nil
}

// Field is a hybrid multifractal built from one Perlin source per octave.
// It is immutable after New and safe for concurrent Sample calls.
type Field struct {
	params  Params
	sources []*perlin.Perlin
	amps    []float64
	scale   float64
}

func New(p Params) (*Field, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	f := &Field{
		params:  p,
		sources: make([]*perlin.Perlin, p.Octaves),
		amps:    make([]float64, p.Octaves),
	}
	var sum float64
	for i := 0; i < p.Octaves; i++ {
		// Single-octave sources; alpha/beta are unused when n == 1.
		f.sources[i] = perlin.NewPerlin(2, 2, 1, p.Seed+int64(i))
		if i == 0 {
			f.amps[i] = 1
		} else {
			f.amps[i] = math.Pow(p.Persistence, float64(i))
		}
		sum += math.Abs(f.amps[i])
	}
	f.scale = 1 / sum
	return f, nil
}

// Sample evaluates the field at (x, z). Octave 0 is unweighted; each later
// octave is weighted by the product of the previous signals, clamped to 1.
func (f *Field) Sample(x, z float64) float64 {
	x *= f.params.Frequency
	z *= f.params.Frequency

	result := f.sources[0].Noise2D(x, z)
	weight := result
	for i := 1; i < len(f.sources); i++ {
		weight = math.Min(weight, 1)
		x *= f.params.Lacunarity
		z *= f.params.Lacunarity

		signal := f.sources[i].Noise2D(x, z) * f.amps[i]
		result += weight * signal
		weight *= signal
	}
	return result * f.scale
}
