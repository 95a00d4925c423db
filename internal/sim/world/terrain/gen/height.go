package gen

// Sampler is a scalar 2D field.
type Sampler interface {
	Sample(x, z float64) float64
}

// Heights yields the ground height of a column.
type Heights interface {
	HeightAt(x, z float64) float64
}

const (
	warpScale   = 1000.0
	heightScale = 10.0
)

// HeightField couples a low-frequency warp field with a detail field. The warp
// output scales the coordinates the detail field is sampled at, so it changes
// local roughness rather than adding an offset.
type HeightField struct {
	warp   Sampler
	detail Sampler
}

func NewHeightField(warp, detail Sampler) *HeightField {
	return &HeightField{warp: warp, detail: detail}
}

func (h *HeightField) HeightAt(x, z float64) float64 {
	w := h.warp.Sample(x/warpScale, z/warpScale)
	return h.detail.Sample(x*w, z*w) * heightScale
}
