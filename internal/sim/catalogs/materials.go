package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Material identifiers stored in solid voxels.
const (
	Moss  uint8 = 0
	Stone uint8 = 1
	Water uint8 = 2
)

// TextureIndex maps a material to its [top, sides, bottom] texture layers.
// Unknown materials fall through to the last layer so new ids still render.
func TextureIndex(material uint8) [3]uint32 {
	switch material {
	case Moss:
		return [3]uint32{0, 2, 1}
	case Stone:
		return [3]uint32{1, 1, 1}
	default:
		return [3]uint32{3, 3, 3}
	}
}

type MaterialDef struct {
	ID      uint8     `json:"id"`
	Name    string    `json:"name"`
	Texture [3]uint32 `json:"texture"`
}

type MaterialCatalog struct {
	Palette []string
	Index   map[string]uint8
	Defs    []MaterialDef
	Digest  string
}

// Materials is the fixed material palette shared with renderers.
var Materials = buildMaterials([]string{"MOSS", "STONE", "WATER"})

func buildMaterials(names []string) MaterialCatalog {
	c := MaterialCatalog{
		Palette: names,
		Index:   make(map[string]uint8, len(names)),
		Defs:    make([]MaterialDef, 0, len(names)),
	}
	for i, n := range names {
		id := uint8(i)
		c.Index[n] = id
		c.Defs = append(c.Defs, MaterialDef{ID: id, Name: n, Texture: TextureIndex(id)})
	}
	b, _ := json.Marshal(c.Defs)
	c.Digest = sha256Hex(b)
	return c
}

// Name returns the palette name of a material, or "" for ids outside it.
func (c MaterialCatalog) Name(id uint8) string {
	if int(id) >= len(c.Palette) {
		return ""
	}
	return c.Palette[id]
}

func sha256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
