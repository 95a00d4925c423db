package store

import (
	"crypto/sha256"
	"sync"
	"time"

	"voxelsandbox.app/internal/sim/voxel"
)

const ChunkSize = 32

type ChunkKey struct {
	CX int32
	CY int32
	CZ int32
}

func (k ChunkKey) ToArray() [3]int { return [3]int{int(k.CX), int(k.CY), int(k.CZ)} }

// Origin is the world position of the chunk's minimum corner.
func (k ChunkKey) Origin() voxel.Vec3i {
	return voxel.Vec3i{X: k.CX * ChunkSize, Y: k.CY * ChunkSize, Z: k.CZ * ChunkSize}
}

type Chunk struct {
	Key    ChunkKey
	Voxels []voxel.Voxel // len = ChunkSize^3, x fastest then z then y

	dirty bool
	hash  [32]byte
}

func (c *Chunk) index(x, y, z int32) int {
	return int(x + z*ChunkSize + y*ChunkSize*ChunkSize)
}

func (c *Chunk) Get(x, y, z int32) voxel.Voxel {
	return c.Voxels[c.index(x, y, z)]
}

func (c *Chunk) Set(x, y, z int32, v voxel.Voxel) {
	i := c.index(x, y, z)
	if c.Voxels[i] == v {
		return
	}
	c.Voxels[i] = v
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		tmp := make([]byte, 0, 2*len(c.Voxels))
		for _, v := range c.Voxels {
			tmp = append(tmp, byte(v.Kind), v.Material)
		}
		h.Write(tmp)
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

func (c *Chunk) SolidCount() int {
	n := 0
	for _, v := range c.Voxels {
		if v.IsSolid() {
			n++
		}
	}
	return n
}

// ChunkStat describes one chunk generation pass.
type ChunkStat struct {
	Key      ChunkKey
	Solid    int
	Digest   [32]byte
	Duration time.Duration
}

// ClassifyFunc supplies generated voxel data for one position.
type ClassifyFunc func(pos voxel.Vec3i) voxel.Voxel

// ChunkStore materializes chunks on demand from a ClassifyFunc and keeps
// edits in an overlay that survives regeneration. Safe for concurrent use.
type ChunkStore struct {
	classify   ClassifyFunc
	onGenerate func(ChunkStat)

	// MaxRayDistance bounds Raycast traversal, in voxels.
	MaxRayDistance float64

	mu     sync.RWMutex
	chunks map[ChunkKey]*Chunk
	edits  map[voxel.Vec3i]voxel.Voxel
}

func NewChunkStore(classify ClassifyFunc) *ChunkStore {
	return &ChunkStore{
		classify:       classify,
		MaxRayDistance: 256,
		chunks:         map[ChunkKey]*Chunk{},
		edits:          map[voxel.Vec3i]voxel.Voxel{},
	}
}

// OnGenerate registers a hook called after each chunk is generated. It must
// be set before the store is shared.
func (s *ChunkStore) OnGenerate(fn func(ChunkStat)) { s.onGenerate = fn }
