package store

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"voxelsandbox.app/internal/sim/voxel"
)

func (s *ChunkStore) generateChunk(k ChunkKey) *Chunk {
	start := time.Now()
	ch := &Chunk{
		Key:    k,
		Voxels: make([]voxel.Voxel, ChunkSize*ChunkSize*ChunkSize),
	}
	o := k.Origin()
	for y := int32(0); y < ChunkSize; y++ {
		for z := int32(0); z < ChunkSize; z++ {
			for x := int32(0); x < ChunkSize; x++ {
				ch.Voxels[ch.index(x, y, z)] = s.classify(voxel.Vec3i{X: o.X + x, Y: o.Y + y, Z: o.Z + z})
			}
		}
	}
	ch.dirty = true
	if s.onGenerate != nil {
		s.onGenerate(ChunkStat{
			Key:      k,
			Solid:    ch.SolidCount(),
			Digest:   ch.Digest(),
			Duration: time.Since(start),
		})
	}
	return ch
}

// KeysAround lists chunk keys within radius (horizontally) and vRadius
// (vertically) of center, nearest rings first.
func KeysAround(center ChunkKey, radius, vRadius int32) []ChunkKey {
	if radius < 0 {
		radius = 0
	}
	if vRadius < 0 {
		vRadius = 0
	}
	keys := make([]ChunkKey, 0, (2*radius+1)*(2*radius+1)*(2*vRadius+1))
	for ring := int32(0); ring <= radius; ring++ {
		for dy := -vRadius; dy <= vRadius; dy++ {
			for dz := -ring; dz <= ring; dz++ {
				for dx := -ring; dx <= ring; dx++ {
					if dx != -ring && dx != ring && dz != -ring && dz != ring {
						continue
					}
					keys = append(keys, ChunkKey{CX: center.CX + dx, CY: center.CY + dy, CZ: center.CZ + dz})
				}
			}
		}
	}
	return keys
}

// GenerateChunks materializes every key concurrently, bounded by GOMAXPROCS.
// Chunks already loaded are skipped.
func (s *ChunkStore) GenerateChunks(ctx context.Context, keys []ChunkKey) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, k := range keys {
		if gctx.Err() != nil {
			break
		}
		k := k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.GetOrGenChunk(k)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
