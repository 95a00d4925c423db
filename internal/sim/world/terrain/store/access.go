package store

import (
	"sort"

	"voxelsandbox.app/internal/sim/voxel"
	"voxelsandbox.app/internal/sim/world/logic/mathx"
)

func KeyOf(pos voxel.Vec3i) ChunkKey {
	return ChunkKey{
		CX: mathx.FloorDiv(pos.X, ChunkSize),
		CY: mathx.FloorDiv(pos.Y, ChunkSize),
		CZ: mathx.FloorDiv(pos.Z, ChunkSize),
	}
}

func local(pos voxel.Vec3i) (x, y, z int32) {
	return mathx.Mod(pos.X, ChunkSize), mathx.Mod(pos.Y, ChunkSize), mathx.Mod(pos.Z, ChunkSize)
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	s.mu.RLock()
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

func (s *ChunkStore) GetVoxel(pos voxel.Vec3i) voxel.Voxel {
	k := KeyOf(pos)
	x, y, z := local(pos)

	s.mu.RLock()
	ch, ok := s.chunks[k]
	if ok {
		v := ch.Get(x, y, z)
		s.mu.RUnlock()
		return v
	}
	s.mu.RUnlock()

	s.GetOrGenChunk(k)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks[k].Get(x, y, z)
}

// SetVoxel records an edit. The classifier is never consulted or updated.
func (s *ChunkStore) SetVoxel(pos voxel.Vec3i, v voxel.Voxel) {
	k := KeyOf(pos)
	x, y, z := local(pos)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits[pos] = v
	if ch, ok := s.chunks[k]; ok {
		ch.Set(x, y, z, v)
	}
}

// Edits returns a copy of the edit overlay.
func (s *ChunkStore) Edits() map[voxel.Vec3i]voxel.Voxel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[voxel.Vec3i]voxel.Voxel, len(s.edits))
	for p, v := range s.edits {
		out[p] = v
	}
	return out
}

func (s *ChunkStore) GetOrGenChunk(k ChunkKey) *Chunk {
	s.mu.RLock()
	ch, ok := s.chunks[k]
	s.mu.RUnlock()
	if ok {
		return ch
	}

	// Generate without holding the lock; a concurrent generation of the
	// same key is discarded below.
	gen := s.generateChunk(k)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.chunks[k]; ok {
		return ch
	}
	for p, v := range s.edits {
		if KeyOf(p) == k {
			x, y, z := local(p)
			gen.Set(x, y, z, v)
		}
	}
	s.chunks[k] = gen
	return gen
}

// ChunkDigest returns the digest of a loaded chunk.
func (s *ChunkStore) ChunkDigest(k ChunkKey) ([32]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.chunks[k]
	if !ok {
		return [32]byte{}, false
	}
	return ch.Digest(), true
}
