package store

import (
	"fmt"
	"math"

	"voxelsandbox.app/internal/sim/encoding"
	"voxelsandbox.app/internal/sim/voxel"
)

// Wire code per voxel: 0 unset, 1 air, 2+material solid. Codes are wider
// than a material id so every id keeps its own code.
func voxelCode(v voxel.Voxel) uint16 {
	switch v.Kind {
	case voxel.KindAir:
		return 1
	case voxel.KindSolid:
		return 2 + uint16(v.Material)
	default:
		return 0
	}
}

func codeVoxel(c uint16) (voxel.Voxel, error) {
	switch {
	case c == 0:
		return voxel.Voxel{}, nil
	case c == 1:
		return voxel.Air(), nil
	case c-2 > math.MaxUint8:
		return voxel.Voxel{}, fmt.Errorf("voxel code %d out of range", c)
	default:
		return voxel.Solid(uint8(c - 2)), nil
	}
}

// EncodeRLE packs voxels as varint (code, run) pairs over their wire codes.
func EncodeRLE(voxels []voxel.Voxel) string {
	codes := make([]uint16, len(voxels))
	for i, v := range voxels {
		codes[i] = voxelCode(v)
	}
	return encoding.EncodeRLE(codes)
}

// DecodeRLE is the inverse of EncodeRLE; the payload must hold exactly want
// voxels.
func DecodeRLE(s string, want int) ([]voxel.Voxel, error) {
	codes, err := encoding.DecodeRLE(s, want)
	if err != nil {
		return nil, fmt.Errorf("rle: %w", err)
	}
	if len(codes) != want {
		return nil, fmt.Errorf("rle: decoded %d voxels, want %d", len(codes), want)
	}
	out := make([]voxel.Voxel, len(codes))
	for i, c := range codes {
		if out[i], err = codeVoxel(c); err != nil {
			return nil, fmt.Errorf("rle: at %d: %w", i, err)
		}
	}
	return out, nil
}

// EncodeChunk generates the chunk if needed and returns its RLE payload and
// digest.
func (s *ChunkStore) EncodeChunk(k ChunkKey) (string, [32]byte) {
	ch := s.GetOrGenChunk(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	return EncodeRLE(ch.Voxels), ch.Digest()
}
