package voxel

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3i is an integer voxel coordinate.
type Vec3i struct {
	X int32
	Y int32
	Z int32
}

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }

func (v Vec3i) ToArray() [3]int { return [3]int{int(v.X), int(v.Y), int(v.Z)} }

func (v Vec3i) String() string { return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z) }

// Vec3 returns the minimum corner of the voxel in world space.
func (v Vec3i) Vec3() mgl32.Vec3 { return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)} }

type Kind uint8

const (
	// KindUnset marks a voxel the store has no data for yet.
	KindUnset Kind = iota
	KindAir
	KindSolid
)

// Voxel is either air or a solid cell of some material.
type Voxel struct {
	Kind     Kind
	Material uint8 // only meaningful for KindSolid
}

func Air() Voxel { return Voxel{Kind: KindAir} }

func Solid(material uint8) Voxel { return Voxel{Kind: KindSolid, Material: material} }

func (v Voxel) IsSolid() bool { return v.Kind == KindSolid }

func (v Voxel) String() string {
	switch v.Kind {
	case KindAir:
		return "AIR"
	case KindSolid:
		return fmt.Sprintf("SOLID(%d)", v.Material)
	default:
		return "UNSET"
	}
}

// Ray is a half-line in world space. Direction need not be normalized.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// Hit describes the first voxel a ray entered.
type Hit struct {
	Position Vec3i
	// Normal is the face the ray entered through; nil when the ray started
	// inside the hit voxel.
	Normal *Vec3i
	Voxel  Voxel
}

// Filter decides whether a candidate voxel counts as a hit.
type Filter func(pos Vec3i, v Voxel) bool

// AcceptAll accepts every solid candidate.
func AcceptAll(Vec3i, Voxel) bool { return true }
