package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelsandbox.app/internal/sim/voxel"
)

var ErrNoViewport = errors.New("camera: viewport has no area")

const maxPitch = 89 * math.Pi / 180

// Camera is a perspective camera posed by yaw/pitch. Yaw 0 looks down -Z;
// positive pitch looks up. Angles are radians.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32
	FovY     float32
	Near     float32
	Far      float32
	Width    int
	Height   int
}

func New(pos mgl32.Vec3, width, height int) *Camera {
	return &Camera{
		Position: pos,
		FovY:     mgl32.DegToRad(45),
		Near:     0.1,
		Far:      1000,
		Width:    width,
		Height:   height,
	}
}

// SetPose updates position and orientation, clamping pitch short of the poles.
func (c *Camera) SetPose(pos mgl32.Vec3, yaw, pitch float32) {
	c.Position = pos
	c.Yaw = yaw
	c.Pitch = mgl32.Clamp(pitch, -maxPitch, maxPitch)
}

func (c *Camera) Forward() mgl32.Vec3 {
	sy, cy := math.Sincos(float64(c.Yaw))
	sp, cp := math.Sincos(float64(mgl32.Clamp(c.Pitch, -maxPitch, maxPitch)))
	return mgl32.Vec3{float32(-sy * cp), float32(sp), float32(-cy * cp)}
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Forward()), mgl32.Vec3{0, 1, 0})
}

func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(c.FovY, float32(c.Width)/float32(c.Height), c.Near, c.Far)
}

// ViewportToWorld casts a ray through a cursor position given in viewport
// pixels with the origin at the top-left corner.
func (c *Camera) ViewportToWorld(cursor mgl32.Vec2) (voxel.Ray, error) {
	if c.Width <= 0 || c.Height <= 0 {
		return voxel.Ray{}, ErrNoViewport
	}
	view, proj := c.View(), c.Projection()
	winY := float32(c.Height) - cursor.Y()

	near, err := mgl32.UnProject(mgl32.Vec3{cursor.X(), winY, 0}, view, proj, 0, 0, c.Width, c.Height)
	if err != nil {
		return voxel.Ray{}, fmt.Errorf("unproject near: %w", err)
	}
	far, err := mgl32.UnProject(mgl32.Vec3{cursor.X(), winY, 1}, view, proj, 0, 0, c.Width, c.Height)
	if err != nil {
		return voxel.Ray{}, fmt.Errorf("unproject far: %w", err)
	}
	dir := far.Sub(near)
	if dir.Len() == 0 {
		return voxel.Ray{}, fmt.Errorf("degenerate ray at %v", cursor)
	}
	return voxel.Ray{Origin: near, Direction: dir.Normalize()}, nil
}
