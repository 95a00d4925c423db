package interact

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"voxelsandbox.app/internal/sim/catalogs"
	"voxelsandbox.app/internal/sim/voxel"
)

// ErrEmbeddedCamera reports a raycast hit without an entry face, which only
// happens when the camera sits inside solid terrain.
var ErrEmbeddedCamera = errors.New("interact: raycast hit has no surface normal (camera inside solid voxel)")

type Raycaster interface {
	Raycast(ray voxel.Ray, filter voxel.Filter) (voxel.Hit, bool)
}

type Mutator interface {
	SetVoxel(pos voxel.Vec3i, v voxel.Voxel)
}

type Store interface {
	Raycaster
	Mutator
}

type Viewport interface {
	ViewportToWorld(cursor mgl32.Vec2) (voxel.Ray, error)
}

type Button string

const (
	ButtonLeft   Button = "LEFT"
	ButtonRight  Button = "RIGHT"
	ButtonMiddle Button = "MIDDLE"
)

// InitialTarget is where the cursor points before the first raycast hit.
var InitialTarget = voxel.Vec3i{X: 0, Y: -10, Z: 0}

// Interaction tracks the placement target under the cursor and turns left
// clicks into stone placements. Not safe for concurrent use; drive it from
// one event loop.
type Interaction struct {
	store Store
	view  Viewport

	target voxel.Vec3i
	held   map[Button]bool
}

func New(store Store, view Viewport) *Interaction {
	return &Interaction{
		store:  store,
		view:   view,
		target: InitialTarget,
		held:   map[Button]bool{},
	}
}

func (in *Interaction) Target() voxel.Vec3i { return in.target }

// CursorMoved retargets from a cursor position in viewport pixels. It reports
// whether the target was updated; a miss keeps the previous target.
func (in *Interaction) CursorMoved(cursor mgl32.Vec2) bool {
	ray, err := in.view.ViewportToWorld(cursor)
	if err != nil {
		return false
	}
	return in.Aim(ray)
}

// Aim retargets from a world-space ray.
func (in *Interaction) Aim(ray voxel.Ray) bool {
	hit, ok := in.store.Raycast(ray, voxel.AcceptAll)
	if !ok {
		return false
	}
	if hit.Normal == nil {
		panic(fmt.Errorf("%w: hit at %v", ErrEmbeddedCamera, hit.Position))
	}
	in.target = hit.Position.Add(*hit.Normal)
	return true
}

// Press handles a button-down event. Only the transition from released to
// pressed counts; repeats while held are ignored. It returns the position a
// voxel was placed at, if any.
func (in *Interaction) Press(b Button) (voxel.Vec3i, bool) {
	if in.held[b] {
		return voxel.Vec3i{}, false
	}
	in.held[b] = true
	if b != ButtonLeft {
		return voxel.Vec3i{}, false
	}
	pos := in.target
	in.store.SetVoxel(pos, voxel.Solid(catalogs.Stone))
	return pos, true
}

func (in *Interaction) Release(b Button) {
	delete(in.held, b)
}
