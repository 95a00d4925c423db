package world

import (
	"context"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelsandbox.app/internal/sim/catalogs"
	"voxelsandbox.app/internal/sim/tuning"
	"voxelsandbox.app/internal/sim/voxel"
	"voxelsandbox.app/internal/sim/world/camera"
	"voxelsandbox.app/internal/sim/world/interact"
	"voxelsandbox.app/internal/sim/world/terrain/store"
)

type memSink struct {
	mu     sync.Mutex
	audits []AuditEntry
	chunks []ChunkEntry
}

func (s *memSink) WriteAudit(e AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, e)
	return nil
}

func (s *memSink) WriteChunk(e ChunkEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, e)
	return nil
}

func newTestWorld(t *testing.T) (*World, *memSink) {
	t.Helper()
	w, err := New(ConfigFromTuning("test", tuning.Defaults()), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sink := &memSink{}
	w.AddAuditSink(sink)
	w.AddChunkSink(sink)
	return w, sink
}

func TestNewRejectsBadNoise(t *testing.T) {
	cfg := ConfigFromTuning("bad", tuning.Defaults())
	cfg.Detail.Octaves = 0
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEditsBypassClassifier(t *testing.T) {
	w, sink := newTestWorld(t)
	c := w.Classifier()

	pos := voxel.Vec3i{X: 3, Y: 40, Z: -8}
	before := c.Classify(pos)
	height := c.Height(pos.X, pos.Z)
	cached := c.Cache().Len()

	w.Editor("tester").SetVoxel(pos, voxel.Solid(catalogs.Stone))

	if got := w.Store().GetVoxel(pos); got != voxel.Solid(catalogs.Stone) {
		t.Fatalf("store voxel: %v", got)
	}
	if got := c.Classify(pos); got != before {
		t.Fatalf("classifier reflected edit: %v -> %v", before, got)
	}
	if h, ok := c.Cache().Lookup(pos.X, pos.Z); !ok || h != height {
		t.Fatalf("cached height changed: %v (%v)", h, ok)
	}
	if c.Cache().Len() < cached {
		t.Fatalf("cache shrank")
	}

	if len(sink.audits) != 1 {
		t.Fatalf("audits: %+v", sink.audits)
	}
	a := sink.audits[0]
	if a.Actor != "tester" || a.Action != "SET_VOXEL" || a.Pos != [3]int{3, 40, -8} || a.To != "STONE" || a.From != VoxelLabel(before) || a.Seq != 1 {
		t.Fatalf("audit entry: %+v", a)
	}
	if len(sink.chunks) == 0 {
		t.Fatalf("expected chunk generation to be recorded")
	}
}

func TestCameraClickPlacesStoneAtTarget(t *testing.T) {
	w, _ := newTestWorld(t)
	cam := camera.New(mgl32.Vec3{0.5, 20, 0.5}, 640, 480)
	cam.SetPose(cam.Position, 0, -1.5)

	ed := w.Editor("player")
	in := interact.New(ed, cam)
	if !in.CursorMoved(mgl32.Vec2{320, 240}) {
		t.Fatalf("expected the downward ray to hit terrain")
	}

	ray, err := cam.ViewportToWorld(mgl32.Vec2{320, 240})
	if err != nil {
		t.Fatalf("ViewportToWorld: %v", err)
	}
	hit, ok := w.Raycast(ray, voxel.AcceptAll)
	if !ok || hit.Normal == nil {
		t.Fatalf("raycast: %+v %v", hit, ok)
	}
	target := hit.Position.Add(*hit.Normal)
	if in.Target() != target {
		t.Fatalf("target %v want %v", in.Target(), target)
	}
	if w.Store().GetVoxel(target).IsSolid() {
		t.Fatalf("target cell should be empty before the click")
	}

	if _, ok := in.Press(interact.ButtonLeft); !ok {
		t.Fatalf("click ignored")
	}
	if got := w.Store().GetVoxel(target); got != voxel.Solid(catalogs.Stone) {
		t.Fatalf("placed voxel: %v", got)
	}
}

func TestStreamAroundAndChunkData(t *testing.T) {
	w, sink := newTestWorld(t)
	if err := w.StreamAround(context.Background(), voxel.Vec3i{}, 0, 0); err != nil {
		t.Fatalf("StreamAround: %v", err)
	}
	if n := len(w.Store().LoadedChunkKeys()); n != 1 {
		t.Fatalf("loaded chunks: %d", n)
	}
	data, digest := w.ChunkData(store.ChunkKey{})
	if data == "" || len(digest) != 64 {
		t.Fatalf("chunk data: %q %q", data, digest)
	}
	if len(sink.chunks) != 1 || sink.chunks[0].Digest != digest {
		t.Fatalf("chunk entries: %+v", sink.chunks)
	}
}

func TestVoxelLabel(t *testing.T) {
	cases := map[voxel.Voxel]string{
		voxel.Air():                 "AIR",
		{}:                          "UNSET",
		voxel.Solid(catalogs.Moss):  "MOSS",
		voxel.Solid(catalogs.Water): "WATER",
		voxel.Solid(9):              "MATERIAL_9",
	}
	for v, want := range cases {
		if got := VoxelLabel(v); got != want {
			t.Fatalf("%v: got %q want %q", v, got, want)
		}
	}
}
