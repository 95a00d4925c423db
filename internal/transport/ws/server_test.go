package ws

import (
	"encoding/json"
	"io"
	"log"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"

	"voxelsandbox.app/internal/protocol"
	"voxelsandbox.app/internal/sim/catalogs"
	"voxelsandbox.app/internal/sim/tuning"
	"voxelsandbox.app/internal/sim/voxel"
	"voxelsandbox.app/internal/sim/world"
	"voxelsandbox.app/internal/sim/world/camera"
	"voxelsandbox.app/internal/sim/world/terrain/store"
)

func startServer(t *testing.T) (*world.World, *websocket.Conn) {
	t.Helper()
	tune := tuning.Defaults()
	tune.RenderDistance = 2
	w, err := world.New(world.ConfigFromTuning("test", tune), nil)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	srv := NewServer(w, tune, log.New(io.Discard, "", 0))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return w, conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func recv(t *testing.T, conn *websocket.Conn, wantType string, into any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read %s: %v", wantType, err)
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != wantType {
		t.Fatalf("want %s, got %s", wantType, msg)
	}
	if err := json.Unmarshal(msg, into); err != nil {
		t.Fatalf("unmarshal %s: %v", wantType, err)
	}
}

func hello(t *testing.T, conn *websocket.Conn) protocol.WelcomeMsg {
	t.Helper()
	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "test", Viewport: [2]int{640, 480}})
	var welcome protocol.WelcomeMsg
	recv(t, conn, protocol.TypeWelcome, &welcome)
	return welcome
}

func TestHandshake(t *testing.T) {
	_, conn := startServer(t)
	welcome := hello(t, conn)
	if welcome.SessionID == "" || welcome.ProtocolVersion != protocol.Version {
		t.Fatalf("welcome: %+v", welcome)
	}
	if welcome.WorldParams.Seed != 1234 || welcome.WorldParams.ChunkSize != store.ChunkSize {
		t.Fatalf("world params: %+v", welcome.WorldParams)
	}
	if welcome.Textures.Fallback != [3]uint32{3, 3, 3} || len(welcome.Textures.Materials) != len(catalogs.Materials.Defs) {
		t.Fatalf("textures: %+v", welcome.Textures)
	}
	if welcome.Target != [3]int{0, -10, 0} {
		t.Fatalf("initial target: %v", welcome.Target)
	}
}

func TestHandshakeRejectsVersion(t *testing.T) {
	_, conn := startServer(t)
	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: "0.1", ClientName: "old"})
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected the connection to be closed")
	}
}

func TestCursorAndClickPlaceStone(t *testing.T) {
	w, conn := startServer(t)
	hello(t, conn)

	pos := mgl32.Vec3{0.5, 20, 0.5}
	send(t, conn, protocol.CameraMsg{Type: protocol.TypeCamera, Pos: [3]float32(pos), Yaw: 0, Pitch: -1.5})
	send(t, conn, protocol.CursorMovedMsg{Type: protocol.TypeCursorMoved, Pos: [2]float32{320, 240}})

	var target protocol.TargetMsg
	recv(t, conn, protocol.TypeTarget, &target)

	cam := camera.New(pos, 640, 480)
	cam.SetPose(pos, 0, -1.5)
	ray, err := cam.ViewportToWorld(mgl32.Vec2{320, 240})
	if err != nil {
		t.Fatalf("ViewportToWorld: %v", err)
	}
	hit, ok := w.Raycast(ray, voxel.AcceptAll)
	if !ok || hit.Normal == nil {
		t.Fatalf("raycast: %+v %v", hit, ok)
	}
	want := hit.Position.Add(*hit.Normal)
	if target.Voxel != want.ToArray() {
		t.Fatalf("target %v want %v", target.Voxel, want)
	}

	send(t, conn, protocol.ButtonMsg{Type: protocol.TypeButton, Button: "LEFT", Pressed: true})
	var set protocol.VoxelSetMsg
	recv(t, conn, protocol.TypeVoxelSet, &set)
	if set.Pos != want.ToArray() || set.Material != catalogs.Stone {
		t.Fatalf("voxel set: %+v", set)
	}

	// Held button: no second placement. An unknown button errors, which also
	// proves nothing was queued in between.
	send(t, conn, protocol.ButtonMsg{Type: protocol.TypeButton, Button: "LEFT", Pressed: true})
	send(t, conn, protocol.ButtonMsg{Type: protocol.TypeButton, Button: "BACK", Pressed: true})
	var e protocol.ErrorMsg
	recv(t, conn, protocol.TypeError, &e)
	if e.Code != protocol.ErrUnknownButton {
		t.Fatalf("error: %+v", e)
	}
	if got := w.Store().GetVoxel(want); got != voxel.Solid(catalogs.Stone) {
		t.Fatalf("store voxel: %v", got)
	}
}

func TestChunkRequest(t *testing.T) {
	_, conn := startServer(t)
	hello(t, conn)

	send(t, conn, protocol.ChunkReqMsg{Type: protocol.TypeChunkReq, Chunk: [3]int{0, 1, 0}})
	var chunk protocol.ChunkMsg
	recv(t, conn, protocol.TypeChunk, &chunk)
	if chunk.Encoding != "RLE" || chunk.Size != store.ChunkSize || len(chunk.Digest) != 64 {
		t.Fatalf("chunk: %+v", chunk)
	}
	voxels, err := store.DecodeRLE(chunk.Data, store.ChunkSize*store.ChunkSize*store.ChunkSize)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(voxels) != store.ChunkSize*store.ChunkSize*store.ChunkSize {
		t.Fatalf("voxels: %d", len(voxels))
	}

	send(t, conn, protocol.ChunkReqMsg{Type: protocol.TypeChunkReq, Chunk: [3]int{50, 0, 0}})
	var e protocol.ErrorMsg
	recv(t, conn, protocol.TypeError, &e)
	if e.Code != protocol.ErrOutOfRange {
		t.Fatalf("error: %+v", e)
	}
}

func TestChunkRequestRejectsWrappedCoords(t *testing.T) {
	_, conn := startServer(t)
	hello(t, conn)

	// 1<<32 would wrap to chunk 0 as an int32.
	for _, c := range [][3]int{{1 << 32, 1, 0}, {0, 1 - 1<<32, 0}, {0, 1, math.MinInt32 - 1}} {
		send(t, conn, protocol.ChunkReqMsg{Type: protocol.TypeChunkReq, Chunk: c})
		var e protocol.ErrorMsg
		recv(t, conn, protocol.TypeError, &e)
		if e.Code != protocol.ErrOutOfRange {
			t.Fatalf("chunk %v: %+v", c, e)
		}
	}
}

func TestChunkRequestRangeFloorsNegativeCamera(t *testing.T) {
	_, conn := startServer(t)
	hello(t, conn)

	// x=-0.5 lies in chunk -1, so with render distance 2 the window is -3..1.
	send(t, conn, protocol.CameraMsg{Type: protocol.TypeCamera, Pos: [3]float32{-0.5, 60, 0}})
	send(t, conn, protocol.ChunkReqMsg{Type: protocol.TypeChunkReq, Chunk: [3]int{-3, 1, 0}})
	var chunk protocol.ChunkMsg
	recv(t, conn, protocol.TypeChunk, &chunk)
	if chunk.Chunk != [3]int{-3, 1, 0} {
		t.Fatalf("chunk: %v", chunk.Chunk)
	}

	send(t, conn, protocol.ChunkReqMsg{Type: protocol.TypeChunkReq, Chunk: [3]int{2, 1, 0}})
	var e protocol.ErrorMsg
	recv(t, conn, protocol.TypeError, &e)
	if e.Code != protocol.ErrOutOfRange {
		t.Fatalf("error: %+v", e)
	}
}
