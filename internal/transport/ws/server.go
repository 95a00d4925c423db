package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"

	"voxelsandbox.app/internal/protocol"
	"voxelsandbox.app/internal/sim/catalogs"
	"voxelsandbox.app/internal/sim/tuning"
	"voxelsandbox.app/internal/sim/voxel"
	"voxelsandbox.app/internal/sim/world"
	"voxelsandbox.app/internal/sim/world/camera"
	"voxelsandbox.app/internal/sim/world/interact"
	"voxelsandbox.app/internal/sim/world/logic/mathx"
	"voxelsandbox.app/internal/sim/world/terrain/store"
)

// Server bridges a remote display/input client to the world: it turns camera,
// cursor and button events into targeting and edits, and serves chunk data.
type Server struct {
	world *world.World
	tune  tuning.Tuning
	log   *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	active   atomic.Int64
}

// Sessions reports the number of connected clients.
func (s *Server) Sessions() int64 { return s.active.Load() }

func NewServer(w *world.World, tune tuning.Tuning, logger *log.Logger) *Server {
	return &Server{
		world: w,
		tune:  tune,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

type session struct {
	id  string
	cam *camera.Camera
	in  *interact.Interaction
	out chan []byte
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.handshake(conn)
		if sess == nil {
			return
		}
		s.log.Printf("session %s connected from %s", sess.id, r.RemoteAddr)
		s.active.Add(1)
		defer s.active.Add(-1)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if err := s.dispatchGuarded(ctx, sess, msg); err != nil {
				if err.fatal {
					s.log.Printf("session %s aborted: %s", sess.id, err.msg)
					_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.code), time.Now().Add(time.Second))
					return
				}
				s.enqueue(ctx, sess, protocol.ErrorMsg{Type: protocol.TypeError, Code: err.code, Message: err.msg})
			}
		}
		s.log.Printf("session %s disconnected", sess.id)
	}
}

// dispatchGuarded turns an embedded-camera fault into a fatal session error.
// Any other panic is not ours to swallow.
func (s *Server) dispatchGuarded(ctx context.Context, sess *session, msg []byte) (rerr *reqError) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if err, ok := r.(error); ok && errors.Is(err, interact.ErrEmbeddedCamera) {
			rerr = &reqError{code: protocol.ErrInternal, msg: err.Error(), fatal: true}
			return
		}
		panic(r)
	}()
	return s.dispatch(ctx, sess, msg)
}

func (s *Server) handshake(conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 32
	}
	if maxQ > 256 {
		maxQ = 256
	}
	vp := hello.Viewport
	if vp[0] <= 0 || vp[1] <= 0 {
		vp = s.tune.Viewport
	}

	id := fmt.Sprintf("S%d", s.nextID.Add(1))
	cam := camera.New(mgl32.Vec3(s.tune.Spawn), vp[0], vp[1])
	sess := &session{
		id:  id,
		cam: cam,
		in:  interact.New(s.world.Editor(id), cam),
		out: make(chan []byte, maxQ),
	}

	if err := writeJSON(conn, s.welcome(sess)); err != nil {
		return nil
	}
	return sess
}

func (s *Server) welcome(sess *session) protocol.WelcomeMsg {
	mats := make([]protocol.MaterialTexture, 0, len(catalogs.Materials.Defs))
	for _, d := range catalogs.Materials.Defs {
		mats = append(mats, protocol.MaterialTexture{ID: d.ID, Name: d.Name, Texture: d.Texture})
	}
	cfg := s.world.Config()
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		WorldParams: protocol.WorldParams{
			WorldID:          cfg.ID,
			Seed:             cfg.Detail.Seed,
			ChunkSize:        store.ChunkSize,
			SpawningDistance: s.tune.SpawningDistance,
			RenderDistance:   s.tune.RenderDistance,
			Spawn:            s.tune.Spawn,
		},
		Textures: protocol.TextureInfo{
			Path:      s.tune.Texture.Path,
			Layers:    s.tune.Texture.Layers,
			Digest:    catalogs.Materials.Digest,
			Materials: mats,
			Fallback:  catalogs.TextureIndex(255),
		},
		Target: sess.in.Target().ToArray(),
	}
}

type reqError struct {
	code  string
	msg   string
	fatal bool
}

func (s *Server) dispatch(ctx context.Context, sess *session, msg []byte) *reqError {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return &reqError{code: protocol.ErrProtoBadRequest, msg: "invalid json"}
	}

	switch base.Type {
	case protocol.TypeCamera:
		var m protocol.CameraMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return &reqError{code: protocol.ErrBadRequest, msg: err.Error()}
		}
		sess.cam.SetPose(mgl32.Vec3(m.Pos), m.Yaw, m.Pitch)
		if m.FovY > 0 {
			sess.cam.FovY = m.FovY
		}
		if m.Viewport[0] > 0 && m.Viewport[1] > 0 {
			sess.cam.Width, sess.cam.Height = m.Viewport[0], m.Viewport[1]
		}

	case protocol.TypeCursorMoved:
		var m protocol.CursorMovedMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return &reqError{code: protocol.ErrBadRequest, msg: err.Error()}
		}
		if sess.in.CursorMoved(mgl32.Vec2(m.Pos)) {
			s.enqueue(ctx, sess, protocol.TargetMsg{Type: protocol.TypeTarget, Voxel: sess.in.Target().ToArray()})
		}

	case protocol.TypeButton:
		var m protocol.ButtonMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return &reqError{code: protocol.ErrBadRequest, msg: err.Error()}
		}
		b := interact.Button(m.Button)
		switch b {
		case interact.ButtonLeft, interact.ButtonRight, interact.ButtonMiddle:
		default:
			return &reqError{code: protocol.ErrUnknownButton, msg: m.Button}
		}
		if !m.Pressed {
			sess.in.Release(b)
			return nil
		}
		if pos, ok := sess.in.Press(b); ok {
			s.enqueue(ctx, sess, protocol.VoxelSetMsg{Type: protocol.TypeVoxelSet, Pos: pos.ToArray(), Material: catalogs.Stone})
		}

	case protocol.TypeChunkReq:
		var m protocol.ChunkReqMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return &reqError{code: protocol.ErrBadRequest, msg: err.Error()}
		}
		k, ok := chunkKey(m.Chunk)
		if !ok || !s.inRenderRange(sess, k) {
			return &reqError{code: protocol.ErrOutOfRange, msg: fmt.Sprintf("chunk %v beyond render distance %d", m.Chunk, s.tune.RenderDistance)}
		}
		data, digest := s.world.ChunkData(k)
		s.enqueue(ctx, sess, protocol.ChunkMsg{
			Type:     protocol.TypeChunk,
			Chunk:    m.Chunk,
			Size:     store.ChunkSize,
			Encoding: "RLE",
			Data:     data,
			Digest:   digest,
		})

	default:
		return &reqError{code: protocol.ErrProtoBadRequest, msg: "unknown type " + base.Type}
	}
	return nil
}

// chunkKey rejects coordinates that do not fit a chunk key instead of
// wrapping them onto a nearby chunk.
func chunkKey(c [3]int) (store.ChunkKey, bool) {
	for _, v := range c {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return store.ChunkKey{}, false
		}
	}
	return store.ChunkKey{CX: int32(c[0]), CY: int32(c[1]), CZ: int32(c[2])}, true
}

func (s *Server) inRenderRange(sess *session, k store.ChunkKey) bool {
	p := sess.cam.Position
	c := store.KeyOf(voxel.Vec3i{
		X: int32(math.Floor(float64(p.X()))),
		Y: int32(math.Floor(float64(p.Y()))),
		Z: int32(math.Floor(float64(p.Z()))),
	})
	r := int32(s.tune.RenderDistance)
	return mathx.AbsInt(k.CX-c.CX) <= r && mathx.AbsInt(k.CY-c.CY) <= r && mathx.AbsInt(k.CZ-c.CZ) <= r
}

func (s *Server) enqueue(ctx context.Context, sess *session, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Printf("session %s: marshal %T: %v", sess.id, v, err)
		return
	}
	select {
	case sess.out <- b:
	case <-ctx.Done():
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
