package world

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"voxelsandbox.app/internal/sim/catalogs"
	"voxelsandbox.app/internal/sim/voxel"
	"voxelsandbox.app/internal/sim/world/terrain/gen"
	"voxelsandbox.app/internal/sim/world/terrain/noise"
	"voxelsandbox.app/internal/sim/world/terrain/store"
)

// AuditEntry records one edit made through an Editor.
type AuditEntry struct {
	Seq    uint64 `json:"seq"`
	Time   string `json:"time"`
	Actor  string `json:"actor"`
	Action string `json:"action"` // "SET_VOXEL"
	Pos    [3]int `json:"pos"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// ChunkEntry records one chunk generation pass.
type ChunkEntry struct {
	Chunk      [3]int  `json:"chunk"`
	Solid      int     `json:"solid"`
	Digest     string  `json:"digest"`
	DurationMs float64 `json:"duration_ms"`
	Time       string  `json:"time"`
}

type AuditSink interface {
	WriteAudit(AuditEntry) error
}

type ChunkSink interface {
	WriteChunk(ChunkEntry) error
}

// World wires the terrain generator to a chunk store. Generated voxels come
// from the classifier; edits live only in the store.
type World struct {
	cfg WorldConfig
	log *log.Logger

	classifier *gen.Classifier
	store      *store.ChunkStore

	// Sinks are registered during setup, before the world is shared.
	audits []AuditSink
	chunks []ChunkSink

	editSeq atomic.Uint64
}

func New(cfg WorldConfig, logger *log.Logger) (*World, error) {
	warp, err := noise.New(cfg.Warp)
	if err != nil {
		return nil, fmt.Errorf("warp field: %w", err)
	}
	detail, err := noise.New(cfg.Detail)
	if err != nil {
		return nil, fmt.Errorf("detail field: %w", err)
	}
	w := &World{
		cfg:        cfg,
		log:        logger,
		classifier: gen.NewClassifier(gen.NewHeightField(warp, detail), gen.NewColumnCache()),
	}
	w.store = store.NewChunkStore(w.classifier.Classify)
	if cfg.MaxRayDistance > 0 {
		w.store.MaxRayDistance = cfg.MaxRayDistance
	}
	w.store.OnGenerate(w.recordChunk)
	return w, nil
}

func (w *World) Config() WorldConfig { return w.cfg }

func (w *World) AddAuditSink(s AuditSink) { w.audits = append(w.audits, s) }

func (w *World) AddChunkSink(s ChunkSink) { w.chunks = append(w.chunks, s) }

func (w *World) Classifier() *gen.Classifier { return w.classifier }

func (w *World) Store() *store.ChunkStore { return w.store }

func (w *World) Raycast(ray voxel.Ray, filter voxel.Filter) (voxel.Hit, bool) {
	return w.store.Raycast(ray, filter)
}

// StreamAround generates the chunks around a world position.
func (w *World) StreamAround(ctx context.Context, center voxel.Vec3i, radius, vRadius int32) error {
	keys := store.KeysAround(store.KeyOf(center), radius, vRadius)
	start := time.Now()
	if err := w.store.GenerateChunks(ctx, keys); err != nil {
		return err
	}
	w.logf("streamed %d chunks around %v in %s (columns cached=%d)", len(keys), center, time.Since(start).Round(time.Millisecond), w.classifier.Cache().Len())
	return nil
}

// ChunkData returns the RLE payload and digest of a chunk, generating it if
// needed.
func (w *World) ChunkData(k store.ChunkKey) (string, string) {
	data, digest := w.store.EncodeChunk(k)
	return data, hex.EncodeToString(digest[:])
}

// Editor returns a handle that attributes its edits to actor.
func (w *World) Editor(actor string) *Editor {
	return &Editor{w: w, actor: actor}
}

type Editor struct {
	w     *World
	actor string
}

func (e *Editor) Raycast(ray voxel.Ray, filter voxel.Filter) (voxel.Hit, bool) {
	return e.w.Raycast(ray, filter)
}

func (e *Editor) SetVoxel(pos voxel.Vec3i, v voxel.Voxel) {
	from := e.w.store.GetVoxel(pos)
	e.w.store.SetVoxel(pos, v)

	entry := AuditEntry{
		Seq:    e.w.editSeq.Add(1),
		Time:   time.Now().UTC().Format(time.RFC3339Nano),
		Actor:  e.actor,
		Action: "SET_VOXEL",
		Pos:    pos.ToArray(),
		From:   VoxelLabel(from),
		To:     VoxelLabel(v),
	}
	for _, s := range e.w.audits {
		if err := s.WriteAudit(entry); err != nil {
			e.w.logf("audit sink: %v", err)
		}
	}
}

func (w *World) recordChunk(st store.ChunkStat) {
	if len(w.chunks) == 0 {
		return
	}
	entry := ChunkEntry{
		Chunk:      st.Key.ToArray(),
		Solid:      st.Solid,
		Digest:     hex.EncodeToString(st.Digest[:]),
		DurationMs: float64(st.Duration.Microseconds()) / 1000,
		Time:       time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, s := range w.chunks {
		if err := s.WriteChunk(entry); err != nil {
			w.logf("chunk sink: %v", err)
		}
	}
}

func (w *World) logf(format string, args ...any) {
	if w.log != nil {
		w.log.Printf(format, args...)
	}
}

func VoxelLabel(v voxel.Voxel) string {
	switch v.Kind {
	case voxel.KindAir:
		return "AIR"
	case voxel.KindSolid:
		if n := catalogs.Materials.Name(v.Material); n != "" {
			return n
		}
		return fmt.Sprintf("MATERIAL_%d", v.Material)
	default:
		return "UNSET"
	}
}
