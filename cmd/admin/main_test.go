package main

import (
	"database/sql"
	"path/filepath"
	"testing"

	"voxelsandbox.app/internal/persistence/indexdb"
	persistlog "voxelsandbox.app/internal/persistence/log"
	"voxelsandbox.app/internal/sim/tuning"
	"voxelsandbox.app/internal/sim/voxel"
	"voxelsandbox.app/internal/sim/world"
)

func TestParseAABB(t *testing.T) {
	min, max, err := parseAABB("5,0,-2:1,3,4")
	if err != nil {
		t.Fatalf("parseAABB: %v", err)
	}
	if min != [3]int{1, 0, -2} || max != [3]int{5, 3, 4} {
		t.Fatalf("min=%v max=%v", min, max)
	}
	if _, _, err := parseAABB("1,2:3,4,5"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestReadAuditFilters(t *testing.T) {
	worldDir := t.TempDir()
	al := persistlog.NewAuditLogger(worldDir)
	w, err := world.New(world.ConfigFromTuning("w", tuning.Defaults()), nil)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	w.AddAuditSink(al)
	w.Editor("S1").SetVoxel(voxel.Vec3i{X: 1, Y: 1, Z: 1}, voxel.Solid(1))
	w.Editor("S2").SetVoxel(voxel.Vec3i{X: 2, Y: 2, Z: 2}, voxel.Solid(1))
	w.Editor("S1").SetVoxel(voxel.Vec3i{X: 50, Y: 1, Z: 1}, voxel.Solid(1))
	if err := al.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	all, err := readAudit(worldDir, auditFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("all: %d %v", len(all), err)
	}
	for i, e := range all {
		if e.Seq != uint64(i+1) {
			t.Fatalf("order: %+v", all)
		}
	}

	byActor, _ := readAudit(worldDir, auditFilter{actor: "S1"})
	if len(byActor) != 2 {
		t.Fatalf("actor filter: %+v", byActor)
	}
	box := [2][3]int{{0, 0, 0}, {10, 10, 10}}
	inBox, _ := readAudit(worldDir, auditFilter{actor: "S1", box: &box})
	if len(inBox) != 1 || inBox[0].Pos != [3]int{1, 1, 1} {
		t.Fatalf("box filter: %+v", inBox)
	}
}

func TestDBQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.sqlite")
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	_ = idx.WriteAudit(world.AuditEntry{Seq: 1, Time: "t1", Actor: "S1", Action: "SET_VOXEL", From: "AIR", To: "STONE"})
	_ = idx.WriteAudit(world.AuditEntry{Seq: 2, Time: "t2", Actor: "S2", Action: "SET_VOXEL", From: "AIR", To: "STONE"})
	_ = idx.WriteChunk(world.ChunkEntry{Chunk: [3]int{0, 0, 0}, Solid: 10, Digest: "a", DurationMs: 2, Time: "t"})
	_ = idx.WriteChunk(world.ChunkEntry{Chunk: [3]int{0, -1, 0}, Solid: 30, Digest: "b", DurationMs: 4, Time: "t"})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var edits []editRow
	if err := queryEdits(db, "S2", 10, func(v any) { edits = append(edits, v.(editRow)) }); err != nil {
		t.Fatalf("queryEdits: %v", err)
	}
	if len(edits) != 1 || edits[0].Seq != 2 {
		t.Fatalf("edits: %+v", edits)
	}

	var out []any
	if err := queryChunks(db, 10, func(v any) { out = append(out, v) }); err != nil {
		t.Fatalf("queryChunks: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("chunks output: %+v", out)
	}
	sum := out[0].(chunkSummary)
	if sum.Chunks != 2 || sum.Solid != 40 || sum.SlowestMs != 4 || sum.SlowestKey != [3]int{0, -1, 0} {
		t.Fatalf("summary: %+v", sum)
	}
}

func TestHeightWindowMatchesClassifier(t *testing.T) {
	w, err := world.New(world.ConfigFromTuning("w", tuning.Defaults()), nil)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	rows := heightWindow(w, -2, -2, 4)
	if len(rows) != 4 || len(rows[0]) != 4 {
		t.Fatalf("shape: %d", len(rows))
	}
	// Column (0,0) sits at index [2][2].
	if rows[2][2] != 0 {
		t.Fatalf("height at origin: %v", rows[2][2])
	}
	if got := w.Classifier().Height(1, -1); rows[1][3] != got {
		t.Fatalf("window[1][3]=%v classifier=%v", rows[1][3], got)
	}
}
