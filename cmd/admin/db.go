package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	actor := fs.String("actor", "", "actor filter (edits)")
	_ = fs.Parse(args)

	q := "edits"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	if *limit <= 0 {
		*limit = 20
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	var qerr error
	switch q {
	case "edits":
		qerr = queryEdits(db, strings.TrimSpace(*actor), *limit, printJSON)
	case "chunks":
		qerr = queryChunks(db, *limit, printJSON)
	case "catalogs":
		qerr = queryCatalogs(db, printJSON)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data] [-world WORLD|-db PATH] [-limit N] [-actor S] edits|chunks|catalogs")
		os.Exit(2)
	}
	if qerr != nil {
		fmt.Fprintln(os.Stderr, "query:", qerr)
		os.Exit(1)
	}
}

type editRow struct {
	Seq    int64  `json:"seq"`
	Time   string `json:"time"`
	Actor  string `json:"actor"`
	Action string `json:"action"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Z      int    `json:"z"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func queryEdits(db *sql.DB, actor string, limit int, emit func(any)) error {
	q := `SELECT seq,time,actor,action,x,y,z,from_voxel,to_voxel FROM audits ORDER BY seq DESC LIMIT ?`
	args := []any{limit}
	if actor != "" {
		q = `SELECT seq,time,actor,action,x,y,z,from_voxel,to_voxel FROM audits WHERE actor=? ORDER BY seq DESC LIMIT ?`
		args = []any{actor, limit}
	}
	rows, err := db.Query(q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r editRow
		if err := rows.Scan(&r.Seq, &r.Time, &r.Actor, &r.Action, &r.X, &r.Y, &r.Z, &r.From, &r.To); err != nil {
			return err
		}
		emit(r)
	}
	return rows.Err()
}

type chunkRow struct {
	Chunk      [3]int  `json:"chunk"`
	Solid      int     `json:"solid"`
	Digest     string  `json:"digest"`
	DurationMs float64 `json:"duration_ms"`
	Time       string  `json:"generated_at"`
}

type chunkSummary struct {
	Chunks     int     `json:"chunks"`
	Solid      int64   `json:"solid"`
	AvgGenMs   float64 `json:"avg_generation_ms"`
	SlowestMs  float64 `json:"slowest_ms"`
	SlowestKey [3]int  `json:"slowest_chunk"`
}

// queryChunks prints a summary line followed by the slowest generations.
func queryChunks(db *sql.DB, limit int, emit func(any)) error {
	var sum chunkSummary
	row := db.QueryRow(`SELECT COUNT(*),COALESCE(SUM(solid),0),COALESCE(AVG(duration_ms),0) FROM chunks`)
	if err := row.Scan(&sum.Chunks, &sum.Solid, &sum.AvgGenMs); err != nil {
		return err
	}

	rows, err := db.Query(`SELECT cx,cy,cz,solid,digest,duration_ms,generated_at FROM chunks ORDER BY duration_ms DESC LIMIT ?`, limit)
	if err != nil {
		return err
	}
	defer rows.Close()
	var out []chunkRow
	for rows.Next() {
		var r chunkRow
		if err := rows.Scan(&r.Chunk[0], &r.Chunk[1], &r.Chunk[2], &r.Solid, &r.Digest, &r.DurationMs, &r.Time); err != nil {
			return err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(out) > 0 {
		sum.SlowestMs = out[0].DurationMs
		sum.SlowestKey = out[0].Chunk
	}
	emit(sum)
	for _, r := range out {
		emit(r)
	}
	return nil
}

func queryCatalogs(db *sql.DB, emit func(any)) error {
	rows, err := db.Query(`SELECT name,digest,updated_at FROM catalogs ORDER BY name`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r struct {
			Name      string `json:"name"`
			Digest    string `json:"digest"`
			UpdatedAt string `json:"updated_at"`
		}
		if err := rows.Scan(&r.Name, &r.Digest, &r.UpdatedAt); err != nil {
			return err
		}
		emit(r)
	}
	return rows.Err()
}
