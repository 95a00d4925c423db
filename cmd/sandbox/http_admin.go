package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"voxelsandbox.app/internal/persistence/indexdb"
	"voxelsandbox.app/internal/sim/world"
)

type sessionCounter interface {
	Sessions() int64
}

type worldState struct {
	WorldID        string         `json:"world_id"`
	Seed           int64          `json:"seed"`
	Sessions       int64          `json:"sessions"`
	LoadedChunks   int            `json:"loaded_chunks"`
	CachedColumns  int            `json:"cached_columns"`
	HeightComputes uint64         `json:"height_computes"`
	Edits          int            `json:"edits"`
	Index          *indexdb.Stats `json:"index,omitempty"`
}

func collectState(worldID string, w *world.World, sc sessionCounter, idx *indexdb.SQLiteIndex) worldState {
	cache := w.Classifier().Cache()
	st := worldState{
		WorldID:        worldID,
		Seed:           w.Config().Detail.Seed,
		Sessions:       sc.Sessions(),
		LoadedChunks:   len(w.Store().LoadedChunkKeys()),
		CachedColumns:  cache.Len(),
		HeightComputes: cache.Computes(),
		Edits:          len(w.Store().Edits()),
	}
	if idx != nil {
		s := idx.Stats()
		st.Index = &s
	}
	return st
}

// stateHandler serves a JSON summary to loopback callers only.
func stateHandler(worldID string, w *world.World, sc sessionCounter, idx *indexdb.SQLiteIndex) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(collectState(worldID, w, sc, idx))
	}
}

// metricsHandler writes a minimal Prometheus exposition.
func metricsHandler(worldID string, w *world.World, sc sessionCounter, idx *indexdb.SQLiteIndex) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		st := collectState(worldID, w, sc, idx)

		gauge := func(name, help string, v any) {
			fmt.Fprintf(rw, "# HELP %s %s\n", name, help)
			fmt.Fprintf(rw, "# TYPE %s gauge\n", name)
			fmt.Fprintf(rw, "%s{world=%q} %v\n", name, worldID, v)
		}
		gauge("voxelsandbox_sessions", "Connected clients.", st.Sessions)
		gauge("voxelsandbox_loaded_chunks", "Generated chunk count.", st.LoadedChunks)
		gauge("voxelsandbox_cached_columns", "Column heights held by the height cache.", st.CachedColumns)
		gauge("voxelsandbox_height_computes", "Height evaluations performed by the cache.", st.HeightComputes)
		gauge("voxelsandbox_edits", "Voxels overridden by edits.", st.Edits)
		if st.Index != nil {
			gauge("voxelsandbox_index_queue_depth", "Index writer backlog.", st.Index.QueueDepth)
			fmt.Fprintf(rw, "# HELP voxelsandbox_index_dropped_total Index writes dropped on a full queue.\n")
			fmt.Fprintf(rw, "# TYPE voxelsandbox_index_dropped_total counter\n")
			fmt.Fprintf(rw, "voxelsandbox_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "audit", st.Index.DropAuditTotal)
			fmt.Fprintf(rw, "voxelsandbox_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "chunk", st.Index.DropChunkTotal)
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
