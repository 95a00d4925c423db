package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "voxelsandbox.app/internal/persistence/log"
	"voxelsandbox.app/internal/sim/tuning"
	"voxelsandbox.app/internal/sim/voxel"
	"voxelsandbox.app/internal/sim/world"
	"voxelsandbox.app/internal/transport/ws"
)

func main() {
	var (
		addr           = flag.String("addr", ":8080", "http listen address")
		worldID        = flag.String("world", "world_1", "world id")
		seed           = flag.Int64("seed", 0, "terrain seed override for both noise fields (0 keeps tuning)")
		configDir      = flag.String("configs", "./configs", "config directory")
		tuningPath     = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir        = flag.String("data", "./data", "runtime data directory")
		renderDistance = flag.Int("render_distance", 0, "chunk radius clients may request (0 keeps tuning)")
		disableDB      = flag.Bool("disable_db", false, "disable the sqlite audit/chunk index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[sandbox] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.Terrain.Warp.Seed = *seed
		tune.Terrain.Detail.Seed = *seed
	}
	if *renderDistance > 0 {
		tune.RenderDistance = *renderDistance
	}
	if err := tune.Validate(); err != nil {
		logger.Fatalf("tuning: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	w, err := world.New(world.ConfigFromTuning(*worldID, tune), logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	auditLog := persistlog.NewAuditLogger(worldDir)
	chunkLog := persistlog.NewChunkLogger(worldDir)
	defer auditLog.Close()
	defer chunkLog.Close()
	w.AddAuditSink(auditLog)
	w.AddChunkSink(chunkLog)

	idx, err := openRuntimeIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(*worldID, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
		w.AddAuditSink(idx)
		w.AddChunkSink(idx)
	}

	ctx, cancel := signalContext()
	defer cancel()

	spawn := voxel.Vec3i{X: int32(tune.Spawn[0]), Y: int32(tune.Spawn[1]), Z: int32(tune.Spawn[2])}
	if err := w.StreamAround(ctx, spawn, int32(tune.SpawningDistance), int32(tune.VerticalChunkRadius)); err != nil {
		logger.Fatalf("stream spawn chunks: %v", err)
	}

	wsSrv := ws.NewServer(w, tune, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(*worldID, w, wsSrv, idx))
	if envBool("SANDBOX_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()) {
		mux.HandleFunc("/admin/v1/state", stateHandler(*worldID, w, wsSrv, idx))
	} else {
		logger.Printf("admin endpoints disabled (SANDBOX_ENABLE_ADMIN_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (world=%s seed=%d render_distance=%d)", *addr, *worldID, tune.Terrain.Detail.Seed, tune.RenderDistance)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
