package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxelsandbox.app/internal/sim/world"
)

// RotatingZstdWriter appends JSON lines to one zstd stream per UTC hour:
// <dir>/<prefix>-YYYY-MM-DD-HH.jsonl.zst. A stream is only a complete zstd
// frame after rotation or Close.
type RotatingZstdWriter struct {
	dir    string
	prefix string
	now    func() time.Time

	mu    sync.Mutex
	hour  string
	lines int
	f     *os.File
	enc   *zstd.Encoder
	buf   *bufio.Writer
}

func NewRotatingZstdWriter(dir, prefix string) *RotatingZstdWriter {
	return &RotatingZstdWriter{dir: dir, prefix: prefix, now: time.Now}
}

// Append encodes v as one line, opening a new hourly file when the hour turns.
func (w *RotatingZstdWriter) Append(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %T: %w", v, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if hour := w.now().UTC().Format("2006-01-02-15"); hour != w.hour {
		if err := w.openLocked(hour); err != nil {
			return err
		}
	}
	line = append(line, '\n')
	if _, err := w.buf.Write(line); err != nil {
		return err
	}
	w.lines++
	return w.buf.Flush()
}

// Lines reports how many lines went to the current file.
func (w *RotatingZstdWriter) Lines() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lines
}

func (w *RotatingZstdWriter) Path(hour string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

func (w *RotatingZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *RotatingZstdWriter) openLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.Path(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f, w.enc = f, enc
	w.buf = bufio.NewWriterSize(enc, 64*1024)
	w.hour = hour
	w.lines = 0
	return nil
}

func (w *RotatingZstdWriter) closeLocked() error {
	var err error
	if w.buf != nil {
		err = w.buf.Flush()
	}
	if w.enc != nil {
		if cerr := w.enc.Close(); err == nil {
			err = cerr
		}
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
	}
	w.f, w.enc, w.buf = nil, nil, nil
	w.hour = ""
	return err
}

// AuditLogger is a world.AuditSink writing <worldDir>/audit/audit-*.jsonl.zst.
type AuditLogger struct{ w *RotatingZstdWriter }

func NewAuditLogger(worldDir string) *AuditLogger {
	return &AuditLogger{w: NewRotatingZstdWriter(filepath.Join(worldDir, "audit"), "audit")}
}

func (l *AuditLogger) WriteAudit(e world.AuditEntry) error { return l.w.Append(e) }
func (l *AuditLogger) Close() error                        { return l.w.Close() }

// ChunkLogger is a world.ChunkSink writing <worldDir>/chunks/chunks-*.jsonl.zst.
type ChunkLogger struct{ w *RotatingZstdWriter }

func NewChunkLogger(worldDir string) *ChunkLogger {
	return &ChunkLogger{w: NewRotatingZstdWriter(filepath.Join(worldDir, "chunks"), "chunks")}
}

func (l *ChunkLogger) WriteChunk(e world.ChunkEntry) error { return l.w.Append(e) }
func (l *ChunkLogger) Close() error                        { return l.w.Close() }
