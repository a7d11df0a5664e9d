package simlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"ironveld.gg/internal/sim/match"
)

// Writer appends one JSON line per tick to a zstd-compressed log file.
// It implements match.TickLogger.
type Writer struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) WriteTick(entry match.TickLogEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		if err := w.openLocked(); err != nil {
			return err
		}
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	var firstErr error
	if err := w.w.Flush(); err != nil {
		firstErr = err
	}
	if err := w.enc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	w.f = nil
	w.enc = nil
	w.w = nil
	return firstErr
}

// ReadAll decodes every tick entry from a log file in order.
func ReadAll(path string) ([]match.TickLogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var entries []match.TickLogEntry
	br := bufio.NewReaderSize(dec, 64*1024)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 1 {
			var entry match.TickLogEntry
			if jerr := json.Unmarshal(line, &entry); jerr != nil {
				return entries, fmt.Errorf("tick log line %d: %w", len(entries)+1, jerr)
			}
			entries = append(entries, entry)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return entries, nil
			}
			return entries, err
		}
	}
}
