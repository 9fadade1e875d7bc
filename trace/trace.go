package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/milk9111/starmaze/grid"
	"github.com/milk9111/starmaze/pursuit"
)

// Entry is one pursuit tick as written to a trace file.
type Entry struct {
	Tick      int    `json:"tick"`
	Agent     [2]int `json:"agent"`
	Target    [2]int `json:"target"`
	Heading   [2]int `json:"heading"`
	Progress  int    `json:"progress"`
	Hidden    bool   `json:"hidden,omitempty"`
	Hasted    bool   `json:"hasted,omitempty"`
	Next      [2]int `json:"next"`
	Goal      [2]int `json:"goal"`
	Status    string `json:"status"`
	Tier      string `json:"tier"`
	Replanned bool   `json:"replanned,omitempty"`
	Escalated bool   `json:"escalated,omitempty"`
	Err       string `json:"err,omitempty"`
}

func pair(c grid.Cell) [2]int { return [2]int{c.X, c.Y} }

func FromTick(tick int, in pursuit.TickInput, res pursuit.TickResult) Entry {
	e := Entry{
		Tick:      tick,
		Agent:     pair(in.Agent),
		Target:    pair(in.Target),
		Heading:   pair(in.Heading),
		Progress:  in.Progress,
		Hidden:    in.Hidden,
		Hasted:    in.Hasted,
		Next:      pair(res.Next),
		Goal:      pair(res.Goal),
		Status:    res.Status.String(),
		Tier:      res.Tier.String(),
		Replanned: res.Replanned,
		Escalated: res.Escalated,
	}
	if res.Err != nil {
		e.Err = res.Err.Error()
	}
	return e
}

// Writer appends zstd-compressed JSONL entries.
type Writer struct {
	mu     sync.Mutex
	closer io.Closer
	enc    *zstd.Encoder
	w      *bufio.Writer
	ticks  int
	errLog sync.Once
}

// Create opens path for writing, creating parent directories.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

func NewWriter(dst io.Writer) (*Writer, error) {
	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	return &Writer{enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

func (w *Writer) Write(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.enc == nil {
		return fmt.Errorf("trace: write after close")
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Observer returns a session observer that numbers ticks from 1 and writes
// each one. Only the first write error is logged.
func (w *Writer) Observer() func(pursuit.TickInput, pursuit.TickResult) {
	return func(in pursuit.TickInput, res pursuit.TickResult) {
		w.mu.Lock()
		w.ticks++
		tick := w.ticks
		w.mu.Unlock()
		if err := w.Write(FromTick(tick, in, res)); err != nil {
			w.errLog.Do(func() { log.Printf("trace: %v", err) })
		}
	}
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.enc == nil {
		return nil
	}
	var first error
	if err := w.w.Flush(); err != nil {
		first = err
	}
	if err := w.enc.Close(); err != nil && first == nil {
		first = err
	}
	w.enc = nil
	if w.closer != nil {
		if err := w.closer.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Read decodes every entry in src in order. Returning an error from fn stops
// the scan.
func Read(src io.Reader, fn func(Entry) error) error {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("trace: line %d: %w", line, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return sc.Err()
}

func ReadFile(path string, fn func(Entry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := Read(f, fn); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
