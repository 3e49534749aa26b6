// Package replay persists finished episodes as zstd-compressed JSONL
// files: one header line describing the board and agents, then one line
// per recorded board snapshot.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"conquest/game"
)

// Suffix is the file extension of recorded episodes.
const Suffix = ".replay.zst"

// Header is the first record of every replay file.
type Header struct {
	ID      string           `json:"id"`
	Created time.Time        `json:"created"`
	Grid    string           `json:"grid"`
	Agents  []game.AgentData `json:"agents"`
}

// Writer streams one episode to disk. Finalize keeps the file; Close
// before Finalize abandons the recording and removes the partial file.
type Writer struct {
	path string
	file *os.File
	zw   *zstd.Encoder
	buf  *bufio.Writer
	done bool
}

// Create opens a new recording under name, appending Suffix when missing,
// and writes the header line.
func Create(name string, grid *game.Grid, agents []game.AgentData) (*Writer, error) {
	path := name
	if !strings.HasSuffix(path, Suffix) {
		path += Suffix
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("replay: create %s: %w", dir, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("replay: create %s: %w", path, err)
	}
	zw, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("replay: zstd writer: %w", err)
	}
	w := &Writer{
		path: path,
		file: file,
		zw:   zw,
		buf:  bufio.NewWriterSize(zw, 128*1024),
	}
	header := Header{
		ID:      uuid.NewString(),
		Created: time.Now().UTC(),
		Grid:    grid.String(),
		Agents:  agents,
	}
	if err := w.writeLine(header); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// Path returns the on-disk location of the recording.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one board snapshot. The caller hands over an independent
// copy; the writer serializes it immediately.
func (w *Writer) Append(state *game.State) error {
	if w.done {
		return fmt.Errorf("replay: append to closed recording %s", w.path)
	}
	return w.writeLine(state)
}

// Finalize flushes everything and keeps the file.
func (w *Writer) Finalize() error {
	if w.done {
		return fmt.Errorf("replay: finalize closed recording %s", w.path)
	}
	w.done = true
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("replay: flush %s: %w", w.path, err)
	}
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("replay: close compressor for %s: %w", w.path, err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("replay: close %s: %w", w.path, err)
	}
	return nil
}

// Close abandons a recording that was never finalized, removing the
// partial file. After Finalize it does nothing.
func (w *Writer) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	w.zw.Close()
	w.file.Close()
	if err := os.Remove(w.path); err != nil {
		return fmt.Errorf("replay: remove partial %s: %w", w.path, err)
	}
	return nil
}

func (w *Writer) writeLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("replay: marshal: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.buf.Write(data); err != nil {
		return fmt.Errorf("replay: write %s: %w", w.path, err)
	}
	return nil
}
