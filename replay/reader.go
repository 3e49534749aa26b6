package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"

	"conquest/game"
)

// Replay is one fully loaded recording: the header plus every board
// snapshot in append order (the first is the turn-0 board).
type Replay struct {
	Header Header
	States []*game.State
}

// Len returns the number of recorded snapshots.
func (r *Replay) Len() int {
	return len(r.States)
}

// Load reads a finalized recording back from disk.
func Load(path string) (*Replay, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: open %s: %w", path, err)
	}
	defer file.Close()

	zr, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("replay: zstd reader for %s: %w", path, err)
	}
	defer zr.Close()

	sc := bufio.NewScanner(zr)
	// Snapshot lines grow with the board; give the scanner room.
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("replay: read header of %s: %w", path, err)
		}
		return nil, fmt.Errorf("replay: %s has no header", path)
	}
	rep := &Replay{}
	if err := json.Unmarshal(sc.Bytes(), &rep.Header); err != nil {
		return nil, fmt.Errorf("replay: decode header of %s: %w", path, err)
	}

	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var state game.State
		if err := json.Unmarshal(line, &state); err != nil {
			return nil, fmt.Errorf("replay: decode snapshot %d of %s: %w", len(rep.States), path, err)
		}
		rep.States = append(rep.States, &state)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("replay: read %s: %w", path, err)
	}
	return rep, nil
}
