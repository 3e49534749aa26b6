package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"conquest/game"
)

// FPS is the fixed frame rate of the human render mode before the speed
// multiplier is applied.
const FPS = 6

// Source is the engine-side view a bridge draws from.
type Source interface {
	State() *game.State
	TurnCount() int
}

// Bridge paces wall-clock stepping for a human observer. Tick draws one
// plain-text frame and blocks only long enough to cap the visible frame
// rate; it performs no simulation logic and never mutates the source.
type Bridge struct {
	src   Source
	frame time.Duration
	last  time.Time
	out   io.Writer
}

// New binds a bridge to an engine view. The frame rate is FPS scaled by
// speedMultiplier; a non-positive multiplier disables throttling.
func New(src Source, speedMultiplier float64, out io.Writer) *Bridge {
	b := &Bridge{src: src, out: out}
	if fps := speedMultiplier * FPS; fps > 0 {
		b.frame = time.Duration(float64(time.Second) / fps)
	}
	return b
}

// Tick renders the current board and sleeps off the rest of the frame
// budget since the previous tick.
func (b *Bridge) Tick() {
	if !b.last.IsZero() {
		if wait := b.frame - time.Since(b.last); wait > 0 {
			time.Sleep(wait)
		}
	}
	b.last = time.Now()
	b.draw()
}

func (b *Bridge) draw() {
	state := b.src.State()
	rows, cols := state.Dimensions()
	var sb strings.Builder
	fmt.Fprintf(&sb, "turn %d\n", b.src.TurnCount())
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			sb.WriteByte(glyph(state, r, c))
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintln(b.out, sb.String())
}

// glyph picks one character per cell: '#' mountain, 'A'.. generals by
// owner, 'C' neutral city, 'a'.. owned ground, '.' neutral ground.
func glyph(s *game.State, r, c int) byte {
	owner := s.Owners[r][c]
	switch s.Kinds[r][c] {
	case game.Mountain:
		return '#'
	case game.General:
		return byte('A' + owner)
	case game.City:
		if owner == game.NeutralOwner {
			return 'C'
		}
		return byte('a' + owner)
	default:
		if owner == game.NeutralOwner {
			return '.'
		}
		return byte('a' + owner)
	}
}
