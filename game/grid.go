package game

import (
	"fmt"
	"strings"
)

// CellKind classifies a board cell. Mountains are impassable; cities and
// generals are capturable structures that hold armies.
type CellKind uint8

const (
	Plain CellKind = iota
	Mountain
	City
	General
)

// NeutralOwner marks a cell owned by no agent.
const NeutralOwner = -1

// Position is a board coordinate, row-major from the top-left corner.
type Position struct {
	Row int
	Col int
}

// InvalidGridError reports a malformed grid specification. It is fatal to
// the call that parsed the grid and never leaves partial state behind.
type InvalidGridError struct {
	Reason string
}

func (e InvalidGridError) Error() string {
	return "invalid grid: " + e.Reason
}

// Grid is the static board layout an episode starts from. It never changes
// once parsed; the engine owns all per-turn state.
//
// Text format, one row per line:
//
//	.    passable plain cell
//	#    impassable mountain
//	0-9  neutral city, initial army 40 plus the digit
//	A-Z  general of the agent at that letter's index (A is agent 0)
type Grid struct {
	rows     int
	cols     int
	kinds    [][]CellKind
	armies   [][]int // initial armies: city cost, general 1, otherwise 0
	owners   [][]int // agent index on general cells, NeutralOwner elsewhere
	generals []Position
}

// ParseGrid parses and validates a grid specification. Any malformation
// fails with InvalidGridError: ragged rows, unknown symbols, missing or
// duplicate generals, or generals with no passable path between them.
func ParseGrid(text string) (*Grid, error) {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, line)
	}
	if len(rows) == 0 {
		return nil, InvalidGridError{Reason: "empty specification"}
	}

	g := &Grid{
		rows: len(rows),
		cols: len(rows[0]),
	}
	generals := map[int]Position{}
	g.kinds = make([][]CellKind, g.rows)
	g.armies = make([][]int, g.rows)
	g.owners = make([][]int, g.rows)
	for r, row := range rows {
		if len(row) != g.cols {
			return nil, InvalidGridError{
				Reason: fmt.Sprintf("row %d has %d cells, want %d", r, len(row), g.cols),
			}
		}
		g.kinds[r] = make([]CellKind, g.cols)
		g.armies[r] = make([]int, g.cols)
		g.owners[r] = make([]int, g.cols)
		for c, sym := range []byte(row) {
			g.owners[r][c] = NeutralOwner
			switch {
			case sym == '.':
				g.kinds[r][c] = Plain
			case sym == '#':
				g.kinds[r][c] = Mountain
			case sym >= '0' && sym <= '9':
				g.kinds[r][c] = City
				g.armies[r][c] = 40 + int(sym-'0')
			case sym >= 'A' && sym <= 'Z':
				idx := int(sym - 'A')
				if _, taken := generals[idx]; taken {
					return nil, InvalidGridError{
						Reason: fmt.Sprintf("duplicate general %q", sym),
					}
				}
				generals[idx] = Position{Row: r, Col: c}
				g.kinds[r][c] = General
				g.armies[r][c] = 1
				g.owners[r][c] = idx
			default:
				return nil, InvalidGridError{
					Reason: fmt.Sprintf("unknown symbol %q at row %d col %d", sym, r, c),
				}
			}
		}
	}

	if len(generals) < 2 {
		return nil, InvalidGridError{
			Reason: fmt.Sprintf("found %d generals, want at least 2", len(generals)),
		}
	}
	g.generals = make([]Position, len(generals))
	for idx, pos := range generals {
		if idx >= len(generals) {
			return nil, InvalidGridError{
				Reason: fmt.Sprintf("general letters must be contiguous from A, got %q", byte('A'+idx)),
			}
		}
		g.generals[idx] = pos
	}
	if !g.generalsConnected() {
		return nil, InvalidGridError{Reason: "generals are not mutually reachable"}
	}
	return g, nil
}

// generalsConnected reports whether every general can reach every other
// through passable cells. One flood fill from the first general suffices.
func (g *Grid) generalsConnected() bool {
	seen := make([]bool, g.rows*g.cols)
	start := g.generals[0]
	queue := []Position{start}
	seen[start.Row*g.cols+start.Col] = true
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range []Position{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			r, c := p.Row+d.Row, p.Col+d.Col
			if r < 0 || r >= g.rows || c < 0 || c >= g.cols {
				continue
			}
			if seen[r*g.cols+c] || g.kinds[r][c] == Mountain {
				continue
			}
			seen[r*g.cols+c] = true
			queue = append(queue, Position{Row: r, Col: c})
		}
	}
	for _, p := range g.generals {
		if !seen[p.Row*g.cols+p.Col] {
			return false
		}
	}
	return true
}

// Dimensions returns the board size as (rows, cols).
func (g *Grid) Dimensions() (int, int) {
	return g.rows, g.cols
}

// NumGenerals returns how many agents the board seats.
func (g *Grid) NumGenerals() int {
	return len(g.generals)
}

// Generals returns the general positions indexed by agent order.
func (g *Grid) Generals() []Position {
	out := make([]Position, len(g.generals))
	copy(out, g.generals)
	return out
}

// KindAt returns the cell kind at a position.
func (g *Grid) KindAt(p Position) CellKind {
	return g.kinds[p.Row][p.Col]
}

// String renders the grid back into its canonical text form.
func (g *Grid) String() string {
	var b strings.Builder
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			switch g.kinds[r][c] {
			case Mountain:
				b.WriteByte('#')
			case City:
				b.WriteByte(byte('0' + g.armies[r][c] - 40))
			case General:
				b.WriteByte(byte('A' + g.owners[r][c]))
			default:
				b.WriteByte('.')
			}
		}
		if r < g.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// InitialState builds the turn-0 board snapshot: city armies placed,
// generals owned by their agents with a single army, everything else
// neutral and empty.
func (g *Grid) InitialState() *State {
	s := &State{
		Turn:   0,
		Armies: cloneInts(g.armies),
		Owners: cloneInts(g.owners),
		Kinds:  cloneKinds(g.kinds),
	}
	return s
}
