package game

import "fmt"

// Direction is one of the four cardinal moves an army can make.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Offset returns the row and column delta of one step in this direction.
func (d Direction) Offset() (int, int) {
	switch d {
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	}
	return 0, 1
}

// Action is one agent's command for one turn. Pass skips the turn and makes
// the remaining fields irrelevant; otherwise the army at (Row, Col) moves
// one cell in Direction, leaving half behind when Split is set.
//
// The environment validates only that every active agent submitted an
// action; field ranges and move legality are the engine's concern.
type Action struct {
	Pass      bool      `json:"pass"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Direction Direction `json:"direction"`
	Split     bool      `json:"split"`
}

func (a Action) String() string {
	if a.Pass {
		return "pass"
	}
	s := fmt.Sprintf("move (%d,%d) %s", a.Row, a.Col, a.Direction)
	if a.Split {
		s += " split"
	}
	return s
}
