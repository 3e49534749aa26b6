package game

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/rand"
)

// generateAttempts bounds how many boards Generate rolls before giving up
// on a configuration that keeps producing disconnected generals.
const generateAttempts = 100

// Factory produces random grids. Densities are per-cell probabilities;
// general positions are drawn uniformly and rerolled until every general
// can reach every other.
//
// With padding enabled, every generated grid is extended with mountains on
// the right and bottom up to the maximum dimensions, so observation shapes
// stay constant across episodes.
type Factory struct {
	rows            int
	cols            int
	maxRows         int
	maxCols         int
	mountainDensity float64
	cityDensity     float64
	generals        int
	padding         bool
	rng             *rand.Rand
}

type FactoryOption func(*Factory)

// WithDimensions sets the generated board size. Default 15x15.
func WithDimensions(rows, cols int) FactoryOption {
	return func(f *Factory) {
		f.rows, f.cols = rows, cols
	}
}

// WithMountainDensity sets the per-cell mountain probability. Default 0.2.
func WithMountainDensity(p float64) FactoryOption {
	return func(f *Factory) {
		f.mountainDensity = p
	}
}

// WithCityDensity sets the per-cell city probability. Default 0.05.
func WithCityDensity(p float64) FactoryOption {
	return func(f *Factory) {
		f.cityDensity = p
	}
}

// WithGenerals sets how many generals to place. Default 2.
func WithGenerals(n int) FactoryOption {
	return func(f *Factory) {
		f.generals = n
	}
}

// WithPadding pads every generated grid with mountains to the given
// maximum dimensions.
func WithPadding(maxRows, maxCols int) FactoryOption {
	return func(f *Factory) {
		f.padding = true
		f.maxRows, f.maxCols = maxRows, maxCols
	}
}

// WithSeed fixes the random source so the factory generates the same
// sequence of grids every run.
func WithSeed(seed uint64) FactoryOption {
	return func(f *Factory) {
		f.rng = rand.New(rand.NewSource(seed))
	}
}

// NewFactory builds a grid factory. Without WithSeed or a later
// SetRandomSource call the factory seeds itself from the clock.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		rows:            15,
		cols:            15,
		mountainDensity: 0.2,
		cityDensity:     0.05,
		generals:        2,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.rng == nil {
		f.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	// Padding never shrinks a board.
	if f.maxRows < f.rows {
		f.maxRows = f.rows
	}
	if f.maxCols < f.cols {
		f.maxCols = f.cols
	}
	return f
}

// SetRandomSource replaces the factory's random source. The environment
// calls this on every seeded reset so episodes are reproducible.
func (f *Factory) SetRandomSource(rng *rand.Rand) {
	f.rng = rng
}

// GridDimensions returns the configured board size before padding.
func (f *Factory) GridDimensions() (int, int) {
	return f.rows, f.cols
}

// MaxGridDimensions returns the board size after padding. Without padding
// it equals GridDimensions.
func (f *Factory) MaxGridDimensions() (int, int) {
	return f.maxRows, f.maxCols
}

// PaddingEnabled reports whether generated grids are padded to the
// maximum dimensions.
func (f *Factory) PaddingEnabled() bool {
	return f.padding
}

// Generate rolls boards until one passes validation and returns it. It
// fails when the configuration cannot seat its generals or keeps the
// generals disconnected for every attempt.
func (f *Factory) Generate() (*Grid, error) {
	if f.generals < 2 {
		return nil, fmt.Errorf("generate grid: need at least 2 generals, have %d", f.generals)
	}
	if f.generals > 26 {
		return nil, fmt.Errorf("generate grid: at most 26 generals, have %d", f.generals)
	}
	if f.generals > f.rows*f.cols {
		return nil, fmt.Errorf("generate grid: %d generals do not fit on a %dx%d board",
			f.generals, f.rows, f.cols)
	}
	var lastErr error
	for attempt := 0; attempt < generateAttempts; attempt++ {
		grid, err := ParseGrid(f.roll())
		if err != nil {
			lastErr = err
			continue
		}
		return grid, nil
	}
	return nil, fmt.Errorf("generate grid: no valid board in %d attempts: %w",
		generateAttempts, lastErr)
}

// roll produces one candidate board as text, padded when configured.
func (f *Factory) roll() string {
	cells := make([][]byte, f.rows)
	for r := range cells {
		cells[r] = make([]byte, f.cols)
		for c := range cells[r] {
			roll := f.rng.Float64()
			switch {
			case roll < f.mountainDensity:
				cells[r][c] = '#'
			case roll < f.mountainDensity+f.cityDensity:
				cells[r][c] = byte('0' + f.rng.Intn(10))
			default:
				cells[r][c] = '.'
			}
		}
	}
	taken := map[Position]bool{}
	for i := 0; i < f.generals; i++ {
		for {
			p := Position{Row: f.rng.Intn(f.rows), Col: f.rng.Intn(f.cols)}
			if taken[p] {
				continue
			}
			taken[p] = true
			cells[p.Row][p.Col] = byte('A' + i)
			break
		}
	}

	rows := make([]string, 0, f.maxRows)
	for _, row := range cells {
		line := string(row)
		if f.padding && f.maxCols > f.cols {
			line += strings.Repeat("#", f.maxCols-f.cols)
		}
		rows = append(rows, line)
	}
	if f.padding {
		for len(rows) < f.maxRows {
			rows = append(rows, strings.Repeat("#", f.maxCols))
		}
	}
	return strings.Join(rows, "\n")
}
