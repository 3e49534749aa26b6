package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Writer persists experiment records as CSV files under a timestamped
// run directory.
type Writer struct {
	baseDir string
}

// NewWriter creates dir/name/<timestamp>/ and returns a writer rooted
// there.
func NewWriter(dir, name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join(dir, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

// BaseDir returns the run directory records are written into.
func (w *Writer) BaseDir() string {
	return w.baseDir
}

// WriteEpisodeRecords stores one CSV row per episode. Reward columns
// follow the given agent order.
func (w *Writer) WriteEpisodeRecords(records []EpisodeRecord, agents []string) error {
	path := filepath.Join(w.baseDir, "episode_records.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create episode records file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"id", "steps", "terminated", "truncated", "duration"}
	for _, agent := range agents {
		header = append(header, "reward_"+agent)
	}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write episode records header: %w", err)
	}

	for _, record := range records {
		row := []string{
			strconv.Itoa(record.ID),
			strconv.Itoa(record.Steps),
			strconv.FormatBool(record.Terminated),
			strconv.FormatBool(record.Truncated),
			record.Duration.String(),
		}
		for _, agent := range agents {
			row = append(row, strconv.FormatFloat(record.Rewards[agent], 'g', -1, 64))
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write episode record row: %w", err)
		}
	}

	return writer.Error()
}

// WriteMatchConfig stores the experiment setup next to its records.
func (w *Writer) WriteMatchConfig(name string, agents []string, rows, cols, truncation int, seed int64) error {
	path := filepath.Join(w.baseDir, "match_config.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create match config file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"name", "agents", "grid_rows", "grid_cols", "truncation", "seed"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write match config header: %w", err)
	}

	row := []string{
		name,
		strings.Join(agents, " "),
		strconv.Itoa(rows),
		strconv.Itoa(cols),
		strconv.Itoa(truncation),
		strconv.FormatInt(seed, 10),
	}
	err = writer.Write(row)
	if err != nil {
		return fmt.Errorf("failed to write match config row: %w", err)
	}

	return writer.Error()
}
