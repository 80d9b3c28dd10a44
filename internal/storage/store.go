// Package storage records run bookkeeping on disk, one directory per run:
// the settings a layout was settled with and how it cooled. Body positions
// are not kept.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/forcegraph/internal/config"
	"github.com/san-kum/forcegraph/internal/experiment"
)

const (
	metadataFile = "metadata.json"
	historyFile  = "history.csv"
)

var ErrRunNotFound = errors.New("forcegraph: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Dataset   string             `json:"dataset"`
	Preset    string             `json:"preset,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Ticks     int                `json:"ticks"`
	Alpha     float64            `json:"alpha"`
	Settled   bool               `json:"settled"`
	Nodes     int                `json:"nodes"`
	Links     int                `json:"links"`
	Elapsed   time.Duration      `json:"elapsed"`
	Layout    *config.Config     `json:"layout,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

// HistoryRow is one tick of a run's cooling curve.
type HistoryRow struct {
	Tick          int
	Alpha         float64
	KineticEnergy float64
}

// Save writes a run and returns its id.
func (s *Store) Save(dataset string, result *experiment.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d_%s", filepath.Base(dataset), now.Unix(), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Dataset:   dataset,
		Preset:    result.Preset,
		Timestamp: now,
		Seed:      result.Seed,
		Ticks:     result.Ticks,
		Alpha:     result.Final.Alpha,
		Settled:   result.Settled(),
		Nodes:     len(result.Final.Bodies),
		Links:     len(result.Links),
		Elapsed:   result.Elapsed,
		Layout:    result.Layout,
		Metrics:   result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeHistory(filepath.Join(runDir, historyFile), result); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

func writeHistory(path string, result *experiment.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"tick", "alpha", "kinetic_energy"}); err != nil {
		return err
	}
	for i, alpha := range result.Alphas {
		energy := 0.0
		if i < len(result.Energy) {
			energy = result.Energy[i]
		}
		row := []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(alpha, 'g', -1, 64),
			strconv.FormatFloat(energy, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	var meta RunMetadata
	if err := s.readJSON(runID, metadataFile, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadHistory(runID string) ([]HistoryRow, error) {
	file, err := s.open(runID, historyFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 3

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []HistoryRow{}, nil
	}

	rows := make([]HistoryRow, 0, len(records)-1)
	for i, record := range records[1:] {
		tick, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("run %s: history row %d: %w", runID, i+1, err)
		}
		alpha, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("run %s: history row %d: %w", runID, i+1, err)
		}
		energy, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("run %s: history row %d: %w", runID, i+1, err)
		}
		rows = append(rows, HistoryRow{Tick: tick, Alpha: alpha, KineticEnergy: energy})
	}
	return rows, nil
}

func (s *Store) readJSON(runID, name string, v any) error {
	file, err := s.open(runID, name)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := json.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("run %s: %s: %w", runID, name, err)
	}
	return nil
}

func (s *Store) open(runID, name string) (*os.File, error) {
	if runID == "" || runID != filepath.Base(runID) {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	file, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return file, err
}
