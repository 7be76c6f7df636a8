package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/san-kum/solarsim/internal/sim"
	"github.com/san-kum/solarsim/internal/solar"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

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
	UnitID    string             `json:"unit_id"`
	Preset    string             `json:"preset"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Fields    []solar.Snapshot   `json:"fields"`
	Metrics   map[string]float64 `json:"metrics"`
}

// NewRunID returns a sortable, unique run identifier.
func NewRunID(now time.Time) string {
	return fmt.Sprintf("run_%d_%s", now.Unix(), uuid.NewString()[:8])
}

// Save writes the run's metadata and samples under a fresh run directory.
// meta.ID and meta.Timestamp are filled in when empty.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	if meta.ID == "" {
		meta.ID = NewRunID(now)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = now
	}
	meta.Steps = result.StepsTaken
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	samples := result.Samples
	if samples == nil {
		samples = []solar.Sample{}
	}
	if err := gocsv.MarshalFile(&samples, csvFile); err != nil {
		return "", fmt.Errorf("writing %s: %w", samplesFile, err)
	}

	return meta.ID, nil
}

// List returns all stored runs, oldest first.
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
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]solar.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	samples := []solar.Sample{}
	if err := gocsv.UnmarshalFile(file, &samples); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []solar.Sample{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", samplesFile, err)
	}
	return samples, nil
}
