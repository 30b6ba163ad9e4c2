// Package storage persists tracking runs as plain directories: one
// metadata document plus a flat vertex table per run.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/fibertrack/internal/config"
	"github.com/san-kum/fibertrack/internal/runner"
	"gonum.org/v1/gonum/spatial/r3"
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
	ID           string             `json:"id"`
	Timestamp    time.Time          `json:"timestamp"`
	Properties   *config.Properties `json:"properties"`
	Streamlines  int                `json:"streamlines"`
	SeedFailures int                `json:"seed_failures"`
	Discarded    int                `json:"discarded"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Save writes one run directory with metadata.json and streamlines.csv
// and returns the run ID.
func (s *Store) Save(props *config.Properties, res *runner.Result, metrics map[string]float64) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           runID,
		Timestamp:    time.Now(),
		Properties:   props,
		Streamlines:  len(res.Streamlines),
		SeedFailures: res.SeedFailures,
		Discarded:    res.Discarded,
		Metrics:      metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "streamlines.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()
	if err := w.Write([]string{"streamline", "vertex", "x", "y", "z"}); err != nil {
		return "", err
	}
	for i, sl := range res.Streamlines {
		for j, p := range sl {
			rec := []string{
				strconv.Itoa(i),
				strconv.Itoa(j),
				strconv.FormatFloat(p.X, 'g', -1, 64),
				strconv.FormatFloat(p.Y, 'g', -1, 64),
				strconv.FormatFloat(p.Z, 'g', -1, 64),
			}
			if err := w.Write(rec); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	return runID, w.Error()
}

// List returns the metadata of every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.LoadMetadata(e.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) LoadMetadata(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadStreamlines reads back the vertex table of one run.
func (s *Store) LoadStreamlines(runID string) ([]runner.Streamline, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "streamlines.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	var out []runner.Streamline
	for i, rec := range records {
		if i == 0 || len(rec) < 5 {
			continue
		}
		idx, err := strconv.Atoi(rec[0])
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("storage: bad streamline index %q", rec[0])
		}
		x, err1 := strconv.ParseFloat(rec[2], 64)
		y, err2 := strconv.ParseFloat(rec[3], 64)
		z, err3 := strconv.ParseFloat(rec[4], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("storage: bad vertex on row %d", i)
		}
		for len(out) <= idx {
			out = append(out, nil)
		}
		out[idx] = append(out[idx], r3.Vec{X: x, Y: y, Z: z})
	}
	return out, nil
}
