// Package storage persists scenario reports. Each run is a directory under
// the base dir holding metadata.json and one CSV per scenario; a SQLite
// index over those directories backs listing and lookup.
package storage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/scenario"
	"github.com/san-kum/triadsim/internal/triad"
)

var (
	ErrRunNotFound  = errors.New("storage: run not found")
	ErrAmbiguousRun = errors.New("storage: run id prefix is ambiguous")
)

const (
	metadataFile = "metadata.json"
	indexFile    = "index.db"
)

// CSVHeader is the column layout of every scenario file.
var CSVHeader = []string{"time", "x1", "x2", "x3", "d", "coherence", "power"}

type Store struct {
	mu      sync.Mutex
	baseDir string
	db      *sql.DB
}

// Open prepares baseDir and its index, creating both if needed.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(baseDir, indexFile)+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}
	return &Store{baseDir: baseDir, db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Dir() string { return s.baseDir }

type GridInfo struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Samples int     `json:"samples"`
}

type ScenarioSummary struct {
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Power          string             `json:"power"`
	Nudges         []triad.Nudge      `json:"nudges,omitempty"`
	FinalState     []float64          `json:"final_state"`
	FinalCoherence float64            `json:"final_coherence"`
	FinalDwelling  float64            `json:"final_dwelling"`
	FinalPower     float64            `json:"final_power"`
	Late           []float64          `json:"late_average,omitempty"`
	Drift          float64            `json:"drift"`
	Regime         string             `json:"regime"`
	Metrics        map[string]float64 `json:"metrics"`
	Steps          int                `json:"steps"`
	Rejected       int                `json:"rejected"`
}

type FailedScenario struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Timestamp time.Time          `json:"timestamp"`
	Method    string             `json:"method"`
	Tolerance dynamo.Tolerance   `json:"tolerance"`
	Params    map[string]float64 `json:"params"`
	Initial   []float64          `json:"initial"`
	Grid      GridInfo           `json:"grid"`
	Scenarios []ScenarioSummary  `json:"scenarios"`
	Failed    []FailedScenario   `json:"failed,omitempty"`
}

func (m *RunMetadata) Scenario(name string) (*ScenarioSummary, bool) {
	for i := range m.Scenarios {
		if m.Scenarios[i].Name == name {
			return &m.Scenarios[i], true
		}
	}
	return nil, false
}

// Save writes report under a new run id and indexes it.
func (s *Store) Save(ctx context.Context, label string, report *scenario.Report) (string, error) {
	for _, o := range report.Outcomes {
		if err := scenario.CheckName(o.Name()); err != nil {
			return "", err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := newMetadata(runID, label, report)
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	for _, o := range report.Outcomes {
		if err := writeCSV(filepath.Join(runDir, o.Name()+".csv"), o); err != nil {
			return "", fmt.Errorf("scenario %s: %w", o.Name(), err)
		}
	}

	if err := indexRun(ctx, s.db, meta); err != nil {
		return "", err
	}
	return runID, nil
}

func newMetadata(runID, label string, report *scenario.Report) *RunMetadata {
	setup := report.Setup
	meta := &RunMetadata{
		ID:        runID,
		Label:     label,
		Timestamp: time.Now().UTC(),
		Method:    setup.Method,
		Tolerance: setup.Sim.Tolerance,
		Params:    setup.Params.Values(),
		Initial:   setup.Initial.Clone(),
		Scenarios: make([]ScenarioSummary, 0, len(report.Outcomes)),
	}
	if n := len(setup.Times); n > 0 {
		meta.Grid = GridInfo{Start: setup.Times[0], End: setup.Times[n-1], Samples: n}
	}

	for _, o := range report.Outcomes {
		meta.Scenarios = append(meta.Scenarios, ScenarioSummary{
			Name:           o.Name(),
			Description:    o.Scenario.Description,
			Power:          o.Scenario.Mode.String(),
			Nudges:         o.Scenario.Nudges,
			FinalState:     o.Final,
			FinalCoherence: o.Coherence,
			FinalDwelling:  o.Dwelling,
			FinalPower:     o.FinalPower,
			Late:           o.Late,
			Drift:          o.Drift,
			Regime:         o.Regime.String(),
			Metrics:        o.Metrics,
			Steps:          o.Steps,
			Rejected:       o.Rejected,
		})
	}
	for _, f := range report.Failed {
		meta.Failed = append(meta.Failed, FailedScenario{Name: f.Scenario, Error: f.Err.Error()})
	}
	return meta
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

func writeCSV(path string, o *scenario.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		return err
	}
	for i, x := range o.Trajectory.States {
		row := make([]string, 0, len(CSVHeader))
		row = append(row, formatFloat(o.Trajectory.Times[i]))
		for _, v := range x {
			row = append(row, formatFloat(v))
		}
		row = append(row, formatFloat(triad.Coherence(x)))
		p := 0.0
		if i < len(o.Power) {
			p = o.Power[i]
		}
		row = append(row, formatFloat(p))
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

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Load reads the metadata of a run. id may be a unique prefix.
func (s *Store) Load(ctx context.Context, id string) (*RunMetadata, error) {
	runID, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return readMetadata(filepath.Join(s.baseDir, runID, metadataFile))
}

func readMetadata(path string) (*RunMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &meta, nil
}

// Series is one scenario's stored time series.
type Series struct {
	Times  []float64
	States []dynamo.State
	Power  []float64
}

func (s Series) Trajectory() dynamo.Trajectory {
	return dynamo.Trajectory{Times: s.Times, States: s.States}
}

// LoadSeries reads the CSV of one scenario in a run.
func (s *Store) LoadSeries(ctx context.Context, id, scenarioName string) (*Series, error) {
	if err := scenario.CheckName(scenarioName); err != nil {
		return nil, err
	}
	runID, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, scenarioName+".csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no scenario %q in run %s", ErrRunNotFound, scenarioName, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(CSVHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	series := &Series{}
	if len(records) < 2 {
		return series, nil
	}
	series.Times = make([]float64, 0, len(records)-1)
	series.States = make([]dynamo.State, 0, len(records)-1)
	series.Power = make([]float64, 0, len(records)-1)

	for line, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line+2, CSVHeader[j], err)
			}
			vals[j] = v
		}
		series.Times = append(series.Times, vals[0])
		series.States = append(series.States, dynamo.State(vals[1:1+triad.StateDim]))
		series.Power = append(series.Power, vals[len(vals)-1])
	}
	return series, nil
}

// Delete removes a run directory and its index rows.
func (s *Store) Delete(ctx context.Context, id string) error {
	runID, err := s.Resolve(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID); err != nil {
		return fmt.Errorf("failed to unindex run: %w", err)
	}
	return os.RemoveAll(filepath.Join(s.baseDir, runID))
}
