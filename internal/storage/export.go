package storage

import (
	"context"
	"encoding/json"
	"io"
	"os"
)

type ExportScenario struct {
	ScenarioSummary
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
	Power  []float64   `json:"power"`
}

type ExportData struct {
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Method    string             `json:"method"`
	Params    map[string]float64 `json:"params"`
	Initial   []float64          `json:"initial"`
	Grid      GridInfo           `json:"grid"`
	Scenarios []ExportScenario   `json:"scenarios"`
	Failed    []FailedScenario   `json:"failed,omitempty"`
}

// Export gathers a run's metadata and every scenario series into one
// document.
func (s *Store) Export(ctx context.Context, id string) (*ExportData, error) {
	meta, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	data := &ExportData{
		ID:        meta.ID,
		Label:     meta.Label,
		Method:    meta.Method,
		Params:    meta.Params,
		Initial:   meta.Initial,
		Grid:      meta.Grid,
		Scenarios: make([]ExportScenario, 0, len(meta.Scenarios)),
		Failed:    meta.Failed,
	}
	for _, sc := range meta.Scenarios {
		series, err := s.LoadSeries(ctx, meta.ID, sc.Name)
		if err != nil {
			return nil, err
		}
		states := make([][]float64, len(series.States))
		for i, st := range series.States {
			states[i] = st
		}
		data.Scenarios = append(data.Scenarios, ExportScenario{
			ScenarioSummary: sc,
			Times:           series.Times,
			States:          states,
			Power:           series.Power,
		})
	}
	return data, nil
}

func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSON writes the export document to path, or to stdout when path is
// "-".
func ExportJSON(path string, data *ExportData) error {
	if path == "-" {
		return WriteJSON(os.Stdout, data)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteJSON(file, data); err != nil {
		return err
	}
	return file.Close()
}
