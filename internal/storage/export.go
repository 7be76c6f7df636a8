package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/solarsim/internal/solar"
)

type ExportData struct {
	ID       string             `json:"id"`
	UnitID   string             `json:"unit_id"`
	Preset   string             `json:"preset"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	Fields   []solar.Snapshot   `json:"fields"`
	Samples  []solar.Sample     `json:"samples"`
	Metrics  map[string]float64 `json:"metrics"`
}

func NewExport(meta *RunMetadata, samples []solar.Sample) ExportData {
	return ExportData{
		ID:       meta.ID,
		UnitID:   meta.UnitID,
		Preset:   meta.Preset,
		Dt:       meta.Dt,
		Duration: meta.Duration,
		Steps:    meta.Steps,
		Fields:   meta.Fields,
		Samples:  samples,
		Metrics:  meta.Metrics,
	}
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

func ExportJSONStdout(data ExportData) error {
	return WriteJSON(os.Stdout, data)
}

// WriteCSV writes samples with a header row, one row per tick.
func WriteCSV(w io.Writer, samples []solar.Sample) error {
	if samples == nil {
		samples = []solar.Sample{}
	}
	return gocsv.Marshal(&samples, w)
}
