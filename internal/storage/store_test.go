package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/solarsim/internal/field"
	"github.com/san-kum/solarsim/internal/sim"
	"github.com/san-kum/solarsim/internal/solar"
)

func testResult() *sim.Result {
	a := solar.Sample{Time: 0, TankTemp: 25, WaterTempIn: 25, TankMass: 100, TankCapacity: 798}
	b := solar.Sample{Time: 0.5, TankTemp: 24.5, WaterTempIn: 24.5, TankMass: 100, TankCapacity: 798}
	b.Solar = 1280
	b.Net = 1200
	return &sim.Result{
		Samples:    []solar.Sample{a, b},
		StepsTaken: 1,
		Metrics:    map[string]float64{"peak_tank_temp": 25},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := RunMetadata{
		UnitID:   "unit-1",
		Preset:   "legacy",
		Dt:       0.5,
		Duration: 0.5,
		Fields:   solar.NewState().Fields(),
	}
	runID, err := st.Save(meta, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "run_") {
		t.Errorf("unexpected run id %q", runID)
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Preset != "legacy" || loaded.Steps != 1 {
		t.Errorf("unexpected metadata %+v", loaded)
	}
	if loaded.Metrics["peak_tank_temp"] != 25 {
		t.Errorf("metrics lost: %v", loaded.Metrics)
	}
	if len(loaded.Fields) != int(solar.NumFields) {
		t.Fatalf("expected %d fields, got %d", solar.NumFields, len(loaded.Fields))
	}
	if loaded.Fields[solar.TankAverageTemp].Kind != field.Derived {
		t.Error("field kind not preserved")
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[1].TankTemp != 24.5 || samples[1].Solar != 1280 || samples[1].Net != 1200 {
		t.Errorf("sample not preserved: %+v", samples[1])
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	older := RunMetadata{ID: "run_a", Timestamp: time.Unix(100, 0)}
	newer := RunMetadata{ID: "run_b", Timestamp: time.Unix(200, 0)}
	for _, m := range []RunMetadata{newer, older} {
		if _, err := st.Save(m, testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run_a" {
		t.Errorf("expected runs oldest first, got %+v", runs)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(RunMetadata{}, &sim.Result{})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{metadataFile, samplesFile} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("expected no samples, got %d", len(samples))
	}
}

func TestWriteJSON(t *testing.T) {
	meta := &RunMetadata{ID: "run_x", Dt: 0.5, Steps: 1}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, NewExport(meta, testResult().Samples)); err != nil {
		t.Fatal(err)
	}

	var decoded ExportData
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.ID != "run_x" || len(decoded.Samples) != 2 {
		t.Errorf("unexpected export %+v", decoded)
	}

	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, decoded); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("export file not written")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testResult().Samples); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "time,tank_average_temp,water_temp_in") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[0], "q_net") {
		t.Errorf("header missing heat flows: %q", lines[0])
	}
}
