package storage

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/fibertrack/internal/config"
	"github.com/san-kum/fibertrack/internal/runner"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	res := &runner.Result{
		Streamlines: []runner.Streamline{
			{{X: 0, Y: 0, Z: 0}, {X: 0.5, Y: 0, Z: 0.25}},
			{{X: 1, Y: 2, Z: 3}, {X: 1, Y: 2.5, Z: 3}, {X: 1, Y: 3, Z: 3.5}},
		},
		Attempts:     3,
		SeedFailures: 1,
	}
	metrics := map[string]float64{"mean_length": 0.75}

	runID, err := st.Save(config.Default(), res, metrics)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	meta, err := st.LoadMetadata(runID)
	if err != nil {
		t.Fatalf("load metadata failed: %v", err)
	}
	if meta.Streamlines != 2 || meta.SeedFailures != 1 {
		t.Errorf("metadata counts = %d/%d, want 2/1", meta.Streamlines, meta.SeedFailures)
	}
	if meta.Metrics["mean_length"] != 0.75 {
		t.Errorf("metrics round trip lost mean_length: %v", meta.Metrics)
	}
	if meta.Properties.StepSize != config.Default().StepSize {
		t.Errorf("properties round trip lost step size: %v", meta.Properties)
	}

	lines, err := st.LoadStreamlines(runID)
	if err != nil {
		t.Fatalf("load streamlines failed: %v", err)
	}
	if diff := cmp.Diff(res.Streamlines, lines); diff != "" {
		t.Errorf("streamlines round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestListOrdersRuns(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	res := &runner.Result{Streamlines: []runner.Streamline{{{X: 1}}}}
	first, err := st.Save(config.Default(), res, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := st.Save(config.Default(), res, nil)
	if err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("runs out of order: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestListEmptyStore(t *testing.T) {
	st := New(t.TempDir() + "/missing")
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list on missing dir: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}
