package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// Struct field order and sorted map keys make the JSON deterministic.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Baseline     string       `json:"baseline"`
	Trace        []TraceEvent `json:"trace"`
}

// MarshalTrace renders a scenario's trace as indented JSON with a trailing
// newline, the golden file format.
func MarshalTrace(scenario *Scenario, result *Result) ([]byte, error) {
	baseline := scenario.Baseline
	if baseline == "" {
		baseline = BaselineKitchenSink
	}
	data, err := json.MarshalIndent(TraceSnapshot{
		ScenarioName: scenario.Name,
		Baseline:     baseline,
		Trace:        result.Trace,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal trace: %w", err)
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario, requires its expect clauses and
// assertions to hold, and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, h *Harness, scenario *Scenario) *Result {
	t.Helper()

	result, err := h.Run(t.Context(), scenario)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}
	if !result.Pass {
		t.Errorf("scenario %s failed:\n%s", scenario.Name, strings.Join(result.Errors, "\n"))
	}
	AssertGolden(t, scenario, result)
	return result
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) {
	t.Helper()

	data, err := MarshalTrace(scenario, result)
	if err != nil {
		t.Fatalf("%v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
}

// GoldenPath returns the golden file used by the CLI for a scenario loaded
// from scenariosDir: <scenariosDir>/golden/<name>.golden.
func GoldenPath(scenariosDir string, scenario *Scenario) string {
	return filepath.Join(scenariosDir, "golden", scenario.Name+".golden")
}

// CompareGolden reports whether the result matches the golden file at
// path. A missing golden file is not a mismatch: ok is true and exists is
// false.
func CompareGolden(path string, scenario *Scenario, result *Result) (ok, exists bool, err error) {
	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return true, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("read golden file: %w", err)
	}
	got, err := MarshalTrace(scenario, result)
	if err != nil {
		return false, true, err
	}
	return string(want) == string(got), true, nil
}

// UpdateGolden writes the result's trace to path, creating directories as
// needed.
func UpdateGolden(path string, scenario *Scenario, result *Result) error {
	data, err := MarshalTrace(scenario, result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}
