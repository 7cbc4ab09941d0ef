package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden-file form of a scenario run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Pass         bool         `json:"pass"`
	Trace        []TraceEvent `json:"trace"`
}

// MarshalSnapshot renders the trace of result as indented JSON with a
// trailing newline. Ids bound by the scenario appear as "$name" and the
// rest are minted from a sequence, so the output is the same on every run.
func MarshalSnapshot(s *Scenario, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: s.Name,
		Pass:         result.Pass,
		Trace:        result.Trace,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trace: %w", err)
	}
	return append(data, '\n'), nil
}

// GoldenPath returns the golden file of s: golden/<name>.golden next to
// the scenario file.
func GoldenPath(s *Scenario) string {
	return filepath.Join(s.Dir, "golden", s.Name+".golden")
}

// CompareGolden reports whether the trace of result matches the golden
// file of s. A missing golden file is reported through os.ErrNotExist.
func CompareGolden(s *Scenario, result *Result) (bool, error) {
	want, err := os.ReadFile(GoldenPath(s))
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	got, err := MarshalSnapshot(s, result)
	if err != nil {
		return false, err
	}
	return bytes.Equal(want, got), nil
}

// UpdateGolden writes the trace of result as the golden file of s.
func UpdateGolden(s *Scenario, result *Result) error {
	data, err := MarshalSnapshot(s, result)
	if err != nil {
		return err
	}
	path := GoldenPath(s)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// RunWithGolden executes a scenario and compares its trace against the
// golden file next to the scenario.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot be executed. A trace mismatch
// fails t through goldie.
func RunWithGolden(t *testing.T, s *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(t.Context(), s, opts...)
	if err != nil {
		return nil, err
	}
	data, err := MarshalSnapshot(s, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Join(s.Dir, "golden")),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, data)
	return result, nil
}
