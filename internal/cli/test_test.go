package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureScenarios = filepath.Join("..", "harness", "testdata", "scenarios")

const passingScenario = `name: single-create
description: Alice creates one DiSCO
agents:
  - id: https://example.org/agents/alice
    name: Alice
flow:
  - op: create_disco
    as: v1
    agent: https://example.org/agents/alice
    disco: 'disco: aggregates: ["https://example.org/res1"]'
    expect:
      event: creation
assertions:
  - type: status
    target: $v1
    equals: ACTIVE
`

const failingScenario = `name: wrong-status
description: Asserts the wrong status
agents:
  - id: https://example.org/agents/alice
    name: Alice
flow:
  - op: create_disco
    as: v1
    agent: https://example.org/agents/alice
    disco: 'disco: aggregates: ["https://example.org/res1"]'
assertions:
  - type: status
    target: $v1
    equals: INACTIVE
`

func writeScenarios(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func TestTestCommand_RequiresDirectory(t *testing.T) {
	_, _, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestTestCommand_MissingDirectory(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommand_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	out, _, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")

	out, _, err = execute(t, "--format", "json", "test", dir)
	require.NoError(t, err)
	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Data.Scenarios)
	assert.Zero(t, resp.Data.Total)
}

func TestTestCommand_Fixtures(t *testing.T) {
	out, _, err := execute(t, "test", fixtureScenarios)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ update-chain")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommand_PassAndFail(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"single-create.yaml": passingScenario,
		"wrong-status.yaml":  failingScenario,
	})

	out, _, err := execute(t, "--format", "json", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)

	byName := map[string]ScenarioResult{}
	for _, s := range resp.Data.Scenarios {
		byName[s.Name] = s
	}
	assert.True(t, byName["single-create"].Pass)
	require.Len(t, byName["wrong-status"].Errors, 1)
	assert.Contains(t, byName["wrong-status"].Errors[0], `expected status of $v1 to be "INACTIVE"`)
}

func TestTestCommand_Filter(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"single-create.yaml": passingScenario,
		"wrong-status.yaml":  failingScenario,
	})

	out, _, err := execute(t, "test", dir, "--filter", "single-*")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_UpdateWritesGolden(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"single-create.yaml": passingScenario})
	golden := filepath.Join(dir, "golden", "single-create.golden")

	out, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "(golden updated)")
	require.FileExists(t, golden)

	// The trace now has to match.
	_, _, err = execute(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0644))
	out, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_UpdateFixtureCopy(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scenarios")
	require.NoError(t, os.CopyFS(dir, os.DirFS(fixtureScenarios)))
	want, err := os.ReadFile(filepath.Join(dir, "golden", "update-chain.golden"))
	require.NoError(t, err)

	_, _, err = execute(t, "test", dir, "--update")
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "golden", "update-chain.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestFindScenarioFiles(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"a.yaml":          passingScenario,
		"nested/b.yml":    passingScenario,
		"golden/c.yaml":   passingScenario,
		"notes.txt":       "not a scenario",
		"docs/d.cue":      `disco: aggregates: ["https://example.org/res1"]`,
		"nested/skip.yml": passingScenario,
	})

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "nested", "b.yml"),
		filepath.Join(dir, "nested", "skip.yml"),
	}, files)

	files, err = findScenarioFiles(dir, "[ab]")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = findScenarioFiles(dir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}
