package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "https://example.org/agents/alice"
	bob   = "https://example.org/agents/bob"
	res1  = "https://example.org/res1"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// storeEnv is a temporary database plus helpers that run commands
// against it.
type storeEnv struct {
	t   *testing.T
	db  string
	dir string
}

func newStoreEnv(t *testing.T) *storeEnv {
	t.Helper()
	dir := t.TempDir()
	return &storeEnv{t: t, db: filepath.Join(dir, "provstore.db"), dir: dir}
}

func (e *storeEnv) run(args ...string) (string, error) {
	e.t.Helper()
	out, _, err := execute(e.t, append([]string{"--db", e.db}, args...)...)
	return out, err
}

// runJSON runs a command with --format json, requires success and decodes
// the data field into v.
func (e *storeEnv) runJSON(v any, args ...string) {
	e.t.Helper()
	out, err := e.run(append([]string{"--format", "json"}, args...)...)
	require.NoError(e.t, err, out)
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(e.t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(e.t, "ok", resp.Status)
	if v != nil {
		require.NoError(e.t, json.Unmarshal(resp.Data, v))
	}
}

func (e *storeEnv) createAgent(id, name string) {
	e.t.Helper()
	var res eventResult
	e.runJSON(&res, "agent", "create", "--id", id, "--name", name,
		"--idp", "https://idp.example.org/", "--auth-id", id+"#auth")
	require.Equal(e.t, "creation", res.Kind)
}

func (e *storeEnv) writeDoc(name, title string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	doc := fmt.Sprintf(`disco: {
	description: %q
	prefixes: ex: "https://example.org/"
	aggregates: ["ex:res1"]
	statements: [{s: "ex:res1", p: "dc:title", o: {literal: %q}}]
}
`, title, title)
	require.NoError(e.t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func (e *storeEnv) createDiSCO(path, agent string) string {
	e.t.Helper()
	var res eventResult
	e.runJSON(&res, "disco", "create", path, "--agent", agent)
	require.Len(e.t, res.Created, 1)
	return res.Created[0]
}

func TestDiSCOLifecycleCommands(t *testing.T) {
	env := newStoreEnv(t)
	env.createAgent(alice, "Alice")
	env.createAgent(bob, "Bob")

	v1 := env.createDiSCO(env.writeDoc("v1.cue", "First"), alice)

	var updated eventResult
	env.runJSON(&updated, "disco", "update", v1, env.writeDoc("v2.cue", "Second"), "--agent", alice)
	assert.Equal(t, "update", updated.Kind)
	require.Len(t, updated.Created, 1)
	v2 := updated.Created[0]

	// Updating a superseded version reports the latest.
	out, err := env.run("--format", "json", "disco", "update", v1, filepath.Join(env.dir, "v2.cue"), "--agent", alice)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_LATEST", resp.Error.Code)
	assert.Equal(t, map[string]any{"latest": v2}, resp.Error.Details)

	var derived eventResult
	env.runJSON(&derived, "disco", "update", v2, filepath.Join(env.dir, "v1.cue"), "--agent", bob)
	assert.Equal(t, "derivation", derived.Kind)
	assert.Equal(t, v2, derived.Source)
	d1 := derived.Created[0]

	var shown showResult
	env.runJSON(&shown, "disco", "show", v1)
	assert.Equal(t, "INACTIVE", shown.Status)
	assert.Equal(t, alice, shown.Creator)
	assert.Equal(t, "First", shown.Description)
	assert.Equal(t, []string{res1}, shown.Aggregates)
	assert.NotEmpty(t, shown.Digest)
	assert.Len(t, shown.Events, 2)

	var all versionList
	env.runJSON(&all, "disco", "versions", v1)
	assert.Equal(t, versionList{
		{ID: v1, Status: "INACTIVE"},
		{ID: v2, Status: "ACTIVE"},
		{ID: d1, Status: "ACTIVE"},
	}, all)

	var chain versionList
	env.runJSON(&chain, "disco", "versions", v1, "--agent-only")
	assert.Equal(t, versionList{{ID: v1, Status: "INACTIVE"}, {ID: v2, Status: "ACTIVE"}}, chain)

	var related []string
	env.runJSON(&related, "query", "related", res1, "--status", "inactive")
	assert.Equal(t, []string{v1}, related)

	var byAgent []string
	env.runJSON(&byAgent, "query", "agent", bob)
	assert.Equal(t, []string{d1}, byAgent)

	out, err = env.run("--format", "json", "disco", "inactivate", d1, "--agent", alice)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `"UNAUTHORIZED"`)

	var tomb eventResult
	env.runJSON(&tomb, "disco", "tombstone", d1, "--agent", bob)
	assert.Equal(t, "tombstone", tomb.Kind)

	env.runJSON(&shown, "disco", "show", d1)
	assert.Equal(t, "TOMBSTONED", shown.Status)

	env.runJSON(&related, "query", "related", res1)
	assert.ElementsMatch(t, []string{v1, v2}, related)

	out, err = env.run("disco", "delete", d1, "--agent", bob)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Empty(t, out)
}

func TestTimeGateCommand(t *testing.T) {
	env := newStoreEnv(t)
	env.createAgent(alice, "Alice")
	v1 := env.createDiSCO(env.writeDoc("v1.cue", "First"), alice)

	var updated eventResult
	env.runJSON(&updated, "disco", "update", v1, env.writeDoc("v2.cue", "Second"), "--agent", alice)
	v2 := updated.Created[0]

	var latest timeGateResult
	env.runJSON(&latest, "timegate", v1)
	assert.Equal(t, v2, latest.Memento.ID)
	assert.Nil(t, latest.Requested)
	require.NotNil(t, latest.Previous)
	assert.Equal(t, v1, latest.Previous.ID)
	assert.Nil(t, latest.Next)

	var early timeGateResult
	env.runJSON(&early, "timegate", v2, "--at", "2000-01-01T00:00:00Z")
	assert.Equal(t, v1, early.Memento.ID)
	assert.Equal(t, v1, early.First.ID)
	assert.Equal(t, v2, early.Last.ID)
	require.NotNil(t, early.Next)
	assert.Equal(t, v2, early.Next.ID)

	_, err := env.run("timegate", v1, "--at", "last tuesday")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExportCommand(t *testing.T) {
	env := newStoreEnv(t)
	env.createAgent(alice, "Alice")
	v1 := env.createDiSCO(env.writeDoc("v1.cue", "First"), alice)

	out, err := env.run("export", v1, "--as", "nt")
	require.NoError(t, err)
	assert.Contains(t, out, "<"+res1+"> <http://purl.org/dc/elements/1.1/title> \"First\" .")

	out, err = env.run("export", v1, "--as", "turtle")
	require.NoError(t, err)
	assert.Contains(t, out, "@prefix dc: <http://purl.org/dc/elements/1.1/> .")

	path := filepath.Join(env.dir, "out.nq")
	var res exportResult
	env.runJSON(&res, "export", v1, "--as", "nq", "--output", path)
	assert.Equal(t, "application/n-quads", res.MIMEType)
	assert.Equal(t, path, res.File)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<"+v1+"> .")

	_, err = env.run("export", v1, "--as", "rdfxml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAgentCommands(t *testing.T) {
	env := newStoreEnv(t)

	// Without --id the agent gets a minted id and registers itself.
	var created eventResult
	env.runJSON(&created, "agent", "create", "--name", "Carol",
		"--idp", "https://idp.example.org/", "--auth-id", "https://idp.example.org/users/carol")
	require.Len(t, created.Created, 1)
	carol := created.Created[0]
	assert.Equal(t, carol, created.Agent)
	assert.Regexp(t, `^urn:uuid:`, carol)

	var replaced eventResult
	env.runJSON(&replaced, "agent", "update", carol, "--name", "Carol B.")
	assert.Equal(t, "replace", replaced.Kind)

	out, err := env.run("agent", "create", "--name", "Dave")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, out)
}

func TestDiSCOCreateReportsDocumentErrors(t *testing.T) {
	env := newStoreEnv(t)
	bad := filepath.Join(env.dir, "bad.cue")
	require.NoError(t, os.WriteFile(bad, []byte(`disco: description: "no aggregates"`), 0644))

	out, err := env.run("--format", "json", "disco", "create", bad, "--agent", alice)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "1 document error(s)", resp.Error.Message)
}

func TestDiSCOCreateDirectory(t *testing.T) {
	env := newStoreEnv(t)
	env.createAgent(alice, "Alice")
	docs := filepath.Join(env.dir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0755))
	for _, name := range []string{"a.cue", "b.cue"} {
		src := env.writeDoc(name, name)
		require.NoError(t, os.Rename(src, filepath.Join(docs, name)))
	}

	var results []eventResult
	env.runJSON(&results, "disco", "create", docs, "--agent", alice)
	require.Len(t, results, 2)
	assert.Equal(t, "creation", results[0].Kind)
	assert.NotEqual(t, results[0].Created, results[1].Created)
}

func TestConfigFileOverrides(t *testing.T) {
	env := newStoreEnv(t)
	cfg := filepath.Join(env.dir, "provstore.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
store:
  path: `+filepath.Join(env.dir, "from-config.db")+`
ids:
  prefix: "urn:example:"
log:
  level: warn
`), 0644))

	var created eventResult
	_, _, err := execute(t, "--config", cfg, "agent", "create", "--name", "Eve",
		"--idp", "https://idp.example.org/", "--auth-id", "https://idp.example.org/users/eve")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(env.dir, "from-config.db"))

	// --db wins over the file.
	out, _, err := execute(t, "--config", cfg, "--db", env.db, "--format", "json", "agent", "create", "--name", "Frank",
		"--idp", "https://idp.example.org/", "--auth-id", "https://idp.example.org/users/frank")
	require.NoError(t, err)
	var resp struct {
		Data eventResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	created = resp.Data
	assert.Regexp(t, `^urn:example:`, created.Created[0])
	assert.FileExists(t, env.db)

	_, _, err = execute(t, "--config", filepath.Join(env.dir, "missing.yaml"), "disco", "show", "urn:x:1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
