package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "https://example.org/agents/alice"
	bob   = "https://example.org/agents/bob"
)

const resourceDiSCO = `disco: aggregates: ["https://example.org/res1"]`

func twoAgents() []AgentSetup {
	return []AgentSetup{
		{ID: alice, Name: "Alice"},
		{ID: bob, Name: "Bob"},
	}
}

func TestRun_UpdateChainFixture(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "update-chain.yaml"))
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Trace, 9)
	assert.Equal(t, "derivation", result.Trace[3].Event)
	assert.Equal(t, []string{"$d1"}, result.Trace[3].Created)
	assert.Equal(t, "GONE", result.Trace[8].Error)
}

func TestRun_PureGoDriver(t *testing.T) {
	s := &Scenario{
		Name:        "pure-go",
		Description: "Runs on the pure Go driver",
		Agents:      twoAgents(),
		Flow: []Step{
			{Op: OpCreateDiSCO, As: "v1", Agent: alice, DiSCO: resourceDiSCO},
		},
		Assertions: []Assertion{
			{Type: AssertStatus, Target: "$v1", Equals: "ACTIVE"},
		},
	}

	result, err := Run(context.Background(), s, WithDriver("sqlite"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_UnexpectedErrorFailsResult(t *testing.T) {
	s := &Scenario{
		Name:        "unexpected",
		Description: "Bob cannot inactivate Alice's DiSCO",
		Agents:      twoAgents(),
		Flow: []Step{
			{Op: OpCreateDiSCO, As: "v1", Agent: alice, DiSCO: resourceDiSCO},
			{Op: OpInactivateDiSCO, Agent: bob, Target: "$v1"},
		},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "flow[1] inactivate_disco: unexpected error")
	assert.Equal(t, "UNAUTHORIZED", result.Trace[1].Error)
}

func TestRun_ExpectationMismatch(t *testing.T) {
	s := &Scenario{
		Name:        "mismatch",
		Description: "Expected outcomes that do not happen",
		Agents:      twoAgents(),
		Flow: []Step{
			{Op: OpCreateDiSCO, As: "v1", Agent: alice, DiSCO: resourceDiSCO},
			{Op: OpUpdateDiSCO, As: "v2", Agent: bob, Target: "$v1", DiSCO: resourceDiSCO,
				Expect: &Expect{Event: "update"}},
			{Op: OpInactivateDiSCO, Agent: alice, Target: "$v1",
				Expect: &Expect{Error: "CONFLICT"}},
		},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected update event, got derivation")
	assert.Contains(t, result.Errors[1], "expected CONFLICT error, got inactivation event")
}

func TestRun_AgentOperations(t *testing.T) {
	carol := "https://example.org/agents/carol"
	s := &Scenario{
		Name:        "agents",
		Description: "Agents register and rename other agents",
		Agents:      twoAgents(),
		Flow: []Step{
			{Op: OpCreateAgent, Agent: alice, ID: carol, Name: "Carol"},
			{Op: OpUpdateAgent, Agent: carol, Target: carol, Name: "Carol B.",
				Expect: &Expect{Event: "replace"}},
			{Op: OpUpdateAgent, Agent: bob, Target: carol, Name: "Not Carol",
				Expect: &Expect{Error: "UNAUTHORIZED"}},
			{Op: OpCreateDiSCO, As: "v1", Agent: carol, DiSCO: resourceDiSCO},
		},
		Assertions: []Assertion{
			{Type: AssertType, Target: carol, Equals: "Agent"},
			{Type: AssertCreator, Target: "$v1", Equals: carol},
		},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "creation", result.Trace[0].Event)
	assert.Equal(t, []string{carol}, result.Trace[0].Created)
}

func TestRun_UnknownNameIsExecutionError(t *testing.T) {
	s := &Scenario{
		Name:        "unbound",
		Description: "Refers to a name nothing bound",
		Agents:      twoAgents(),
		Flow: []Step{
			{Op: OpInactivateDiSCO, Agent: alice, Target: "$missing"},
		},
	}

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown name "$missing"`)
}

func TestRun_InvalidDocumentIsExecutionError(t *testing.T) {
	s := &Scenario{
		Name:        "bad-doc",
		Description: "Inline document without aggregates",
		Agents:      twoAgents(),
		Flow: []Step{
			{Op: OpCreateDiSCO, Agent: alice, DiSCO: `disco: description: "empty"`},
		},
	}

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flow[0] create_disco")
}

func TestRun_SetupAgentFailure(t *testing.T) {
	s := &Scenario{
		Name:        "dup-agent",
		Description: "The same agent twice",
		Agents:      []AgentSetup{{ID: alice, Name: "Alice"}, {ID: alice, Name: "Alice again"}},
		Flow:        []Step{{Op: OpCreateDiSCO, Agent: alice, DiSCO: resourceDiSCO}},
	}

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create agents")
}
