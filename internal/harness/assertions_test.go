package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

// twoVersions is a flow where alice updates v1 to v2 and bob derives d1
// from v2.
func twoVersions() []Step {
	return []Step{
		{Op: OpCreateDiSCO, As: "v1", Agent: alice, DiSCO: resourceDiSCO},
		{Op: OpUpdateDiSCO, As: "v2", Agent: alice, Target: "$v1", DiSCO: resourceDiSCO},
		{Op: OpUpdateDiSCO, As: "d1", Agent: bob, Target: "$v2", DiSCO: resourceDiSCO},
	}
}

func runAssertions(t *testing.T, assertions ...Assertion) *Result {
	t.Helper()
	s := &Scenario{
		Name:        "assertions",
		Description: "Assertions over a short version chain",
		Agents:      twoAgents(),
		Flow:        twoVersions(),
		Assertions:  assertions,
	}
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	return result
}

func TestAssertions_Pass(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
	}{
		{"status", Assertion{Type: AssertStatus, Target: "$v1", Equals: "INACTIVE"}},
		{"type", Assertion{Type: AssertType, Target: "$d1", Equals: "DiSCO"}},
		{"creator", Assertion{Type: AssertCreator, Target: "$d1", Equals: bob}},
		{"versions", Assertion{Type: AssertVersions, Target: "$v2", List: []string{"$v1", "$v2", "$d1"}}},
		{"agent versions", Assertion{Type: AssertAgentVersions, Target: "$v2", List: []string{"$v1", "$v2"}}},
		{"derived copy has its own chain", Assertion{Type: AssertAgentVersions, Target: "$d1", List: []string{"$d1"}}},
		{"latest", Assertion{Type: AssertLatest, Target: "$v1", Equals: "$v2"}},
		{"previous", Assertion{Type: AssertPrevious, Target: "$v2", Equals: "$v1"}},
		{"no previous", Assertion{Type: AssertPrevious, Target: "$v1"}},
		{"next", Assertion{Type: AssertNext, Target: "$v1", Equals: "$v2"}},
		{"no next", Assertion{Type: AssertNext, Target: "$v2"}},
		{"timegate latest", Assertion{Type: AssertTimeGate, Target: "$v1", Equals: "$v2"}},
		{"timegate exact", Assertion{Type: AssertTimeGate, Target: "$v2", At: "$v1", Equals: "$v1"}},
		{"timegate before first", Assertion{Type: AssertTimeGate, Target: "$v2", At: "1999-12-31T23:59:59Z", Equals: "$v1"}},
		{"event count", Assertion{Type: AssertEventCount, Target: "$v1", Count: intPtr(2)}},
		{"no events", Assertion{Type: AssertEventCount, Target: "https://example.org/none", Count: intPtr(0)}},
		{"related active", Assertion{Type: AssertRelated, Resource: "https://example.org/res1", Status: "active", List: []string{"$d1", "$v2"}}},
		{"related inactive", Assertion{Type: AssertRelated, Resource: "https://example.org/res1", Status: "INACTIVE", List: []string{"$v1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runAssertions(t, tt.assertion)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestAssertions_Fail(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{
			name:      "status",
			assertion: Assertion{Type: AssertStatus, Target: "$v1", Equals: "ACTIVE"},
			wantErr:   `expected status of $v1 to be "ACTIVE", got "INACTIVE"`,
		},
		{
			name:      "latest",
			assertion: Assertion{Type: AssertLatest, Target: "$v1", Equals: "$d1"},
			wantErr:   `expected latest of $v1 to be "$d1", got "$v2"`,
		},
		{
			name:      "versions order",
			assertion: Assertion{Type: AssertVersions, Target: "$v1", List: []string{"$v2", "$v1", "$d1"}},
			wantErr:   "expected [$v2 $v1 $d1], got [$v1 $v2 $d1]",
		},
		{
			name:      "event count",
			assertion: Assertion{Type: AssertEventCount, Target: "$d1", Count: intPtr(2)},
			wantErr:   "expected 2 events for $d1, got 1",
		},
		{
			name:      "timegate",
			assertion: Assertion{Type: AssertTimeGate, Target: "$v1", Equals: "$v1"},
			wantErr:   `expected version at "" to be $v1, got $v2`,
		},
		{
			name:      "related",
			assertion: Assertion{Type: AssertRelated, Resource: "https://example.org/res1", Status: "ACTIVE", List: []string{"$v1"}},
			wantErr:   "expected ACTIVE objects mentioning https://example.org/res1: [$v1]",
		},
		{
			name:      "not found",
			assertion: Assertion{Type: AssertStatus, Target: "https://example.org/none", Equals: "ACTIVE"},
			wantErr:   "NOT_FOUND",
		},
		{
			name:      "bad status filter",
			assertion: Assertion{Type: AssertRelated, Resource: "https://example.org/res1", Status: "LIVE", List: []string{}},
			wantErr:   `unknown status filter "LIVE"`,
		},
		{
			name:      "bad datetime",
			assertion: Assertion{Type: AssertTimeGate, Target: "$v1", At: "yesterday", Equals: "$v1"},
			wantErr:   `invalid datetime "yesterday"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runAssertions(t, tt.assertion)
			assert.False(t, result.Pass)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], "assertions[0] "+tt.assertion.Type)
			assert.Contains(t, result.Errors[0], tt.wantErr)
		})
	}
}

func TestAssertionError_Error(t *testing.T) {
	err := &AssertionError{Type: AssertStatus, Expected: `"ACTIVE"`, Actual: `"DELETED"`}
	assert.Equal(t, `expected "ACTIVE", got "DELETED"`, err.Error())
}
