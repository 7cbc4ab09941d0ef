package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a lifecycle test loaded from YAML.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Admin is the administrator agent. It is created with the other
	// setup agents when it is not listed there.
	Admin string `yaml:"admin,omitempty"`

	// Agents are created, each by itself, before the flow runs.
	Agents []AgentSetup `yaml:"agents,omitempty"`

	// Flow holds the lifecycle operations in execution order.
	Flow []Step `yaml:"flow"`

	// Assertions are checked against the store after the flow.
	Assertions []Assertion `yaml:"assertions"`

	// Dir is the directory of the scenario file. Document paths resolve
	// against it.
	Dir string `yaml:"-"`
}

// AgentSetup describes an agent created before the flow.
type AgentSetup struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	IdentityProvider string `yaml:"idp,omitempty"`
	AuthID           string `yaml:"auth_id,omitempty"`
}

// Step is one lifecycle operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// As binds the object the step creates to a name.
	As string `yaml:"as,omitempty"`

	// Agent performs the operation.
	Agent string `yaml:"agent"`

	// Target is the object acted on (update, inactivate, tombstone,
	// delete, update_agent).
	Target string `yaml:"target,omitempty"`

	// Document is a CUE DiSCO document path, relative to the scenario.
	Document string `yaml:"document,omitempty"`

	// DiSCO is an inline CUE DiSCO document, used when Document is empty.
	DiSCO string `yaml:"disco,omitempty"`

	// ID and Name describe the agent for create_agent and update_agent.
	ID   string `yaml:"id,omitempty"`
	Name string `yaml:"name,omitempty"`

	// Expect is the expected outcome. Nil means the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes a step outcome.
type Expect struct {
	// Error is the expected error code (e.g. NOT_LATEST). Empty means
	// success.
	Error string `yaml:"error,omitempty"`

	// Event is the expected event kind on success (e.g. derivation).
	Event string `yaml:"event,omitempty"`

	// Latest is the version a NOT_LATEST error must report.
	Latest string `yaml:"latest,omitempty"`
}

// Step operations.
const (
	OpCreateAgent     = "create_agent"
	OpUpdateAgent     = "update_agent"
	OpCreateDiSCO     = "create_disco"
	OpUpdateDiSCO     = "update_disco"
	OpInactivateDiSCO = "inactivate_disco"
	OpTombstoneDiSCO  = "tombstone_disco"
	OpDeleteDiSCO     = "delete_disco"
)

// Assertion checks the version graph after the flow.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Target is the object the assertion is about.
	Target string `yaml:"target,omitempty"`

	// Resource is the aggregated resource for related.
	Resource string `yaml:"resource,omitempty"`

	// Status filters related (ACTIVE, INACTIVE or ALL).
	Status string `yaml:"status,omitempty"`

	// At is the timegate datetime: RFC 3339, or "$name" for the date of
	// that version. Empty asks for the latest version.
	At string `yaml:"at,omitempty"`

	// Equals is the expected single value. An empty value with a
	// previous or next assertion means "no such version".
	Equals string `yaml:"equals,omitempty"`

	// List is the expected ordered list.
	List []string `yaml:"list,omitempty"`

	// Count is the expected number of events.
	Count *int `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertStatus        = "status"
	AssertType          = "type"
	AssertCreator       = "creator"
	AssertVersions      = "versions"
	AssertAgentVersions = "agent_versions"
	AssertLatest        = "latest"
	AssertPrevious      = "previous"
	AssertNext          = "next"
	AssertTimeGate      = "timegate"
	AssertEventCount    = "event_count"
	AssertRelated       = "related"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.Dir = filepath.Dir(path)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, a := range s.Agents {
		if a.ID == "" || a.Name == "" {
			return fmt.Errorf("agents[%d]: id and name are required", i)
		}
	}

	names := make(map[string]bool)
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if step.As != "" {
			if names[step.As] {
				return fmt.Errorf("flow[%d]: name %q is bound twice", i, step.As)
			}
			names[step.As] = true
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	if step.Agent == "" {
		return fmt.Errorf("agent is required")
	}
	needsTarget := false
	needsDocument := false
	switch step.Op {
	case OpCreateAgent:
		if step.Name == "" {
			return fmt.Errorf("name is required for %s", step.Op)
		}
	case OpUpdateAgent:
		needsTarget = true
		if step.Name == "" {
			return fmt.Errorf("name is required for %s", step.Op)
		}
	case OpCreateDiSCO:
		needsDocument = true
	case OpUpdateDiSCO:
		needsTarget, needsDocument = true, true
	case OpInactivateDiSCO, OpTombstoneDiSCO, OpDeleteDiSCO:
		needsTarget = true
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if needsTarget && step.Target == "" {
		return fmt.Errorf("target is required for %s", step.Op)
	}
	if needsDocument && step.Document == "" && step.DiSCO == "" {
		return fmt.Errorf("document or disco is required for %s", step.Op)
	}
	if step.Expect != nil && step.Expect.Error != "" && step.Expect.Event != "" {
		return fmt.Errorf("expect cannot name both an error and an event")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertStatus, AssertType, AssertCreator, AssertLatest, AssertTimeGate:
		if a.Target == "" || a.Equals == "" {
			return fmt.Errorf("target and equals are required for %s", a.Type)
		}
	case AssertPrevious, AssertNext:
		if a.Target == "" {
			return fmt.Errorf("target is required for %s", a.Type)
		}
	case AssertVersions, AssertAgentVersions:
		if a.Target == "" || a.List == nil {
			return fmt.Errorf("target and list are required for %s", a.Type)
		}
	case AssertEventCount:
		if a.Target == "" || a.Count == nil {
			return fmt.Errorf("target and count are required for %s", a.Type)
		}
	case AssertRelated:
		if a.Resource == "" || a.List == nil {
			return fmt.Errorf("resource and list are required for %s", a.Type)
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
