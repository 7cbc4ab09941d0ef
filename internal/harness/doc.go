// Package harness runs lifecycle scenarios against a fresh store.
//
// A scenario is a YAML file naming a sequence of lifecycle operations
// (create, update, inactivate, tombstone and delete DiSCOs; create and
// update agents) with the outcome each step should have, followed by
// assertions over the resulting version graph:
//
//	name: same-agent-update
//	description: An update by the creator supersedes the old version
//	agents:
//	  - id: urn:test:alice
//	    name: Alice
//	flow:
//	  - op: create_disco
//	    as: v1
//	    agent: urn:test:alice
//	    document: docs/figures.cue
//	  - op: update_disco
//	    as: v2
//	    target: $v1
//	    agent: urn:test:alice
//	    document: docs/figures-v2.cue
//	    expect:
//	      event: update
//	assertions:
//	  - type: status
//	    target: $v1
//	    equals: INACTIVE
//	  - type: versions
//	    target: $v1
//	    list: [$v1, $v2]
//
// "$name" refers to the object created by the step with "as: name". Ids
// and event times come from deterministic suppliers, so the trace of a run
// is stable and can be compared against a golden file.
package harness
