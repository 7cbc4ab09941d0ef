package versioning

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provstore/internal/rdf"
)

func TestAgentVersionsWithDates(t *testing.T) {
	s := createTestService(t)
	ctx := context.Background()

	ev1, err := s.CreateDiSCO(ctx, testDiSCO(disco1, "v1"), req(agentA))
	require.NoError(t, err)
	ev2, err := s.UpdateDiSCO(ctx, disco1, testDiSCO(disco2, "v2"), req(agentA))
	require.NoError(t, err)
	ev3, err := s.UpdateDiSCO(ctx, disco2, testDiSCO(disco3, "v3"), req(agentA))
	require.NoError(t, err)

	// a derivative by another agent is not part of the chain
	_, err = s.UpdateDiSCO(ctx, disco3, testDiSCO(disco4, "fork"), req(agentB))
	require.NoError(t, err)

	for _, id := range []rdf.IRI{disco1, disco2, disco3} {
		versions, err := s.AgentVersionsWithDates(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, map[time.Time]rdf.IRI{
			ev1.Base().EndTime: disco1,
			ev2.Base().EndTime: disco2,
			ev3.Base().EndTime: disco3,
		}, versions)
	}

	all, err := s.AllVersions(ctx, disco2)
	require.NoError(t, err)
	assert.Equal(t, []rdf.IRI{disco1, disco2, disco3, disco4}, all)

	members, err := s.LineageMembers(ctx, disco1)
	require.NoError(t, err)
	require.Len(t, members, 4)
	for i := 1; i < len(members); i++ {
		assert.True(t, members[i-1].Date.Before(members[i].Date), "members must be ordered by date")
	}

	p, err := s.LineageProgenitor(ctx, disco4)
	require.NoError(t, err)
	assert.Equal(t, disco1, p)
}

func TestVersionNavigation_Ends(t *testing.T) {
	s := createTestService(t)
	ctx := context.Background()
	mustCreate(t, s, testDiSCO(disco1, "v1"), agentA)

	prev, err := s.PreviousVersion(ctx, disco1)
	require.NoError(t, err)
	assert.Empty(t, prev)
	next, err := s.NextVersion(ctx, disco1)
	require.NoError(t, err)
	assert.Empty(t, next)
	latest, err := s.LatestVersion(ctx, disco1)
	require.NoError(t, err)
	assert.Equal(t, disco1, latest)
}

func TestVersions_UnknownID(t *testing.T) {
	s := createTestService(t)
	ctx := context.Background()
	missing := rdf.IRI("urn:disco:missing")

	_, err := s.AllVersions(ctx, missing)
	assert.True(t, IsNotFound(err))
	_, err = s.AgentVersions(ctx, missing)
	assert.True(t, IsNotFound(err))
	_, err = s.AgentVersionsWithDates(ctx, missing)
	assert.True(t, IsNotFound(err))
	_, err = s.LatestVersion(ctx, missing)
	assert.True(t, IsNotFound(err))
	_, err = s.NextVersion(ctx, missing)
	assert.True(t, IsNotFound(err))
	_, err = s.LineageProgenitor(ctx, missing)
	assert.True(t, IsNotFound(err))
	_, err = s.LineageProgenitor(ctx, "")
	assert.True(t, IsValidation(err))
}

func TestVersions_DeletedVersionKeepsHistory(t *testing.T) {
	s := createTestService(t)
	ctx := context.Background()
	mustCreate(t, s, testDiSCO(disco1, "v1"), agentA)
	_, err := s.UpdateDiSCO(ctx, disco1, testDiSCO(disco2, "v2"), req(agentA))
	require.NoError(t, err)
	_, err = s.DeleteDiSCO(ctx, disco1, req(admin))
	require.NoError(t, err)

	versions, err := s.AgentVersions(ctx, disco2)
	require.NoError(t, err)
	assert.Equal(t, []rdf.IRI{disco1, disco2}, versions)
}
