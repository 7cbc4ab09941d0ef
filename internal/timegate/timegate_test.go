package timegate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provstore/internal/rdf"
)

func TestResolve(t *testing.T) {
	gate, err := New(newTestVersions(t))
	require.NoError(t, err)

	tests := []struct {
		name string
		date time.Time
		want rdf.IRI
	}{
		{"no date gives latest", time.Time{}, v5},
		{"exact first", d1, v1},
		{"exact middle", d3, v3},
		{"exact last", d5, v5},
		{"between versions", d3a, v3},
		{"before first", pre1, v1},
		{"after last", post5, v5},
		{"just after a version", d2.Add(time.Millisecond), v2},
		{"just before a version", d4.Add(-time.Millisecond), v3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gate.Resolve(tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveNeverReturnsNomatch(t *testing.T) {
	gate, err := FromMap(fiveVersions())
	require.NoError(t, err)

	for _, date := range []time.Time{pre1, d1, d2, d3, d3a, d4, d5, post5} {
		got, err := gate.Resolve(date)
		require.NoError(t, err)
		assert.NotEqual(t, nomatch, got)
		assert.Contains(t, []rdf.IRI{v1, v2, v3, v4, v5}, got)
	}
}

func TestNewRejectsEmptyIndex(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = New(&ResourceVersions{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = FromMap(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestResolveUninitialized(t *testing.T) {
	var gate TimeGate
	_, err := gate.Resolve(d1)
	assert.ErrorIs(t, err, ErrNotInitialized)

	var nilGate *TimeGate
	_, err = nilGate.Resolve(d1)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestSetVersionsSwapsIndex(t *testing.T) {
	gate, err := FromMap(fiveVersions())
	require.NoError(t, err)

	other, err := NewResourceVersions(map[time.Time]rdf.IRI{d3a: nomatch})
	require.NoError(t, err)
	require.NoError(t, gate.SetVersions(other))

	got, err := gate.Resolve(d1)
	require.NoError(t, err)
	assert.Equal(t, nomatch, got)

	assert.ErrorIs(t, gate.SetVersions(&ResourceVersions{}), ErrInvalidArgument)
	got, err = gate.Resolve(time.Time{})
	require.NoError(t, err)
	assert.Equal(t, nomatch, got, "a rejected index leaves the gate unchanged")
}
