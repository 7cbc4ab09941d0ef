package timegate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/provstore/internal/rdf"
)

const (
	v1      rdf.IRI = "a:b"
	v2      rdf.IRI = "b:c"
	v3      rdf.IRI = "c:d"
	v4      rdf.IRI = "d:e"
	v5      rdf.IRI = "e:f"
	nomatch rdf.IRI = "y:z"
)

var (
	d1    = mustDate("2015-09-15 10:20:34")
	d2    = mustDate("2016-01-16 18:10:47")
	d3    = mustDate("2016-02-02 12:20:02")
	d4    = mustDate("2016-05-11 00:20:27")
	d5    = mustDate("2017-01-12 14:20:55")
	d3a   = mustDate("2016-02-12 11:11:11")
	pre1  = mustDate("2015-07-12 13:14:15")
	post5 = mustDate("2017-02-12 04:15:25")
)

func mustDate(s string) time.Time {
	t, err := time.Parse(time.DateTime, s)
	if err != nil {
		panic(err)
	}
	return t
}

func fiveVersions() map[time.Time]rdf.IRI {
	return map[time.Time]rdf.IRI{d1: v1, d2: v2, d3: v3, d4: v4, d5: v5}
}

func newTestVersions(t *testing.T) *ResourceVersions {
	t.Helper()
	rv, err := NewResourceVersions(fiveVersions())
	require.NoError(t, err)
	return rv
}
