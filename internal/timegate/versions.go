package timegate

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/roach88/provstore/internal/rdf"
)

var (
	// ErrNotInitialized is returned by navigation on an index with no
	// versions.
	ErrNotInitialized = errors.New("version index not initialized")

	// ErrInvalidArgument is returned when a version map is missing, empty
	// or malformed.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Version is one entry of the index.
type Version struct {
	Date time.Time
	ID   rdf.IRI
}

// ResourceVersions is an ordered date to version index.
//
// Query dates are compared as instants. A zero time.Time plays the role of
// an absent date: lookups with it return zero values and false, never an
// error. Only an uninitialized index is an error.
type ResourceVersions struct {
	entries []Version
}

// NewResourceVersions builds an index from versions.
func NewResourceVersions(versions map[time.Time]rdf.IRI) (*ResourceVersions, error) {
	rv := &ResourceVersions{}
	if err := rv.SetVersions(versions); err != nil {
		return nil, err
	}
	return rv, nil
}

// SetVersions replaces the index contents. The map must hold at least one
// entry; dates must be non-zero and distinct as instants, ids non-empty.
func (rv *ResourceVersions) SetVersions(versions map[time.Time]rdf.IRI) error {
	if len(versions) == 0 {
		return fmt.Errorf("%w: version map is empty", ErrInvalidArgument)
	}
	entries := make([]Version, 0, len(versions))
	for date, id := range versions {
		if date.IsZero() {
			return fmt.Errorf("%w: zero version date", ErrInvalidArgument)
		}
		if id.IsZero() {
			return fmt.Errorf("%w: empty version id at %s", ErrInvalidArgument, date.UTC().Format(time.RFC3339))
		}
		entries = append(entries, Version{Date: date.UTC(), ID: id})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	for i := 1; i < len(entries); i++ {
		if entries[i].Date.Equal(entries[i-1].Date) {
			return fmt.Errorf("%w: duplicate version date %s", ErrInvalidArgument, entries[i].Date.Format(time.RFC3339Nano))
		}
	}
	rv.entries = entries
	return nil
}

// Size returns the number of versions. It is 0 for an uninitialized index.
func (rv *ResourceVersions) Size() int {
	if rv == nil {
		return 0
	}
	return len(rv.entries)
}

func (rv *ResourceVersions) check() error {
	if rv.Size() == 0 {
		return ErrNotInitialized
	}
	return nil
}

// Versions returns a copy of the entries, oldest first.
func (rv *ResourceVersions) Versions() ([]Version, error) {
	if err := rv.check(); err != nil {
		return nil, err
	}
	return append([]Version(nil), rv.entries...), nil
}

// Dates returns the version dates, oldest first.
func (rv *ResourceVersions) Dates() ([]time.Time, error) {
	if err := rv.check(); err != nil {
		return nil, err
	}
	out := make([]time.Time, len(rv.entries))
	for i, e := range rv.entries {
		out[i] = e.Date
	}
	return out, nil
}

// First returns the oldest version.
func (rv *ResourceVersions) First() (Version, error) {
	if err := rv.check(); err != nil {
		return Version{}, err
	}
	return rv.entries[0], nil
}

// Last returns the newest version.
func (rv *ResourceVersions) Last() (Version, error) {
	if err := rv.check(); err != nil {
		return Version{}, err
	}
	return rv.entries[len(rv.entries)-1], nil
}

// VersionIRI returns the version stored at exactly date, or "".
func (rv *ResourceVersions) VersionIRI(date time.Time) (rdf.IRI, error) {
	if err := rv.check(); err != nil {
		return "", err
	}
	if date.IsZero() {
		return "", nil
	}
	if i := rv.search(date); i < len(rv.entries) && rv.entries[i].Date.Equal(date) {
		return rv.entries[i].ID, nil
	}
	return "", nil
}

// VersionDate returns the date of version id, or the zero time.
func (rv *ResourceVersions) VersionDate(id rdf.IRI) (time.Time, error) {
	if err := rv.check(); err != nil {
		return time.Time{}, err
	}
	for _, e := range rv.entries {
		if e.ID == id && !id.IsZero() {
			return e.Date, nil
		}
	}
	return time.Time{}, nil
}

// Next returns the first version strictly after date.
func (rv *ResourceVersions) Next(date time.Time) (Version, bool, error) {
	if err := rv.check(); err != nil {
		return Version{}, false, err
	}
	i, ok := rv.next(date)
	if !ok {
		return Version{}, false, nil
	}
	return rv.entries[i], true, nil
}

// Previous returns the last version strictly before date.
func (rv *ResourceVersions) Previous(date time.Time) (Version, bool, error) {
	if err := rv.check(); err != nil {
		return Version{}, false, err
	}
	i, ok := rv.previous(date)
	if !ok {
		return Version{}, false, nil
	}
	return rv.entries[i], true, nil
}

// HasNext reports whether a version exists strictly after date.
func (rv *ResourceVersions) HasNext(date time.Time) (bool, error) {
	_, ok, err := rv.Next(date)
	return ok, err
}

// HasPrevious reports whether a version exists strictly before date.
func (rv *ResourceVersions) HasPrevious(date time.Time) (bool, error) {
	_, ok, err := rv.Previous(date)
	return ok, err
}

// NextIsLast reports whether the version after date is the newest one.
func (rv *ResourceVersions) NextIsLast(date time.Time) (bool, error) {
	if err := rv.check(); err != nil {
		return false, err
	}
	i, ok := rv.next(date)
	return ok && i == len(rv.entries)-1, nil
}

// PreviousIsFirst reports whether the version before date is the oldest
// one.
func (rv *ResourceVersions) PreviousIsFirst(date time.Time) (bool, error) {
	if err := rv.check(); err != nil {
		return false, err
	}
	i, ok := rv.previous(date)
	return ok && i == 0, nil
}

// search returns the index of the first entry not before date.
func (rv *ResourceVersions) search(date time.Time) int {
	return sort.Search(len(rv.entries), func(i int) bool {
		return !rv.entries[i].Date.Before(date)
	})
}

func (rv *ResourceVersions) next(date time.Time) (int, bool) {
	if date.IsZero() {
		return 0, false
	}
	i := sort.Search(len(rv.entries), func(i int) bool {
		return rv.entries[i].Date.After(date)
	})
	return i, i < len(rv.entries)
}

func (rv *ResourceVersions) previous(date time.Time) (int, bool) {
	if date.IsZero() {
		return 0, false
	}
	i := rv.search(date) - 1
	return i, i >= 0
}
