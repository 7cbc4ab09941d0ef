package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/provstore/internal/rdf"
	"github.com/roach88/provstore/internal/timegate"
)

// TimeGateOptions holds flags for the timegate command.
type TimeGateOptions struct {
	*RootOptions
	At string
}

// mementoRef is a version and its date.
type mementoRef struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`
}

// timeGateResult is the resolved version plus its neighbours in the
// same-agent chain.
type timeGateResult struct {
	Requested *time.Time  `json:"requested,omitempty"`
	Memento   mementoRef  `json:"memento"`
	First     mementoRef  `json:"first"`
	Last      mementoRef  `json:"last"`
	Previous  *mementoRef `json:"previous,omitempty"`
	Next      *mementoRef `json:"next,omitempty"`
}

func (r timeGateResult) print(w io.Writer) {
	line := func(label string, m mementoRef) {
		fmt.Fprintf(w, "%-9s %s  %s\n", label, m.Date.Format(time.RFC3339), m.ID)
	}
	line("memento", r.Memento)
	line("first", r.First)
	line("last", r.Last)
	if r.Previous != nil {
		line("previous", *r.Previous)
	}
	if r.Next != nil {
		line("next", *r.Next)
	}
}

// NewTimeGateCommand creates the timegate command.
func NewTimeGateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TimeGateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "timegate <id>",
		Short: "Find the version of a DiSCO current at a point in time",
		Long: `Resolve a datetime against the same-agent version chain of a DiSCO.

An exact version date selects that version; a datetime before the first
version selects the first; otherwise the newest version dated before it is
selected. Without --at the latest version is returned.

Example:
  provstore timegate urn:uuid:0190... --at 2024-05-01T12:00:00Z`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeGate(opts, rdf.IRI(args[0]), cmd)
		},
	}
	cmd.Flags().StringVar(&opts.At, "at", "", "RFC 3339 datetime (default: latest)")
	return cmd
}

func runTimeGate(opts *TimeGateOptions, id rdf.IRI, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)

	var at time.Time
	if opts.At != "" {
		t, err := time.Parse(time.RFC3339, opts.At)
		if err != nil {
			_ = out.Error(ErrCodeBadArg, fmt.Sprintf("invalid --at %q: expected RFC 3339", opts.At), nil)
			return WrapExitError(ExitCommandError, "invalid --at", err)
		}
		at = t
	}

	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	versions, err := s.svc.AgentVersionsWithDates(commandContext(cmd), id)
	if err != nil {
		return out.Fail(fmt.Sprintf("read versions of %s", id), err)
	}
	res, err := resolveMemento(versions, at)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolve version", err)
	}
	return out.Success(res, res.print)
}

func resolveMemento(versions map[time.Time]rdf.IRI, at time.Time) (timeGateResult, error) {
	var res timeGateResult
	rv, err := timegate.NewResourceVersions(versions)
	if err != nil {
		return res, err
	}
	gate, err := timegate.New(rv)
	if err != nil {
		return res, err
	}

	id, err := gate.Resolve(at)
	if err != nil {
		return res, err
	}
	date, err := rv.VersionDate(id)
	if err != nil {
		return res, err
	}
	first, err := rv.First()
	if err != nil {
		return res, err
	}
	last, err := rv.Last()
	if err != nil {
		return res, err
	}

	if !at.IsZero() {
		requested := at.UTC()
		res.Requested = &requested
	}
	res.Memento = mementoRef{ID: string(id), Date: date}
	res.First = mementoRef{ID: string(first.ID), Date: first.Date}
	res.Last = mementoRef{ID: string(last.ID), Date: last.Date}
	if prev, ok, err := rv.Previous(date); err != nil {
		return res, err
	} else if ok {
		res.Previous = &mementoRef{ID: string(prev.ID), Date: prev.Date}
	}
	if next, ok, err := rv.Next(date); err != nil {
		return res, err
	} else if ok {
		res.Next = &mementoRef{ID: string(next.ID), Date: next.Date}
	}
	return res, nil
}
