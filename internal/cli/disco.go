package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/provstore/internal/event"
	"github.com/roach88/provstore/internal/rdf"
	"github.com/roach88/provstore/internal/versioning"
)

// DiSCOOptions holds flags for the disco commands.
type DiSCOOptions struct {
	*RootOptions
	Agent       string
	Description string
	AgentOnly   bool
}

// NewDiSCOCommand creates the disco command group.
func NewDiSCOCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disco",
		Short: "Create, version and inspect DiSCOs",
	}
	cmd.AddCommand(newDiSCOCreateCommand(rootOpts))
	cmd.AddCommand(newDiSCOUpdateCommand(rootOpts))
	for _, t := range transitions {
		cmd.AddCommand(newDiSCOTransitionCommand(rootOpts, t))
	}
	cmd.AddCommand(newDiSCOShowCommand(rootOpts))
	cmd.AddCommand(newDiSCOVersionsCommand(rootOpts))
	return cmd
}

func addRequestFlags(cmd *cobra.Command, opts *DiSCOOptions) {
	cmd.Flags().StringVar(&opts.Agent, "agent", "", "requesting agent IRI (required)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description recorded on the event")
	_ = cmd.MarkFlagRequired("agent")
}

func (o *DiSCOOptions) request() versioning.Request {
	req := versioning.Request{Agent: rdf.IRI(o.Agent)}
	if o.Description != "" {
		req.Description = rdf.NewLiteral(o.Description)
	}
	return req
}

func newDiSCOCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiSCOOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <file.cue|dir>",
		Short: "Create DiSCOs from CUE documents",
		Long: `Create a DiSCO from a CUE document. Given a directory, every .cue file
below it becomes a DiSCO. All documents are checked before any is stored.

Example:
  provstore disco create figures.cue --agent https://example.org/agents/alice
  provstore disco create ./discos --agent https://example.org/agents/alice --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiSCOCreate(opts, args[0], cmd)
		},
	}
	addRequestFlags(cmd, opts)
	return cmd
}

func runDiSCOCreate(opts *DiSCOOptions, path string, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)

	docs, errs := LoadDocuments(path)
	if len(errs) > 0 {
		return reportLoadErrors(out, errs)
	}

	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := commandContext(cmd)

	results := make(eventResults, 0, len(docs))
	for _, doc := range docs {
		out.VerboseLog("creating DiSCO from %s", doc.Path)
		ev, err := s.svc.CreateDiSCO(ctx, doc.DiSCO, opts.request())
		if err != nil {
			return out.Fail(fmt.Sprintf("create disco from %s", doc.Path), err)
		}
		results = append(results, newEventResult(ev))
	}
	if len(results) == 1 {
		return out.Success(results[0], results[0].print)
	}
	return out.Success(results, results.print)
}

func newDiSCOUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiSCOOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <old-id> <file.cue>",
		Short: "Store a new version of a DiSCO",
		Long: `Store the document as a new version of old-id.

When the requesting agent created old-id the old version becomes INACTIVE
(update event). Any other agent derives a copy and old-id stays ACTIVE
(derivation event). old-id must be the latest ACTIVE version of its chain;
otherwise the command fails with NOT_LATEST and reports the latest version.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiSCOUpdate(opts, args[0], args[1], cmd)
		},
	}
	addRequestFlags(cmd, opts)
	return cmd
}

func runDiSCOUpdate(opts *DiSCOOptions, oldID, path string, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)

	docs, errs := LoadDocuments(path)
	if len(errs) > 0 {
		return reportLoadErrors(out, errs)
	}
	if len(docs) != 1 {
		_ = out.Error(ErrCodeBadArg, fmt.Sprintf("update takes one document, %s has %d", path, len(docs)), nil)
		return NewExitError(ExitCommandError, "update takes one document")
	}

	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	ev, err := s.svc.UpdateDiSCO(commandContext(cmd), rdf.IRI(oldID), docs[0].DiSCO, opts.request())
	if err != nil {
		return out.Fail(fmt.Sprintf("update disco %s", oldID), err)
	}
	res := newEventResult(ev)
	return out.Success(res, res.print)
}

// transition is a single-object lifecycle change.
type transition struct {
	name  string
	short string
	apply func(svc *versioning.Service, ctx context.Context, id rdf.IRI, req versioning.Request) (event.Event, error)
}

var transitions = []transition{
	{"inactivate", "Mark a DiSCO INACTIVE (creator only)", (*versioning.Service).InactivateDiSCO},
	{"tombstone", "Hide a DiSCO from every query (creator or admin)", (*versioning.Service).TombstoneDiSCO},
	{"delete", "Remove a DiSCO's statements (creator or admin)", (*versioning.Service).DeleteDiSCO},
}

func newDiSCOTransitionCommand(rootOpts *RootOptions, t transition) *cobra.Command {
	opts := &DiSCOOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   t.name + " <id>",
		Short: t.short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts.RootOptions)
			s, err := openSession(cmd, opts.RootOptions)
			if err != nil {
				return err
			}
			defer s.Close()

			ev, err := t.apply(s.svc, commandContext(cmd), rdf.IRI(args[0]), opts.request())
			if err != nil {
				return out.Fail(fmt.Sprintf("%s disco %s", t.name, args[0]), err)
			}
			res := newEventResult(ev)
			return out.Success(res, res.print)
		},
	}
	addRequestFlags(cmd, opts)
	return cmd
}

// showResult is the output of disco show.
type showResult struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	Creator     string   `json:"creator,omitempty"`
	Description string   `json:"description,omitempty"`
	Aggregates  []string `json:"aggregates,omitempty"`
	Statements  int      `json:"statements"`
	Digest      string   `json:"digest,omitempty"`
	Events      []string `json:"events"`
}

func (r showResult) print(w io.Writer) {
	fmt.Fprintf(w, "DiSCO:       %s\n", r.ID)
	fmt.Fprintf(w, "Status:      %s\n", r.Status)
	if r.Creator != "" {
		fmt.Fprintf(w, "Creator:     %s\n", r.Creator)
	}
	if r.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", r.Description)
	}
	if len(r.Aggregates) > 0 {
		fmt.Fprintln(w, "Aggregates:")
		for _, a := range r.Aggregates {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}
	fmt.Fprintf(w, "Statements:  %d\n", r.Statements)
	if r.Digest != "" {
		fmt.Fprintf(w, "Digest:      %s\n", r.Digest)
	}
	fmt.Fprintln(w, "Events:")
	for _, e := range r.Events {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

func newDiSCOShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiSCOOptions{RootOptions: rootOpts}

	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a DiSCO's status, creator, aggregates and digest",
		Long: `Show a DiSCO. Only the status and events of a tombstoned or deleted DiSCO
are shown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiSCOShow(opts, rdf.IRI(args[0]), cmd)
		},
	}
}

func runDiSCOShow(opts *DiSCOOptions, id rdf.IRI, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)
	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := commandContext(cmd)

	status, err := s.svc.Status(ctx, id)
	if err != nil {
		return out.Fail(fmt.Sprintf("show disco %s", id), err)
	}
	events, err := s.svc.ObjectEvents(ctx, id)
	if err != nil {
		return out.Fail(fmt.Sprintf("show disco %s", id), err)
	}
	res := showResult{ID: string(id), Status: string(status), Events: iriStrings(events)}

	if !status.IsTerminal() {
		d, err := s.svc.ReadDiSCO(ctx, id)
		if err != nil {
			return out.Fail(fmt.Sprintf("show disco %s", id), err)
		}
		stmts, err := s.svc.ObjectStatements(ctx, id)
		if err != nil {
			return out.Fail(fmt.Sprintf("show disco %s", id), err)
		}
		digest, err := rdf.GraphDigest(stmts)
		if err != nil {
			return WrapExitError(ExitCommandError, "digest disco statements", err)
		}
		res.Creator = string(d.Creator)
		if d.Description != nil {
			res.Description = d.Description.Value()
		}
		res.Aggregates = iriStrings(d.Aggregated)
		res.Statements = len(stmts)
		res.Digest = digest
	}
	return out.Success(res, res.print)
}

// versionEntry is one line of disco versions.
type versionEntry struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type versionList []versionEntry

func (l versionList) print(w io.Writer) {
	for i, v := range l {
		fmt.Fprintf(w, "%d. %s [%s]\n", i+1, v.ID, v.Status)
	}
}

func newDiSCOVersionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiSCOOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "versions <id>",
		Short: "List the versions of a DiSCO, oldest first",
		Long: `List every version in the DiSCO's lineage, including copies derived by
other agents. With --agent-only, list only the chain of updates by the
agent that created the DiSCO.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiSCOVersions(opts, rdf.IRI(args[0]), cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.AgentOnly, "agent-only", false, "only the same-agent update chain")
	return cmd
}

func runDiSCOVersions(opts *DiSCOOptions, id rdf.IRI, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)
	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := commandContext(cmd)

	list := s.svc.AllVersions
	if opts.AgentOnly {
		list = s.svc.AgentVersions
	}
	ids, err := list(ctx, id)
	if err != nil {
		return out.Fail(fmt.Sprintf("list versions of %s", id), err)
	}

	entries := make(versionList, 0, len(ids))
	for _, v := range ids {
		status, err := s.svc.Status(ctx, v)
		if err != nil {
			return out.Fail(fmt.Sprintf("read status of %s", v), err)
		}
		entries = append(entries, versionEntry{ID: string(v), Status: string(status)})
	}
	return out.Success(entries, entries.print)
}

// eventResult is the output of a lifecycle command.
type eventResult struct {
	Event      string    `json:"event"`
	Kind       string    `json:"kind"`
	TargetType string    `json:"target_type"`
	Agent      string    `json:"agent"`
	Created    []string  `json:"created,omitempty"`
	Affected   []string  `json:"affected"`
	Source     string    `json:"source,omitempty"`
	EndedAt    time.Time `json:"ended_at"`
}

func newEventResult(ev event.Event) eventResult {
	h := ev.Base()
	return eventResult{
		Event:      string(h.ID),
		Kind:       string(ev.Kind()),
		TargetType: string(h.TargetType),
		Agent:      string(h.AssociatedAgent),
		Created:    iriStrings(event.CreatedObjects(ev)),
		Affected:   iriStrings(event.AffectedObjects(ev)),
		Source:     string(event.SourceObject(ev)),
		EndedAt:    h.EndTime,
	}
}

func (r eventResult) print(w io.Writer) {
	fmt.Fprintf(w, "%s event %s by %s\n", r.Kind, r.Event, r.Agent)
	if r.Source != "" {
		fmt.Fprintf(w, "  source:  %s\n", r.Source)
	}
	for _, id := range r.Created {
		fmt.Fprintf(w, "  created: %s\n", id)
	}
	if len(r.Created) == 0 {
		fmt.Fprintf(w, "  object:  %s\n", strings.Join(r.Affected, ", "))
	}
}

type eventResults []eventResult

func (rs eventResults) print(w io.Writer) {
	for _, r := range rs {
		r.print(w)
	}
}

func iriStrings(ids []rdf.IRI) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// reportLoadErrors prints every document error and returns a command
// error.
func reportLoadErrors(out *OutputFormatter, errs []error) error {
	if out.Format == "json" {
		details := make([]string, len(errs))
		for i, err := range errs {
			details[i] = err.Error()
		}
		code := ErrCodeLoadFailed
		if le, ok := errs[0].(*LoadError); ok {
			code = le.Code
		}
		_ = out.Error(code, fmt.Sprintf("%d document error(s)", len(errs)), details)
	} else {
		for _, err := range errs {
			fmt.Fprintln(out.GetErrWriter(), err)
		}
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("%d document error(s)", len(errs)))
}
