package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/provstore/internal/export"
	"github.com/roach88/provstore/internal/rdf"
	"github.com/roach88/provstore/internal/versioning"
)

// QueryOptions holds the filter flags shared by the query commands.
type QueryOptions struct {
	*RootOptions
	Status string
	From   string
	Until  string
	Agents []string
	Limit  int
	Offset int
}

// filter converts the flags to a versioning.Filter.
func (o *QueryOptions) filter() (versioning.Filter, error) {
	status, err := versioning.ParseStatusFilter(o.Status)
	if err != nil {
		return versioning.Filter{}, err
	}
	f := versioning.Filter{Status: status, Limit: o.Limit, Offset: o.Offset}
	if f.From, err = parseBound("--from", o.From); err != nil {
		return f, err
	}
	if f.Until, err = parseBound("--until", o.Until); err != nil {
		return f, err
	}
	for _, a := range o.Agents {
		f.Agents = append(f.Agents, rdf.IRI(a))
	}
	return f, f.Validate()
}

func parseBound(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: expected RFC 3339", flag, value)
	}
	return t, nil
}

func addFilterFlags(cmd *cobra.Command, opts *QueryOptions) {
	cmd.Flags().StringVar(&opts.Status, "status", "ALL", "ACTIVE, INACTIVE or ALL")
	cmd.Flags().StringVar(&opts.From, "from", "", "earliest event start time (RFC 3339, inclusive)")
	cmd.Flags().StringVar(&opts.Until, "until", "", "latest event start time (RFC 3339, inclusive)")
	cmd.Flags().StringSliceVar(&opts.Agents, "agent", nil, "only objects or events of these agents (repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of results (0 = no limit)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of results to skip")
}

// NewQueryCommand creates the query command group.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Find DiSCOs, events and statements",
		Long: `Query the store. Tombstoned DiSCOs never appear in results. --status
selects DiSCOs by lifecycle state; --from, --until and --agent restrict
the event that generated each DiSCO (or the event itself for query events).`,
	}
	cmd.AddCommand(newQueryIRIsCommand(rootOpts, "related <resource>",
		"DiSCOs that mention a resource", (*versioning.Service).ResourceRelatedObjects))
	cmd.AddCommand(newQueryIRIsCommand(rootOpts, "events <resource>",
		"Events that affected DiSCOs mentioning a resource", (*versioning.Service).ResourceRelatedEvents))
	cmd.AddCommand(newQueryIRIsCommand(rootOpts, "agent <agent>",
		"DiSCOs generated by an agent", (*versioning.Service).AgentObjects))
	cmd.AddCommand(newQueryStatementsCommand(rootOpts))
	return cmd
}

type iriQuery func(svc *versioning.Service, ctx context.Context, id rdf.IRI, f versioning.Filter) ([]rdf.IRI, error)

type iriList []string

func (l iriList) print(w io.Writer) {
	for _, id := range l {
		fmt.Fprintln(w, id)
	}
}

func newQueryIRIsCommand(rootOpts *RootOptions, use, short string, run iriQuery) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts.RootOptions)
			f, err := opts.filter()
			if err != nil {
				_ = out.Error(ErrCodeBadArg, err.Error(), nil)
				return WrapExitError(ExitCommandError, "invalid filter", err)
			}

			s, err := openSession(cmd, opts.RootOptions)
			if err != nil {
				return err
			}
			defer s.Close()

			out.VerboseLog("query %s with filter %s", args[0], f)
			ids, err := run(s.svc, commandContext(cmd), rdf.IRI(args[0]), f)
			if err != nil {
				return out.Fail(fmt.Sprintf("query %s", args[0]), err)
			}
			res := iriList(iriStrings(ids))
			return out.Success(res, res.print)
		},
	}
	addFilterFlags(cmd, opts)
	return cmd
}

func newQueryStatementsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "statements <resource>",
		Short: "DiSCO statements that mention a resource, as N-Quads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts.RootOptions)
			f, err := opts.filter()
			if err != nil {
				_ = out.Error(ErrCodeBadArg, err.Error(), nil)
				return WrapExitError(ExitCommandError, "invalid filter", err)
			}

			s, err := openSession(cmd, opts.RootOptions)
			if err != nil {
				return err
			}
			defer s.Close()

			stmts, err := s.svc.ResourceRelatedStatements(commandContext(cmd), rdf.IRI(args[0]), f)
			if err != nil {
				return out.Fail(fmt.Sprintf("query statements of %s", args[0]), err)
			}
			data, err := export.Marshal(stmts, export.NQuads)
			if err != nil {
				return WrapExitError(ExitCommandError, "serialize statements", err)
			}

			lines := make([]string, len(stmts))
			for i, st := range stmts {
				lines[i] = st.String()
			}
			return out.Success(lines, func(w io.Writer) {
				_, _ = w.Write(data)
			})
		},
	}
	addFilterFlags(cmd, opts)
	return cmd
}
