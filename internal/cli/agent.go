package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/provstore/internal/codec"
	"github.com/roach88/provstore/internal/rdf"
	"github.com/roach88/provstore/internal/versioning"
)

// AgentOptions holds flags for the agent commands.
type AgentOptions struct {
	*RootOptions
	ID               string
	Name             string
	IdentityProvider string
	AuthID           string
	Agent            string // requesting agent; defaults to the agent itself
}

// NewAgentCommand creates the agent command group.
func NewAgentCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Register and update agents",
	}
	cmd.AddCommand(newAgentCreateCommand(rootOpts))
	cmd.AddCommand(newAgentUpdateCommand(rootOpts))
	return cmd
}

func newAgentCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AgentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register an agent",
		Long: `Register an agent and record its Creation event.

Without --agent the new agent registers itself. Without --id an id is
minted with the configured prefix.

Example:
  provstore agent create --name "Alice" \
    --idp https://idp.example.org/ --auth-id https://idp.example.org/users/alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgentCreate(opts, cmd)
		},
	}

	addAgentFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.ID, "id", "", "agent IRI (minted when empty)")
	return cmd
}

func newAgentUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AgentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace an agent's description",
		Long: `Replace the name, identity provider and auth id of an agent. Flags left
empty keep their stored value. The agent itself or the admin agent may do so.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ID = args[0]
			return runAgentUpdate(opts, cmd)
		},
	}

	addAgentFlags(cmd, opts)
	return cmd
}

func addAgentFlags(cmd *cobra.Command, opts *AgentOptions) {
	cmd.Flags().StringVar(&opts.Name, "name", "", "agent name")
	cmd.Flags().StringVar(&opts.IdentityProvider, "idp", "", "identity provider IRI")
	cmd.Flags().StringVar(&opts.AuthID, "auth-id", "", "auth id IRI at the identity provider")
	cmd.Flags().StringVar(&opts.Agent, "agent", "", "requesting agent IRI (default: the agent itself)")
}

func runAgentCreate(opts *AgentOptions, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)
	if opts.Name == "" || opts.IdentityProvider == "" || opts.AuthID == "" {
		_ = out.Error(ErrCodeBadArg, "--name, --idp and --auth-id are required", nil)
		return NewExitError(ExitCommandError, "missing agent flags")
	}

	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := commandContext(cmd)

	id := rdf.IRI(opts.ID)
	if id == "" {
		if id, err = (versioning.UUIDv7Supplier{Prefix: s.cfg.IDs.Prefix}).CreateID(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to mint agent id", err)
		}
	}
	requester := id
	if opts.Agent != "" {
		requester = rdf.IRI(opts.Agent)
	}

	agent := &codec.Agent{
		ID:               id,
		Name:             rdf.NewLiteral(opts.Name),
		IdentityProvider: rdf.IRI(opts.IdentityProvider),
		AuthID:           rdf.IRI(opts.AuthID),
	}
	out.VerboseLog("creating agent %s as %s", id, requester)
	ev, err := s.svc.CreateAgent(ctx, agent, versioning.Request{Agent: requester})
	if err != nil {
		return out.Fail("create agent", err)
	}
	res := newEventResult(ev)
	return out.Success(res, res.print)
}

func runAgentUpdate(opts *AgentOptions, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)

	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := commandContext(cmd)

	id := rdf.IRI(opts.ID)
	agent, err := s.svc.ReadAgent(ctx, id)
	if err != nil {
		return out.Fail("read agent", err)
	}
	if opts.Name != "" {
		agent.Name = rdf.NewLiteral(opts.Name)
	}
	if opts.IdentityProvider != "" {
		agent.IdentityProvider = rdf.IRI(opts.IdentityProvider)
	}
	if opts.AuthID != "" {
		agent.AuthID = rdf.IRI(opts.AuthID)
	}

	requester := id
	if opts.Agent != "" {
		requester = rdf.IRI(opts.Agent)
	}
	ev, err := s.svc.UpdateAgent(ctx, agent, versioning.Request{Agent: requester})
	if err != nil {
		return out.Fail(fmt.Sprintf("update agent %s", id), err)
	}
	res := newEventResult(ev)
	return out.Success(res, res.print)
}
