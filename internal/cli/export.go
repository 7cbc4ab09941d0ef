package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/provstore/internal/export"
	"github.com/roach88/provstore/internal/rdf"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	As     string
	Output string
}

// exportResult is the JSON form of an export.
type exportResult struct {
	ID         string `json:"id"`
	Format     string `json:"format"`
	MIMEType   string `json:"mime_type"`
	Statements int    `json:"statements"`
	Content    string `json:"content,omitempty"`
	File       string `json:"file,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Serialize the graph of a DiSCO, agent or event",
		Long: fmt.Sprintf(`Serialize the statements of one object or event graph.

Formats: %s. N-Quads keeps the graph name of each statement; N-Triples
and Turtle drop it.

Example:
  provstore export urn:uuid:0190... --as ttl
  provstore export urn:uuid:0190... --as nq --output disco.nq`, strings.Join(export.Names(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, rdf.IRI(args[0]), cmd)
		},
	}
	cmd.Flags().StringVar(&opts.As, "as", string(export.NQuads), "output format")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func runExport(opts *ExportOptions, id rdf.IRI, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)

	format, err := export.ParseFormat(opts.As)
	if err != nil {
		_ = out.Error(ErrCodeBadArg, err.Error(), export.Names())
		return WrapExitError(ExitCommandError, "invalid --as", err)
	}
	info, _ := export.Info(format)

	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	stmts, err := s.svc.ObjectStatements(commandContext(cmd), id)
	if err != nil {
		return out.Fail(fmt.Sprintf("read %s", id), err)
	}
	data, err := export.Marshal(stmts, format)
	if err != nil {
		return WrapExitError(ExitCommandError, "export statements", err)
	}

	res := exportResult{
		ID:         string(id),
		Format:     string(format),
		MIMEType:   info.MIMEType,
		Statements: len(stmts),
	}
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			_ = out.Error(ErrCodeGeneric, fmt.Sprintf("failed to write %s: %v", opts.Output, err), nil)
			return WrapExitError(ExitCommandError, "write export", err)
		}
		out.VerboseLog("wrote %d statements to %s", len(stmts), opts.Output)
		res.File = opts.Output
		return out.Success(res, func(w io.Writer) {
			fmt.Fprintf(w, "Wrote %d statements to %s\n", len(stmts), opts.Output)
		})
	}

	res.Content = string(data)
	return out.Success(res, func(w io.Writer) {
		_, _ = w.Write(data)
	})
}
