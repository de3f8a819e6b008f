package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/rdfgraph/internal/iterator"
	"github.com/roach88/rdfgraph/internal/rdf"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Subject string
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print every committed quad as N-Quads",
		Long: `Print the committed contents of the store, one N-Quads line per
statement, in insertion order.

Example:
  rdfgraph dump --db ./graph.db
  rdfgraph dump --db ./graph.db --subject urn:rdfgraph:id/person/1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Subject, "subject", "", "only statements about this subject")

	return cmd
}

// DumpResult is the JSON payload of the dump command.
type DumpResult struct {
	Statements []string `json:"statements"`
	LastCommit int64    `json:"last_commit"`
}

func runDump(opts *DumpOptions, cmd *cobra.Command) error {
	setupLogging(opts.RootOptions, cmd)
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	if err := requireDatabase(cfg.Database); err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), map[string]string{"db": cfg.Database})
		return err
	}

	st, err := openStore(cfg, opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	it, err := st.Query(commandContext(cmd), rdf.Pattern{Subject: rdf.URI(opts.Subject)})
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "query failed", err)
	}
	statements, err := iterator.Collect(it)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "query failed", err)
	}
	slog.Debug("dumped statements", "count", len(statements), "subject", opts.Subject)

	result := DumpResult{Statements: make([]string, len(statements)), LastCommit: st.LastCommit()}
	for i, s := range statements {
		result.Statements[i] = s.String()
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	for _, line := range result.Statements {
		if _, err := fmt.Fprintln(formatter.Writer, line); err != nil {
			return err
		}
	}
	return nil
}
