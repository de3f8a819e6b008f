package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rdfgraph/internal/config"
	"github.com/roach88/rdfgraph/internal/graph"
	"github.com/roach88/rdfgraph/internal/rdf"
	"github.com/roach88/rdfgraph/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string // overrides the configured database path
	Config   string // path to a CUE config file

	// StoreOptions are appended when a store is opened (for testing).
	// Use testutil.StoreOptions() for stable identifiers and timestamps.
	StoreOptions []store.Option
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rdfgraph CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rdfgraph",
		Short: "Property graphs stored as RDF quads",
		Long:  "Load, inspect and dump property graphs kept in an RDF quad store.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to CUE config file")

	// Add subcommands
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// setupLogging installs a text slog handler on the command's stderr.
func setupLogging(opts *RootOptions, cmd *cobra.Command) {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// commandContext returns the command's context, or Background when the
// command was not started through ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig resolves the effective configuration: the --config file or the
// schema defaults, with --db applied on top.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		cfg, err = config.Load(opts.Config)
		if err != nil {
			return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
		}
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	return cfg, nil
}

// requireDatabase fails when the database file does not exist. Read-only
// commands use it so a typo does not silently create an empty store.
func requireDatabase(path string) error {
	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	return nil
}

// openGraph opens the configured store as a graph.
func openGraph(cfg config.Config, opts *RootOptions, gopts ...graph.Option) (*graph.Graph, error) {
	slog.Debug("opening graph", "db", cfg.Database, "namespace", cfg.Namespace)
	g, err := graph.Open(cfg, opts.StoreOptions, gopts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return g, nil
}

// openStore opens the configured store without the graph layer.
func openStore(cfg config.Config, opts *RootOptions) (*store.Store, error) {
	sopts := append([]store.Option{store.WithNamespace(rdf.Namespace(cfg.Namespace))}, opts.StoreOptions...)
	st, err := store.Open(cfg.Database, sopts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// closeGraph closes g, logging instead of failing the command.
func closeGraph(g *graph.Graph) {
	if err := g.Close(); err != nil {
		slog.Error("error closing graph", "error", err)
	}
}
