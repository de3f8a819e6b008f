package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/rdfgraph/internal/graph"
	"github.com/roach88/rdfgraph/internal/listener"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	DryRun bool
	Feed   string
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <fixture.yaml>",
		Short: "Import vertices and edges from a YAML fixture",
		Long: `Import a YAML fixture into the graph in a single transaction.

Every graph edit is printed with the quads it inserted or deleted. If any
write fails the transaction is rolled back and nothing is stored.

With --feed, every edit and the final commit or abort is also appended to
the named file as one JSON object per line.

Example:
  rdfgraph load --db ./graph.db testdata/people.yaml
  rdfgraph load --db ./graph.db --dry-run --format json people.yaml
  rdfgraph load --db ./graph.db --feed edits.jsonl people.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print edits and roll back instead of committing")
	cmd.Flags().StringVar(&opts.Feed, "feed", "", "append edit and transaction events to this file as JSON lines")

	return cmd
}

// LoadResult is the JSON payload of the load command.
type LoadResult struct {
	Vertices   map[string]string `json:"vertices"`
	Edits      []EditView        `json:"edits"`
	CommitTime int64             `json:"commit_time,omitempty"`
	DryRun     bool              `json:"dry_run,omitempty"`
}

// EditView is the JSON form of a listener.Edit.
type EditView struct {
	Seq       int64  `json:"seq"`
	Action    string `json:"action"`
	Kind      string `json:"kind"`
	Element   string `json:"element"`
	Rendering string `json:"rendering"`
}

func runLoad(opts *LoadOptions, path string, cmd *cobra.Command) error {
	setupLogging(opts.RootOptions, cmd)
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	fixture, err := LoadFixture(path)
	if err != nil {
		_ = formatter.Error(ErrCodeFixture, err.Error(), map[string]string{"path": path})
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}

	rec := &listener.Recorder{}
	gopts := []graph.Option{graph.WithListener(rec)}
	if opts.Feed != "" {
		feed, err := os.OpenFile(opts.Feed, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), map[string]string{"feed": opts.Feed})
			return WrapExitError(ExitCommandError, "failed to open feed", err)
		}
		defer closeFeed(feed)
		gopts = append(gopts, graph.WithListener(listener.NewJSONLines(feed)))
	}

	g, err := openGraph(cfg, opts.RootOptions, gopts...)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer closeGraph(g)

	ctx := commandContext(cmd)
	slog.Info("loading fixture", "path", path, "vertices", len(fixture.Vertices), "edges", len(fixture.Edges))

	ids, err := applyFixture(ctx, g, fixture)
	if err != nil {
		if rbErr := g.Rollback(ctx); rbErr != nil {
			slog.Error("rollback failed", "error", rbErr)
		}
		_ = formatter.Error(errorCode(err), err.Error(), map[string]string{"path": path})
		return WrapExitError(ExitFailure, "load failed", err)
	}

	result := LoadResult{Vertices: ids, DryRun: opts.DryRun}
	for _, ev := range rec.Events() {
		if ev.Type != listener.EventEdit {
			continue
		}
		result.Edits = append(result.Edits, EditView{
			Seq:       ev.Edit.Seq,
			Action:    string(ev.Edit.Action),
			Kind:      string(ev.Edit.Kind),
			Element:   string(ev.Edit.Element),
			Rendering: ev.Rendering,
		})
	}

	if opts.DryRun {
		if err := g.Rollback(ctx); err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitFailure, "rollback failed", err)
		}
	} else {
		result.CommitTime, err = g.Commit(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitFailure, "commit failed", err)
		}
	}
	slog.Info("fixture loaded", "edits", len(result.Edits), "commit_time", result.CommitTime, "dry_run", opts.DryRun)

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return writeLoadText(formatter.Writer, result)
}

// closeFeed closes the feed file after the graph has delivered its last event.
func closeFeed(f *os.File) {
	if err := f.Close(); err != nil {
		slog.Error("error closing feed", "path", f.Name(), "error", err)
	}
}

// applyFixture writes every vertex, property and edge of f through g.
// Returns the identifier assigned to each fixture vertex key.
func applyFixture(ctx context.Context, g *graph.Graph, f *Fixture) (map[string]string, error) {
	vertices := make(map[string]*graph.Vertex, len(f.Vertices))
	ids := make(map[string]string, len(f.Vertices))

	for _, fv := range f.Vertices {
		v, err := g.AddVertex(ctx, fv.Label)
		if err != nil {
			return nil, fmt.Errorf("vertex %q: %w", fv.Key, err)
		}
		vertices[fv.Key] = v
		ids[fv.Key] = string(v.ID())

		for _, fp := range fv.Properties {
			if err := applyProperty(ctx, g, v, fp); err != nil {
				return nil, fmt.Errorf("vertex %q property %q: %w", fv.Key, fp.Key, err)
			}
		}
	}

	for i, fe := range f.Edges {
		out, in := vertices[fe.From], vertices[fe.To]
		if _, err := out.AddEdge(ctx, fe.Label, in, sortedKeyValues(fe.Properties)...); err != nil {
			return nil, fmt.Errorf("edge %d (%s->%s): %w", i, fe.From, fe.To, err)
		}
	}

	return ids, nil
}

func applyProperty(ctx context.Context, g *graph.Graph, v *graph.Vertex, fp FixtureProperty) error {
	c := g.Cardinality(fp.Key)
	if fp.Cardinality != "" {
		var err error
		if c, err = graph.ParseCardinality(fp.Cardinality); err != nil {
			return err
		}
	}
	_, err := v.PropertyWith(ctx, c, fp.Key, fp.Value, sortedKeyValues(fp.Meta)...)
	return err
}

// sortedKeyValues flattens m into a key/value list ordered by key.
func sortedKeyValues(m map[string]any) []any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kvs := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		kvs = append(kvs, k, m[k])
	}
	return kvs
}

// errorCode maps graph errors to CLI error codes.
func errorCode(err error) string {
	switch {
	case graph.IsStoreFailure(err):
		return ErrCodeStore
	case graph.CodeOf(err) == graph.CodeNotFound:
		return ErrCodeNotFound
	case graph.CodeOf(err) != "":
		return ErrCodeGraph
	default:
		return ErrCodeGeneric
	}
}

func writeLoadText(w io.Writer, r LoadResult) error {
	for _, e := range r.Edits {
		fmt.Fprintf(w, "# %d %s %s\n%s\n", e.Seq, e.Action, e.Kind, e.Rendering)
	}
	if r.DryRun {
		_, err := fmt.Fprintf(w, "rolled back %d edits\n", len(r.Edits))
		return err
	}
	_, err := fmt.Fprintf(w, "committed %d edits at %d\n", len(r.Edits), r.CommitTime)
	return err
}
