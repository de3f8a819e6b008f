package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rdfgraph/internal/graph"
	"github.com/roach88/rdfgraph/internal/iterator"
	"github.com/roach88/rdfgraph/internal/rdf"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Direction string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <vertex-id>",
		Short: "Print a vertex with its properties and edges",
		Long: `Print one vertex: its label, every vertex property with its
meta-properties, and its incident edges with their properties.

Example:
  rdfgraph show --db ./graph.db urn:rdfgraph:id/person/1
  rdfgraph show --db ./graph.db --direction out --format json urn:rdfgraph:id/person/1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Direction, "direction", "both", "incident edges to show (out|in|both)")

	return cmd
}

// VertexView is the JSON payload of the show command.
type VertexView struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Properties []PropertyView `json:"properties"`
	Edges      []EdgeView     `json:"edges"`
}

// PropertyView is a vertex property with its meta-properties.
type PropertyView struct {
	ID    string         `json:"id"`
	Key   string         `json:"key"`
	Value any            `json:"value"`
	Meta  map[string]any `json:"meta,omitempty"`

	meta []*graph.Property
}

// EdgeView is an incident edge.
type EdgeView struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Out        string         `json:"out"`
	In         string         `json:"in"`
	Properties map[string]any `json:"properties,omitempty"`

	edge  *graph.Edge
	props []*graph.Property
}

func runShow(opts *ShowOptions, id string, cmd *cobra.Command) error {
	setupLogging(opts.RootOptions, cmd)
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	dir, err := graph.ParseDirection(opts.Direction)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid direction", err)
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	if err := requireDatabase(cfg.Database); err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), map[string]string{"db": cfg.Database})
		return err
	}

	g, err := openGraph(cfg, opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer closeGraph(g)

	view, err := describeVertex(commandContext(cmd), g, rdf.URI(id), dir)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), map[string]string{"id": id})
		if errors.Is(err, graph.ErrNotFound) {
			return WrapExitError(ExitFailure, "vertex not found", err)
		}
		return WrapExitError(ExitFailure, "show failed", err)
	}

	if formatter.JSON() {
		return formatter.Success(view)
	}
	return writeVertexText(formatter.Writer, view)
}

// describeVertex reads a vertex and everything attached to it.
// Every iterator is drained and closed before returning.
func describeVertex(ctx context.Context, g *graph.Graph, id rdf.URI, dir graph.Direction) (*VertexView, error) {
	v, err := g.Vertex(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &VertexView{ID: string(v.ID()), Label: v.Label()}

	it, err := v.Properties(ctx)
	if err != nil {
		return nil, err
	}
	vps, err := iterator.Collect(it)
	if err != nil {
		return nil, err
	}
	for _, vp := range vps {
		metaIt, err := vp.Properties(ctx)
		if err != nil {
			return nil, err
		}
		meta, err := iterator.Collect(metaIt)
		if err != nil {
			return nil, err
		}
		view.Properties = append(view.Properties, PropertyView{
			ID:    string(vp.ID()),
			Key:   vp.Key(),
			Value: vp.Value(),
			Meta:  propertyMap(meta),
			meta:  meta,
		})
	}

	edgeIt, err := v.Edges(ctx, dir)
	if err != nil {
		return nil, err
	}
	edges, err := iterator.Collect(edgeIt)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		propIt, err := e.Properties(ctx)
		if err != nil {
			return nil, err
		}
		props, err := iterator.Collect(propIt)
		if err != nil {
			return nil, err
		}
		view.Edges = append(view.Edges, EdgeView{
			ID:         string(e.ID()),
			Label:      e.Label(),
			Out:        string(e.OutID()),
			In:         string(e.InID()),
			Properties: propertyMap(props),
			edge:       e,
			props:      props,
		})
	}

	return view, nil
}

func propertyMap(props []*graph.Property) map[string]any {
	if len(props) == 0 {
		return nil
	}
	m := make(map[string]any, len(props))
	for _, p := range props {
		m[p.Key()] = p.Value()
	}
	return m
}

func writeVertexText(w io.Writer, view *VertexView) error {
	fmt.Fprintf(w, "v[%s] %s\n", view.ID, view.Label)
	for _, p := range view.Properties {
		fmt.Fprintf(w, "  vp[%s->%v] %s\n", p.Key, p.Value, p.ID)
		for _, m := range p.meta {
			fmt.Fprintf(w, "    %s\n", m)
		}
	}
	for _, e := range view.Edges {
		fmt.Fprintf(w, "  %s\n", e.edge)
		for _, p := range e.props {
			fmt.Fprintf(w, "    %s\n", p)
		}
	}
	_, err := fmt.Fprintf(w, "%d properties, %d edges\n", len(view.Properties), len(view.Edges))
	return err
}
