package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/layout"
)

// layoutFlags override the [layout] section of the config file.
type layoutFlags struct {
	direction string
	nodeSep   float64
	rankSep   float64
	passes    int
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "", "rank direction: TB, BT, LR or RL")
	cmd.Flags().Float64Var(&f.nodeSep, "node-sep", 0, "horizontal gap between nodes of a rank")
	cmd.Flags().Float64Var(&f.rankSep, "rank-sep", 0, "gap between ranks")
	cmd.Flags().IntVar(&f.passes, "passes", 0, "crossing reduction sweeps")
}

// apply merges set flags over base.
func (f *layoutFlags) apply(base layout.Options) (layout.Options, error) {
	out := base
	if f.direction != "" {
		d, err := layout.ParseDirection(f.direction)
		if err != nil {
			return out, err
		}
		out.Direction = d
	}
	if f.nodeSep > 0 {
		out.NodeSep = f.nodeSep
	}
	if f.rankSep > 0 {
		out.RankSep = f.rankSep
	}
	if f.passes > 0 {
		out.Passes = f.passes
	}
	return out.WithDefaults(), nil
}

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		filters filterFlags
		flags   layoutFlags
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "layout [model.json|dir]...",
		Short: "Compute node positions for a model",
		Long: `Compute node positions for a model.

Types are ranked along inheritance and reference edges, ordered to reduce
crossings and placed without overlap. The result is a graph document with a
position for every type, written to <input>` + graphSuffix + ` by default. It
can be passed back to any command in place of parser output.

Layouts are cached when a cache backend is configured.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = defaultOutput(args[0], graphSuffix)
			}
			return c.runLayout(cmd.Context(), args, &filters, &flags, output, noCache)
		},
	}

	filters.register(cmd)
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>"+graphSuffix+")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runLayout loads the model, lays it out and writes the graph document.
func (c *CLI) runLayout(ctx context.Context, inputs []string, filters *filterFlags, flags *layoutFlags, output string, noCache bool) error {
	sess, err := c.load(ctx, inputs, filters, noCache)
	if err != nil {
		return err
	}
	defer sess.Close()

	s := sess.store
	opts, err := flags.apply(s.LayoutOptions())
	if err != nil {
		return err
	}
	if err := s.SetLayoutOptions(opts); err != nil {
		return err
	}
	// Large models load collapsed; a file layout covers every type.
	if err := s.ExpandAllNamespaces(); err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing layout for %d types...", len(s.Nodes())))
	spinner.Start()
	if err := s.Relayout(ctx); err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := graph.WriteDocumentFile(s.Document(), output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(len(s.Nodes()), len(s.Edges()), s.Diagnostics())
	printNewline()
	printNextStep("Render", appName+" render "+output)

	return nil
}
