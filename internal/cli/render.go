package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/typegraph/pkg/render/dot"
)

// Output formats of the render command.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string // output file, "-" for stdout
	format  string // formatDOT or formatSVG
	members bool   // list members inside the node labels
	flat    bool   // no namespace clusters
	visible bool   // only types in expanded namespaces
}

// renderCommand creates the render command for DOT and SVG output.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		filters filterFlags
		flags   layoutFlags
		opts    renderOpts
	)

	cmd := &cobra.Command{
		Use:   "render [model.json|dir]...",
		Short: "Render a model as Graphviz DOT or SVG",
		Long: `Render a model as Graphviz DOT or SVG.

Namespaces become clusters, inheritance edges use hollow arrows and choice
options dotted lines. Types with error diagnostics are outlined in red. SVG
output is produced with an embedded Graphviz.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			if opts.output == "" {
				opts.output = defaultOutput(args[0], "."+opts.format)
			}
			return c.runRender(cmd.Context(), args, &filters, &flags, opts)
		},
	}

	filters.register(cmd)
	flags.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, - for stdout (default: <input>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatSVG, "output format: svg, dot")
	cmd.Flags().BoolVarP(&opts.members, "members", "m", false, "list members in node labels")
	cmd.Flags().BoolVar(&opts.flat, "flat", false, "do not group namespaces into clusters")
	cmd.Flags().BoolVar(&opts.visible, "visible", false, "render only types of expanded namespaces")

	return cmd
}

func validateFormat(f string) error {
	switch f {
	case formatDOT, formatSVG:
		return nil
	}
	return fmt.Errorf("invalid format %q (valid: %s, %s)", f, formatSVG, formatDOT)
}

func (c *CLI) runRender(ctx context.Context, inputs []string, filters *filterFlags, flags *layoutFlags, opts renderOpts) error {
	sess, err := c.load(ctx, inputs, filters, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	s := sess.store
	lo, err := flags.apply(s.LayoutOptions())
	if err != nil {
		return err
	}

	nodes, edges := s.Nodes(), s.Edges()
	if opts.visible {
		nodes, edges = s.VisibleNodes(), s.VisibleEdges()
	}
	src := dot.ToDOT(nodes, edges, dot.Options{
		Members:   opts.members,
		Direction: lo.Direction,
		Flat:      opts.flat,
	})

	data := []byte(src)
	if opts.format == formatSVG {
		spinner := newSpinnerWithContext(ctx, "Rendering SVG...")
		spinner.Start()
		data, err = dot.RenderSVG(ctx, src)
		if err != nil {
			spinner.StopWithError("Render failed")
			return fmt.Errorf("render svg: %w", err)
		}
		spinner.Stop()
	}

	if opts.output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}

	printSuccess("Rendered %s", opts.format)
	printFile(opts.output)
	printStats(len(nodes), len(edges), s.Diagnostics())
	return nil
}
