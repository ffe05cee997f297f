package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/typegraph/pkg/exporter"
	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/store"
)

// outputOpts selects where and how a model is written.
type outputOpts struct {
	output string // file, directory (--split) or "" for stdout
	split  bool   // one file per namespace
	graph  bool   // graph document instead of parser output
}

func (o *outputOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file, or directory with --split (default: stdout)")
	cmd.Flags().BoolVar(&o.split, "split", false, "write one <namespace>.json file per namespace into --output")
	cmd.Flags().BoolVar(&o.graph, "graph", false, "write a graph document instead of parser output")
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		filters filterFlags
		out     outputOpts
	)

	cmd := &cobra.Command{
		Use:   "export [model.json|dir]...",
		Short: "Write a model back as parser output",
		Long: `Write a model back as parser output.

Types are grouped into one Model per namespace. Metadata the graph does not
represent (annotations, conditions, synonym sources) is carried over from the
imported elements. Use --graph to write the node/edge document instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.load(cmd.Context(), args, &filters, true)
			if err != nil {
				return err
			}
			defer sess.Close()
			return writeModel(cmd.OutOrStdout(), sess.store, out)
		},
	}

	filters.register(cmd)
	out.register(cmd)

	return cmd
}

// editCommand creates the edit command for applying command scripts.
func (c *CLI) editCommand() *cobra.Command {
	var (
		filters filterFlags
		out     outputOpts
		script  string
	)

	cmd := &cobra.Command{
		Use:   "edit [model.json|dir]... --script commands.json",
		Short: "Apply a JSON command script to a model",
		Long: `Apply a JSON command script to a model and write the result.

The script is a single command object or an array of them, for example:

  [
    {"op": "createType", "kind": "data", "name": "Trade", "namespace": "cdm.event"},
    {"op": "addAttribute", "id": "cdm.event::Trade", "member": {"name": "party", "typeName": "Party"}},
    {"op": "renameType", "id": "cdm.event::Trade", "name": "Execution"}
  ]

Commands run in order and the first failure aborts the edit. Use "-" to read
the script from stdin.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmds, err := readScript(cmd.InOrStdin(), script)
			if err != nil {
				return err
			}

			sess, err := c.load(cmd.Context(), args, &filters, true)
			if err != nil {
				return err
			}
			defer sess.Close()

			before := sess.store.Version()
			if err := sess.store.ApplyAll(cmds); err != nil {
				return err
			}
			c.Logger.Info("Applied commands", "count", len(cmds), "version", sess.store.Version(), "from", before)

			if diags := sess.store.Diagnostics(); len(diags) > 0 {
				errs, warns := countSeverities(diags)
				c.Logger.Warn("Edited model has diagnostics", "errors", errs, "warnings", warns)
			}
			return writeModel(cmd.OutOrStdout(), sess.store, out)
		},
	}

	filters.register(cmd)
	out.register(cmd)
	cmd.Flags().StringVarP(&script, "script", "s", "", "command script file, or - for stdin")
	_ = cmd.MarkFlagRequired("script")

	return cmd
}

func readScript(stdin io.Reader, path string) ([]store.Command, error) {
	if path == "-" {
		return store.ReadCommands(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	cmds, err := store.ReadCommands(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cmds, nil
}

// writeModel writes the store's model according to opts.
func writeModel(stdout io.Writer, s *store.Store, opts outputOpts) error {
	if opts.graph {
		if opts.split {
			return fmt.Errorf("--split cannot be combined with --graph")
		}
		doc := s.Document()
		if opts.output == "" {
			return graph.WriteDocument(doc, stdout)
		}
		if err := graph.WriteDocumentFile(doc, opts.output); err != nil {
			return err
		}
		printSuccess("Wrote graph document")
		printFile(opts.output)
		return nil
	}

	models := exporter.ToModels(s.Nodes(), s.Edges())
	switch {
	case opts.split:
		if opts.output == "" {
			return fmt.Errorf("--split requires --output")
		}
		paths, err := exporter.WriteDir(opts.output, models)
		if err != nil {
			return err
		}
		printSuccess("Exported %s", plural(len(paths), "namespace"))
		for _, p := range paths {
			printFile(p)
		}
		return nil
	case opts.output == "":
		return exporter.Write(stdout, models)
	}

	if dir := filepath.Dir(opts.output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.output, err)
	}
	defer f.Close()
	if err := exporter.Write(f, models); err != nil {
		return err
	}
	printSuccess("Exported %s", plural(len(models), "namespace"))
	printFile(opts.output)
	return nil
}
