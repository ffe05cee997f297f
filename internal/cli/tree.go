package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/nstree"
)

// treeCommand creates the tree command for listing namespaces.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		filters filterFlags
		query   string
		summary bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "tree [model.json|dir]...",
		Short: "Print the namespace tree of a model",
		Long: `Print the namespace tree of a model.

Namespaces and their types are sorted by name. --query keeps namespaces whose
name contains the query with all their types, and namespaces with matching
type names with only those types.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.load(cmd.Context(), args, &filters, true)
			if err != nil {
				return err
			}
			defer sess.Close()

			tree := sess.store.NamespaceTree(query)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tree)
			}
			writeTree(cmd.OutOrStdout(), tree, summary)
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter namespaces and types by substring")
	cmd.Flags().BoolVarP(&summary, "summary", "s", false, "print namespaces and counts only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")

	return cmd
}

// writeTree prints each namespace with its kind counts, then its types.
func writeTree(w io.Writer, tree []nstree.Namespace, summary bool) {
	if len(tree) == 0 {
		fmt.Fprintln(w, StyleDim.Render("(no types)"))
		return
	}
	for i, ns := range tree {
		name := ns.Name
		if name == "" {
			name = "(default)"
		}
		fmt.Fprintf(w, "%s %s\n", StyleTitle.Render(name), StyleDim.Render(countsLine(ns)))
		if summary {
			continue
		}
		for j, t := range ns.Types {
			branch := "├─"
			if j == len(ns.Types)-1 {
				branch = "└─"
			}
			fmt.Fprintf(w, "%s %s %s\n", StyleDim.Render(branch), StyleValue.Render(t.Name), kindLabel(t.Kind))
		}
		if i < len(tree)-1 {
			fmt.Fprintln(w)
		}
	}
}

// countsLine renders "(3 data, 1 enum)" in kind display order.
func countsLine(ns nstree.Namespace) string {
	var parts []string
	for _, k := range graph.Kinds {
		if n := ns.Counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, k))
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
