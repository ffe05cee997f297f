package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/typegraph/pkg/graph"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		filters filterFlags
		asJSON  bool
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "validate [model.json|dir]...",
		Short: "Check a model and report diagnostics",
		Long: `Check a model and report diagnostics.

Diagnostics cover names, cardinalities, duplicate members, unknown enum and
function references and circular inheritance. The command fails when any
diagnostic has error severity, or any diagnostic at all with --strict.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), cmd.OutOrStdout(), args, &filters, asJSON, strict)
		},
	}

	filters.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print diagnostics as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on warnings too")

	return cmd
}

// validateReport is the --json output of validate.
type validateReport struct {
	Types       int                     `json:"types"`
	Edges       int                     `json:"edges"`
	Skipped     int                     `json:"skipped"`
	Duplicates  int                     `json:"duplicates"`
	Diagnostics []graph.ValidationError `json:"diagnostics"`
}

func (c *CLI) runValidate(ctx context.Context, w io.Writer, inputs []string, filters *filterFlags, asJSON, strict bool) error {
	sess, err := c.load(ctx, inputs, filters, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	s := sess.store
	diags := s.Diagnostics()
	if diags == nil {
		diags = []graph.ValidationError{}
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(validateReport{
			Types:       len(s.Nodes()),
			Edges:       len(s.Edges()),
			Skipped:     sess.result.Skipped,
			Duplicates:  sess.result.Duplicates,
			Diagnostics: diags,
		}); err != nil {
			return err
		}
	} else {
		for _, d := range diags {
			printDiagnostic(d)
		}
		if len(diags) > 0 {
			printNewline()
		}
		if sess.result.Skipped > 0 {
			printWarning("Skipped %s with an unsupported type", plural(sess.result.Skipped, "element"))
		}
		if sess.result.Duplicates > 0 {
			printWarning("Ignored %s", plural(sess.result.Duplicates, "duplicate declaration"))
		}
		printStats(len(s.Nodes()), len(s.Edges()), diags)
	}

	errs, warns := countSeverities(diags)
	if errs > 0 {
		return fmt.Errorf("model has %s", plural(errs, "error"))
	}
	if strict && warns > 0 {
		return fmt.Errorf("model has %s", plural(warns, "warning"))
	}
	return nil
}
