package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// exploreCommand creates the interactive explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "explore [model.json|dir]...",
		Short: "Browse a model's namespaces interactively",
		Long: `Browse a model's namespaces interactively.

Namespaces expand and collapse with enter; selecting a type shows its
members and diagnostics. Press / to search type and namespace names.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.load(cmd.Context(), args, &filters, true)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.store.ToggleExplorer(); err != nil {
				return err
			}
			p := tea.NewProgram(NewExplorerModel(sess.store), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			final, err := p.Run()
			if err != nil {
				if ctxErr := cmd.Context().Err(); ctxErr != nil {
					return ctxErr
				}
				return err
			}

			if m, ok := final.(ExplorerModel); ok {
				if id := m.Store.SelectedNodeID(); id != "" {
					printInfo("Selected %s", StyleHighlight.Render(id))
				}
			}
			return nil
		},
	}

	filters.register(cmd)
	return cmd
}
