package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/typegraph/pkg/storage"
)

// storageFlags override the [storage] section of the config file.
type storageFlags struct {
	path string
}

func (f *storageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "db", "", "SQLite database file (default: from config, then the user config dir)")
}

// openStorage opens the configured document store.
func (c *CLI) openStorage(ctx context.Context, flags *storageFlags) (storage.Store, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	sc := cfg.Storage
	if flags != nil && flags.path != "" {
		sc.Backend = storage.BackendSQLite
		sc.Path = flags.path
	}
	st, err := storage.Open(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	c.Logger.Debug("storage opened", "backend", sc.Backend)
	return st, nil
}

// saveCommand creates the save command.
func (c *CLI) saveCommand() *cobra.Command {
	var (
		filters filterFlags
		sf      storageFlags
		name    string
		id      string
		relay   bool
	)

	cmd := &cobra.Command{
		Use:   "save [model.json|dir]...",
		Short: "Save a model as a document",
		Long: `Save a model as a document in the configured storage backend.

Saving with --id replaces that document and keeps its creation time. The
document can be opened later by id or by name.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := c.load(ctx, args, &filters, !relay)
			if err != nil {
				return err
			}
			defer sess.Close()

			if relay {
				if err := sess.store.ExpandAllNamespaces(); err != nil {
					return err
				}
				if err := sess.store.Relayout(ctx); err != nil {
					return fmt.Errorf("compute layout: %w", err)
				}
			}

			st, err := c.openStorage(ctx, &sf)
			if err != nil {
				return err
			}
			defer st.Close()

			if name == "" {
				name = inputName(args[0])
			}
			doc := &storage.Document{ID: id, Name: name, Graph: sess.store.Document()}
			if err := st.Save(ctx, doc); err != nil {
				return err
			}

			printSuccess("Saved %s", StyleHighlight.Render(doc.Name))
			printKeyValue("id", doc.ID)
			printKeyValue("types", fmt.Sprint(len(doc.Graph.Nodes)))
			printNewline()
			printNextStep("Open", appName+" open "+doc.ID)
			return nil
		},
	}

	filters.register(cmd)
	sf.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "document name (default: input base name)")
	cmd.Flags().StringVar(&id, "id", "", "replace the document with this id")
	cmd.Flags().BoolVar(&relay, "layout", false, "compute positions before saving")

	return cmd
}

// openCommand creates the open command.
func (c *CLI) openCommand() *cobra.Command {
	var (
		sf  storageFlags
		out outputOpts
	)

	cmd := &cobra.Command{
		Use:   "open <id|name>",
		Short: "Write a saved document as parser output",
		Long: `Write a saved document as parser output, or as a graph document with
--graph. A name resolves to the most recently updated document with that name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStorage(ctx, &sf)
			if err != nil {
				return err
			}
			defer st.Close()

			doc, err := storage.Resolve(ctx, st, args[0])
			if err != nil {
				return err
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			s, lc, err := c.newStore(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer lc.Close()
			s.LoadDocument(doc.Graph)
			c.Logger.Info("Opened document", "name", doc.Name, "id", doc.ID, "types", len(doc.Graph.Nodes))

			return writeModel(cmd.OutOrStdout(), s, out)
		},
	}

	sf.register(cmd)
	out.register(cmd)

	return cmd
}

// docsCommand creates the docs command for listing and deleting documents.
func (c *CLI) docsCommand() *cobra.Command {
	var sf storageFlags

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "List saved documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStorage(ctx, &sf)
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.List(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No saved documents")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), docsTable(list, time.Now()))
			return nil
		},
	}
	sf.register(cmd)

	cmd.AddCommand(c.docsDeleteCommand())
	return cmd
}

func (c *CLI) docsDeleteCommand() *cobra.Command {
	var sf storageFlags

	cmd := &cobra.Command{
		Use:     "rm <id|name>",
		Aliases: []string{"delete"},
		Short:   "Delete a saved document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStorage(ctx, &sf)
			if err != nil {
				return err
			}
			defer st.Close()

			doc, err := storage.Resolve(ctx, st, args[0])
			if err != nil {
				return err
			}
			if err := st.Delete(ctx, doc.ID); err != nil {
				return err
			}
			printSuccess("Deleted %s", StyleHighlight.Render(doc.Name))
			printDetail("id: %s", doc.ID)
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}

func docsTable(list []storage.Summary, now time.Time) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, len(list))
	for i, d := range list {
		rows[i] = []string{d.Name, d.ID, fmt.Sprint(d.Nodes), fmt.Sprint(d.Edges), formatRelativeTime(d.UpdatedAt, now)}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "ID", "Types", "Edges", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleHighlight
			case col == 1 || col == 4:
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
