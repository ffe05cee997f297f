package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/typegraph/pkg/ast"
	"github.com/matzehuels/typegraph/pkg/config"
	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/importer"
	"github.com/matzehuels/typegraph/pkg/observability"
	"github.com/matzehuels/typegraph/pkg/server"
	"github.com/matzehuels/typegraph/pkg/storage"
	"github.com/matzehuels/typegraph/pkg/store"
	"github.com/matzehuels/typegraph/pkg/watch"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string
	watch     bool
	noWatch   bool
	storage   bool
	autoLay   bool
	patterns  []string
	noMetrics bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		filters filterFlags
		opts    serveOpts
	)

	cmd := &cobra.Command{
		Use:   "serve [model.json|dir]...",
		Short: "Serve a model over HTTP",
		Long: `Serve a model over HTTP.

The API exposes the graph, namespace tree, diagnostics and view state, accepts
JSON edit commands with undo and redo, streams changes as server-sent events
and renders DOT and SVG. Prometheus metrics are served at /metrics.

With --watch the inputs are reloaded whenever a matching file changes. With
--storage documents can be saved and opened through /api/documents.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args, &filters, opts)
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "", "listen address (default: "+config.DefaultAddr+")")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "reload inputs when they change")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "do not watch inputs, even if the config enables it")
	cmd.Flags().StringSliceVar(&opts.patterns, "pattern", nil, "file globs that trigger a reload (default: *.json)")
	cmd.Flags().BoolVar(&opts.storage, "storage", false, "enable the document endpoints")
	cmd.Flags().BoolVar(&opts.autoLay, "auto-layout", true, "lay out the visible graph in the background after every change")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "do not collect Prometheus metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, inputs []string, flags *filterFlags, opts serveOpts) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	filters, err := flags.apply(cfg.Import)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	var hooks []store.Option
	srvOpts := server.Options{Logger: c.Logger, Gatherer: reg, Filters: &filters}
	if !opts.noMetrics {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := observability.NewMetrics(reg)
		observability.SetLayoutHooks(metrics)
		observability.SetCacheHooks(metrics)
		defer observability.Reset()
		hooks = append(hooks, store.WithHooks(metrics))
		srvOpts.Hooks = metrics
	}

	s, lc, err := c.newStore(ctx, cfg, false, hooks...)
	if err != nil {
		return err
	}
	defer lc.Close()

	if len(inputs) > 0 {
		if _, err := c.reload(s, inputs, &filters); err != nil {
			return err
		}
	}

	if opts.storage {
		st, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer st.Close()
		srvOpts.Storage = st
		c.Logger.Info("Document storage enabled", "backend", cfg.Storage.Backend)
	}

	if opts.autoLay {
		stop := s.AutoLayout(ctx)
		defer stop()
	}

	watchInputs := (cfg.Server.Watch || opts.watch) && !opts.noWatch
	if watchInputs && len(inputs) > 0 {
		patterns := cfg.Server.Patterns
		if len(opts.patterns) > 0 {
			patterns = opts.patterns
		}
		w, err := watch.New(watch.Options{
			Paths:    inputs,
			Patterns: patterns,
			Debounce: cfg.Server.Debounce,
			Logger:   c.Logger,
		}, func(changed []string) {
			c.Logger.Info("Inputs changed", "files", len(changed))
			if _, err := c.reload(s, inputs, &filters); err != nil {
				c.Logger.Error("Reload failed", "err", err)
			}
		})
		if err != nil {
			return fmt.Errorf("watch inputs: %w", err)
		}
		if err := w.Start(); err != nil {
			return fmt.Errorf("watch inputs: %w", err)
		}
		defer w.Close()
		c.Logger.Info("Watching inputs", "paths", strings.Join(inputs, ", "), "patterns", strings.Join(patterns, ","))
	}

	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}
	printSuccess("Serving %d types on %s", len(s.Nodes()), StyleHighlight.Render("http://"+addr))
	printDetail("Press Ctrl+C to stop")

	return server.New(s, srvOpts).ListenAndServe(ctx, addr)
}

// reload replaces the store's model with the current contents of inputs. A
// single *.graph.json input is read as a graph document; anything else is
// parser output.
func (c *CLI) reload(s *store.Store, inputs []string, filters *importer.Filters) (importer.Result, error) {
	prog := newProgress(c.Logger)
	if isGraphFile(inputs) {
		doc, err := graph.ReadDocumentFile(inputs[0])
		if err != nil {
			return importer.Result{}, err
		}
		s.LoadDocument(doc)
		prog.done(fmt.Sprintf("Loaded %d types from %s", len(doc.Nodes), inputs[0]))
		return importer.Result{Nodes: doc.Nodes, Edges: doc.Edges}, nil
	}

	models, err := ast.ReadModelsPaths(inputs...)
	if err != nil {
		return importer.Result{}, err
	}
	res := s.LoadModels(models, filters)
	c.Logger.Debug("import finished",
		"models", len(models),
		"skipped", res.Skipped,
		"duplicates", res.Duplicates,
		"filtered", res.Filtered)
	prog.done(fmt.Sprintf("Imported %d types from %d models", len(res.Nodes), len(models)))
	return res, nil
}
