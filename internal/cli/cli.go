package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/typegraph/pkg/buildinfo"
	"github.com/matzehuels/typegraph/pkg/cache"
	"github.com/matzehuels/typegraph/pkg/config"
	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/importer"
	"github.com/matzehuels/typegraph/pkg/layout"
	"github.com/matzehuels/typegraph/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "typegraph"

	// graphSuffix marks files holding a graph document instead of parser
	// output.
	graphSuffix = ".graph.json"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Typegraph explores and edits domain type models as graphs",
		Long: `Typegraph turns parser output for a domain model language into a graph of
types, checks it, lays it out and renders it. Edits are applied as JSON
command scripts or through the HTTP API of 'typegraph serve'.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default: ./"+config.DefaultFile+" when present)")

	root.AddCommand(c.validateCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.saveCommand())
	root.AddCommand(c.openCommand())
	root.AddCommand(c.docsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// config loads the configuration once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "path", c.configPath, "cache", cfg.Cache.Backend, "storage", cfg.Storage.Backend)
	c.cfg = cfg
	return cfg, nil
}

// filterFlags binds import filter flags that override the config file.
type filterFlags struct {
	kinds      []string
	namespaces []string
	name       string
	noOrphans  bool
	readOnly   []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.kinds, "kind", "k", nil, "keep only these kinds (data, choice, enum, func, typeAlias)")
	cmd.Flags().StringSliceVarP(&f.namespaces, "namespace", "n", nil, "keep only namespaces matching these globs")
	cmd.Flags().StringVar(&f.name, "name", "", "keep only types whose name matches this pattern")
	cmd.Flags().BoolVar(&f.noOrphans, "hide-orphans", false, "drop types without relationships")
	cmd.Flags().StringSliceVar(&f.readOnly, "read-only", nil, "mark namespaces matching these globs read-only")
}

// apply merges set flags over base.
func (f *filterFlags) apply(base importer.Filters) (importer.Filters, error) {
	out := base
	if len(f.kinds) > 0 {
		out.Kinds = nil
		for _, s := range f.kinds {
			k, err := graph.ParseKind(s)
			if err != nil {
				return out, err
			}
			out.Kinds = append(out.Kinds, k)
		}
	}
	if len(f.namespaces) > 0 {
		out.Namespaces = f.namespaces
	}
	if f.name != "" {
		out.NamePattern = f.name
	}
	if f.noOrphans {
		out.HideOrphans = true
	}
	if len(f.readOnly) > 0 {
		out.ReadOnlyNamespaces = f.readOnly
	}
	return out, nil
}

// =============================================================================
// Store Factory
// =============================================================================

// session is a loaded store with the resources backing it.
type session struct {
	store  *store.Store
	cache  cache.Cache
	result importer.Result
}

func (s *session) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}

// newStore builds a store from the configuration. Layouts go through the
// configured cache unless noCache is set.
func (c *CLI) newStore(ctx context.Context, cfg *config.Config, noCache bool, extra ...store.Option) (*store.Store, cache.Cache, error) {
	var (
		lc  cache.Cache = cache.NewNullCache()
		err error
	)
	if !noCache {
		lc, err = cfg.Cache.Open(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("open cache: %w", err)
		}
	}
	opts := []store.Option{
		store.WithLogger(c.Logger),
		store.WithHistoryLimit(cfg.History.Limit),
		store.WithExpandThreshold(cfg.Visibility.ExpandThreshold),
		store.WithLayoutOptions(cfg.Layout),
		store.WithLayouter(&layout.CachedEngine{
			Inner:  layout.Engine{},
			Cache:  cache.Scoped(lc, appName+":"),
			TTL:    cfg.Cache.TTL,
			Logger: c.Logger,
		}),
	}
	return store.New(append(opts, extra...)...), lc, nil
}

// load reads inputs into a fresh store.
func (c *CLI) load(ctx context.Context, inputs []string, flags *filterFlags, noCache bool, extra ...store.Option) (*session, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	filters := cfg.Import
	if flags != nil {
		if filters, err = flags.apply(cfg.Import); err != nil {
			return nil, err
		}
	}

	s, lc, err := c.newStore(ctx, cfg, noCache, extra...)
	if err != nil {
		return nil, err
	}
	sess := &session{store: s, cache: lc}
	if sess.result, err = c.reload(s, inputs, &filters); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

func isGraphFile(inputs []string) bool {
	return len(inputs) == 1 && strings.HasSuffix(strings.ToLower(inputs[0]), graphSuffix)
}

// =============================================================================
// Paths
// =============================================================================

// defaultOutput derives an output path next to input.
func defaultOutput(input, suffix string) string {
	input = strings.TrimSuffix(input, string(filepath.Separator))
	return filepath.Join(filepath.Dir(input), inputName(input)+suffix)
}

// inputName is the base name of input without its extension.
func inputName(input string) string {
	base := filepath.Base(strings.TrimSuffix(input, string(filepath.Separator)))
	if strings.HasSuffix(strings.ToLower(base), graphSuffix) {
		base = base[:len(base)-len(graphSuffix)]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		return appName
	}
	return base
}
