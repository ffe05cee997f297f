package store

import (
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/typegraph/pkg/ast"
	"github.com/matzehuels/typegraph/pkg/errors"
	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/history"
	"github.com/matzehuels/typegraph/pkg/importer"
	"github.com/matzehuels/typegraph/pkg/layout"
	"github.com/matzehuels/typegraph/pkg/nstree"
	"github.com/matzehuels/typegraph/pkg/observability"
	"github.com/matzehuels/typegraph/pkg/validate"
)

// DefaultExpandThreshold is the largest model that is shown fully expanded
// after loading. Bigger models start with every namespace collapsed.
const DefaultExpandThreshold = 100

// Snapshot is an immutable view of the model. The nodes are shared with the
// store and must not be modified.
type Snapshot struct {
	Nodes   []*graph.Node `json:"nodes"`
	Edges   []graph.Edge  `json:"edges"`
	Version uint64        `json:"version"`
}

// Event is delivered to subscribers after every state transition.
type Event struct {
	Command  string
	Snapshot Snapshot
}

// Option configures a [Store].
type Option func(*Store)

// WithLogger sets the logger used for command tracing. The default discards.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLayouter sets the engine used by [Store.Relayout].
func WithLayouter(l layout.Layouter) Option {
	return func(s *Store) {
		if l != nil {
			s.layouter = l
		}
	}
}

// WithHistoryLimit bounds the number of undo steps kept.
func WithHistoryLimit(n int) Option {
	return func(s *Store) { s.historyLimit = n }
}

// WithHooks overrides the globally registered store hooks.
func WithHooks(h observability.StoreHooks) Option {
	return func(s *Store) { s.hooks = h }
}

// WithExpandThreshold sets the model size up to which every namespace is
// expanded on load.
func WithExpandThreshold(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.expandThreshold = n
		}
	}
}

// WithLayoutOptions sets the initial layout options.
func WithLayoutOptions(o layout.Options) Option {
	return func(s *Store) { s.layoutOpts = o.WithDefaults() }
}

// model is the undoable part of the state.
type model struct {
	nodes []*graph.Node
	edges []graph.Edge
	byID  map[string]*graph.Node
}

func newModel(nodes []*graph.Node, edges []graph.Edge) model {
	byID := make(map[string]*graph.Node, len(nodes))
	for _, n := range nodes {
		if _, ok := byID[n.ID]; !ok {
			byID[n.ID] = n
		}
	}
	return model{nodes: nodes, edges: edges, byID: byID}
}

// Store is the graph store. All methods are safe for concurrent use; commands
// are serialized.
type Store struct {
	mu sync.Mutex

	cur      model
	diags    []graph.ValidationError
	vis      Visibility
	selected string
	query    string

	layoutOpts layout.Options
	history    *history.Manager[model]
	version    uint64

	subs    map[int]func(Event)
	nextSub int

	logger          *log.Logger
	layouter        layout.Layouter
	hooks           observability.StoreHooks
	historyLimit    int
	expandThreshold int
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		cur:             newModel(nil, nil),
		vis:             newVisibility(),
		layoutOpts:      layout.DefaultOptions(),
		subs:            make(map[int]func(Event)),
		logger:          log.New(io.Discard),
		layouter:        layout.Engine{},
		historyLimit:    history.DefaultLimit,
		expandThreshold: DefaultExpandThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = history.New[model](s.historyLimit)
	return s
}

func (s *Store) storeHooks() observability.StoreHooks {
	if s.hooks != nil {
		return s.hooks
	}
	return observability.Store()
}

// =============================================================================
// Loading
// =============================================================================

// LoadModels replaces the whole state with the graph projected from models.
// History, selection and search are reset and the initial visibility is
// derived from the number of types.
func (s *Store) LoadModels(models []*ast.Model, filters *importer.Filters) importer.Result {
	res := importer.ToGraph(models, filters)
	s.Load(res.Nodes, res.Edges)
	if res.Skipped > 0 || res.Duplicates > 0 {
		s.logger.Debug("import skipped elements", "unsupported", res.Skipped, "duplicates", res.Duplicates)
	}
	return res
}

// LoadDocument replaces the state with a previously saved document.
func (s *Store) LoadDocument(d graph.Document) {
	s.Load(d.Nodes, d.Edges)
}

// Load replaces the state with nodes and edges. The slices are taken over by
// the store.
func (s *Store) Load(nodes []*graph.Node, edges []graph.Edge) {
	start := time.Now()
	nodes, edges, dropped := normalize(nodes, edges)
	if dropped > 0 {
		s.logger.Warn("dropped edges with missing or duplicate endpoints", "edges", dropped)
	}
	s.mu.Lock()
	s.history.Clear()
	s.selected = ""
	s.query = ""
	explorer := s.vis.ExplorerOpen
	s.vis = initialVisibility(nodes, len(nodes), s.expandThreshold)
	s.vis.ExplorerOpen = explorer
	snap := s.install(newModel(nodes, edges))
	subs := s.subscribers()
	s.mu.Unlock()

	s.logger.Debug("loaded", "nodes", len(nodes), "edges", len(edges), "elapsed", time.Since(start))
	s.storeHooks().OnLoad(len(nodes), len(edges))
	notify(subs, Event{Command: "load", Snapshot: snap})
}

// normalize recomputes the external reference flags of loaded nodes and
// drops edges whose endpoints are not in the node set, along with repeated
// edge ids. Nodes whose flag changes are cloned.
func normalize(nodes []*graph.Node, edges []graph.Edge) ([]*graph.Node, []graph.Edge, int) {
	ix := graph.BuildNameIndex(nodes)
	ids := make(map[string]bool, len(nodes))
	out := make([]*graph.Node, len(nodes))
	for i, n := range nodes {
		ids[n.ID] = true
		if ext := ix.HasExternalRefs(n); ext != n.HasExternalRefs {
			n = n.Clone()
			n.HasExternalRefs = ext
		}
		out[i] = n
	}

	kept := make([]graph.Edge, 0, len(edges))
	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		if !ids[e.Source] || !ids[e.Target] || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		kept = append(kept, e)
	}
	return out, kept, len(edges) - len(kept)
}

// =============================================================================
// Read API
// =============================================================================

// Nodes returns every node with its diagnostics attached.
func (s *Store) Nodes() []*graph.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cur.nodes)
}

// Edges returns every edge.
func (s *Store) Edges() []graph.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cur.edges)
}

// Node returns the node with the given id.
func (s *Store) Node(id string) (*graph.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.cur.byID[id]
	return n, ok
}

// Snapshot returns the current model.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Document returns the current model in its serializable form.
func (s *Store) Document() graph.Document {
	snap := s.Snapshot()
	return graph.NewDocument(snap.Nodes, snap.Edges)
}

// Diagnostics returns the findings of the last validation run.
func (s *Store) Diagnostics() []graph.ValidationError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.diags)
}

// NamespaceTree groups the nodes by namespace, filtered by query.
func (s *Store) NamespaceTree(query string) []nstree.Namespace {
	s.mu.Lock()
	tree := nstree.Build(s.cur.nodes)
	s.mu.Unlock()
	return nstree.Filter(tree, query)
}

// CanUndo reports whether [Store.Undo] would succeed.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether [Store.Redo] would succeed.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// UndoLabels returns the names of the undoable commands, most recent first.
func (s *Store) UndoLabels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.UndoLabels()
}

// Version increases with every state transition.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// =============================================================================
// Subscriptions
// =============================================================================

// Subscribe registers fn to be called after every state transition. fn runs
// on the goroutine that issued the command, after the store lock has been
// released. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) subscribers() []func(Event) {
	if len(s.subs) == 0 {
		return nil
	}
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Event), len(ids))
	for i, id := range ids {
		fns[i] = s.subs[id]
	}
	return fns
}

func notify(fns []func(Event), ev Event) {
	for _, fn := range fns {
		fn(ev)
	}
}

// =============================================================================
// Transactions
// =============================================================================

// commit runs fn against a copy of the model. On success the copy becomes the
// current model and, when record is set, the previous one is pushed onto the
// undo stack. A command that changes nothing commits nothing.
func (s *Store) commit(command string, record bool, fn func(*tx) error) error {
	start := time.Now()
	s.mu.Lock()
	t := newTx(s.cur)
	if err := fn(t); err != nil {
		s.mu.Unlock()
		s.logger.Debug("command rejected", "command", command, "err", err)
		s.storeHooks().OnCommand(command, time.Since(start), err)
		return err
	}
	if !t.changed {
		s.mu.Unlock()
		s.storeHooks().OnCommand(command, time.Since(start), nil)
		return nil
	}
	if record {
		s.history.Record(command, s.cur)
	}
	snap := s.install(t.finish())
	for _, fn := range t.onCommit {
		fn(s)
	}
	subs := s.subscribers()
	s.mu.Unlock()

	elapsed := time.Since(start)
	s.logger.Debug("committed", "command", command, "nodes", len(snap.Nodes), "edges", len(snap.Edges), "elapsed", elapsed)
	s.storeHooks().OnCommand(command, elapsed, nil)
	notify(subs, Event{Command: command, Snapshot: snap})
	return nil
}

// view applies a change to the non-undoable view state.
func (s *Store) view(command string, fn func() error) error {
	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.version++
	snap := s.snapshot()
	subs := s.subscribers()
	s.mu.Unlock()
	notify(subs, Event{Command: command, Snapshot: snap})
	return nil
}

// install makes m the current model: diagnostics are recomputed and
// attached, the version is bumped and a dangling selection is cleared.
// Callers hold the lock.
func (s *Store) install(m model) Snapshot {
	diags := validate.Graph(m.nodes, m.edges)
	if nodes, changed := attachDiagnostics(m.nodes, validate.ByNode(diags)); changed {
		m = newModel(nodes, m.edges)
	}
	s.cur = m
	s.diags = diags
	s.version++
	if _, ok := m.byID[s.selected]; !ok {
		s.selected = ""
	}
	return s.snapshot()
}

func (s *Store) snapshot() Snapshot {
	return Snapshot{
		Nodes:   slices.Clone(s.cur.nodes),
		Edges:   slices.Clone(s.cur.edges),
		Version: s.version,
	}
}

// attachDiagnostics replaces every node whose diagnostics changed with a
// copy carrying the new ones.
func attachDiagnostics(nodes []*graph.Node, byNode map[string][]graph.ValidationError) ([]*graph.Node, bool) {
	out := nodes
	changed := false
	for i, n := range nodes {
		d := byNode[n.ID]
		if slices.Equal(n.Errors, d) {
			continue
		}
		if !changed {
			out = slices.Clone(nodes)
			changed = true
		}
		c := n.Clone()
		c.Errors = d
		out[i] = c
	}
	return out, changed
}

// =============================================================================
// History
// =============================================================================

// Undo reverts the most recent command.
func (s *Store) Undo() error {
	return s.travel("undo", s.history.Undo, errors.ErrCodeNothingToUndo)
}

// Redo reapplies the most recently undone command.
func (s *Store) Redo() error {
	return s.travel("redo", s.history.Redo, errors.ErrCodeNothingToRedo)
}

func (s *Store) travel(action string, step func(model) (model, history.Entry[model], bool), empty errors.Code) error {
	s.mu.Lock()
	next, entry, ok := step(s.cur)
	if !ok {
		s.mu.Unlock()
		return errors.New(empty, "nothing to %s", action)
	}
	snap := s.install(keepPositions(next, s.cur))
	subs := s.subscribers()
	s.mu.Unlock()

	s.logger.Debug(action, "command", entry.Label)
	s.storeHooks().OnHistory(action)
	notify(subs, Event{Command: action, Snapshot: snap})
	return nil
}

// keepPositions carries the current layout over to a restored model, since
// positions are not part of the undoable state.
func keepPositions(restored, current model) model {
	var nodes []*graph.Node
	for i, n := range restored.nodes {
		c, ok := current.byID[n.ID]
		if !ok || c.Position == n.Position {
			continue
		}
		if nodes == nil {
			nodes = slices.Clone(restored.nodes)
		}
		moved := n.Clone()
		moved.Position = c.Position
		nodes[i] = moved
	}
	if nodes == nil {
		return restored
	}
	return newModel(nodes, restored.edges)
}
