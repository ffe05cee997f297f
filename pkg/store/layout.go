package store

import (
	"context"
	"time"

	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/layout"
)

// LayoutOptions returns the current layout options.
func (s *Store) LayoutOptions() layout.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layoutOpts
}

// SetLayoutOptions replaces the layout options. Zero fields take defaults.
func (s *Store) SetLayoutOptions(o layout.Options) error {
	return s.view("setLayoutOptions", func() error {
		s.layoutOpts = o.WithDefaults()
		return nil
	})
}

// LayoutInput returns the visible graph and the layout options, taken from
// one consistent state. The result can be handed to a [layout.Worker].
func (s *Store) LayoutInput() ([]*graph.Node, []graph.Edge, layout.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nodes := VisibleNodes(s.cur.nodes, s.vis)
	return nodes, VisibleEdges(s.cur.edges, nodes), s.layoutOpts
}

// Relayout lays out the visible graph with the configured engine and applies
// the positions. Hidden nodes keep theirs.
func (s *Store) Relayout(ctx context.Context) error {
	start := time.Now()
	nodes, edges, opts := s.LayoutInput()
	laid, err := s.layouter.Layout(ctx, nodes, edges, opts)
	if err != nil {
		s.logger.Debug("layout failed", "nodes", len(nodes), "err", err)
		return err
	}
	s.logger.Debug("layout", "nodes", len(nodes), "edges", len(edges), "elapsed", time.Since(start))
	return s.ApplyLayout(laid)
}

// ApplyLayout applies the positions of laid-out nodes, typically a
// [layout.Update] delivered by a background worker.
func (s *Store) ApplyLayout(nodes []*graph.Node) error {
	pos := make(map[string]graph.Position, len(nodes))
	for _, n := range nodes {
		pos[n.ID] = n.Position
	}
	return s.ApplyPositions(pos)
}

// ApplyPositions moves nodes to the given positions. Unknown ids are
// ignored, so a layout computed before a rename or delete is harmless.
// Positions are not recorded in the undo history.
func (s *Store) ApplyPositions(pos map[string]graph.Position) error {
	return s.commit("applyPositions", false, func(t *tx) error {
		for id, p := range pos {
			i, ok := t.pos[id]
			if !ok || t.nodes[i].Position == p {
				continue
			}
			t.mutable(i).Position = p
		}
		return nil
	})
}

// layoutNeutral lists commands after which the current layout stays valid.
var layoutNeutral = map[string]bool{
	"applyPositions": true,
	"selectNode":     true,
	"setSearchQuery": true,
	"toggleExplorer": true,
}

// AutoLayout lays out the visible graph on a background [layout.Worker] now
// and after every change that can move nodes. Only the result of the newest
// submission is applied. stop cancels the running layout and unsubscribes.
func (s *Store) AutoLayout(ctx context.Context) (stop func()) {
	var w *layout.Worker
	w = layout.NewWorker(s.layouter, func(u layout.Update) {
		if u.Err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("background layout failed", "generation", u.Generation, "err", u.Err)
			}
			return
		}
		if !w.IsCurrent(u.Generation) {
			return
		}
		if err := s.ApplyLayout(u.Nodes); err != nil {
			s.logger.Warn("apply background layout", "err", err)
		}
	})

	submit := func() {
		nodes, edges, opts := s.LayoutInput()
		gen := w.Submit(ctx, nodes, edges, opts)
		s.logger.Debug("layout submitted", "generation", gen, "nodes", len(nodes))
	}
	cancel := s.Subscribe(func(ev Event) {
		if !layoutNeutral[ev.Command] {
			submit()
		}
	})
	submit()

	return func() {
		cancel()
		w.Close()
	}
}
