package layout

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/observability"
)

// Update is a finished background layout.
type Update struct {
	Generation uint64
	Nodes      []*graph.Node
	Err        error
}

// Worker runs layouts on background goroutines and delivers only the result
// of the most recent submission. Submitting cancels the context of the
// previous run.
type Worker struct {
	layouter Layouter
	deliver  func(Update)

	gen    atomic.Uint64
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a worker. deliver is called from the background
// goroutine for every non-stale result. A nil layouter means [Engine].
func NewWorker(l Layouter, deliver func(Update)) *Worker {
	if l == nil {
		l = Engine{}
	}
	return &Worker{layouter: l, deliver: deliver}
}

// Submit starts a layout and returns its generation. nodes and edges must
// not be modified by the caller afterwards; the store's snapshots satisfy
// this.
func (w *Worker) Submit(ctx context.Context, nodes []*graph.Node, edges []graph.Edge, opts Options) uint64 {
	gen := w.gen.Add(1)

	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()

		out, err := w.layouter.Layout(runCtx, nodes, edges, opts)
		if gen != w.gen.Load() {
			observability.Layout().OnLayoutDiscarded(gen)
			return
		}
		if w.deliver != nil {
			w.deliver(Update{Generation: gen, Nodes: out, Err: err})
		}
	}()
	return gen
}

// Latest returns the generation of the most recent submission.
func (w *Worker) Latest() uint64 { return w.gen.Load() }

// IsCurrent reports whether gen is still the latest submission.
func (w *Worker) IsCurrent(gen uint64) bool { return gen == w.gen.Load() }

// Wait blocks until all running layouts have finished.
func (w *Worker) Wait() { w.wg.Wait() }

// Close cancels the running layout and waits for it.
func (w *Worker) Close() {
	w.gen.Add(1)
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()
	w.wg.Wait()
}
