package dag

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfLoop is returned by [DAG.AddEdge] for an edge from a node to
	// itself. Self loops carry no ranking information.
	ErrSelfLoop = errors.New("self loop")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a cycle is detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")

	// ErrBackwardEdge is returned by [DAG.Validate] when an edge does not
	// point to a later row.
	ErrBackwardEdge = errors.New("edge does not point to a later row")
)

// NodeKind distinguishes real types from vertices inserted during layout.
type NodeKind int

const (
	// NodeKindRegular is a type from the input graph.
	NodeKindRegular NodeKind = iota
	// NodeKindVirtual is a bend point inserted to split a long edge.
	NodeKindVirtual
)

// Node is a vertex with a size and a row assignment.
type Node struct {
	ID     string
	Row    int
	Width  float64
	Height float64

	Kind NodeKind
	// MasterID is the source of the edge a virtual node was inserted for.
	MasterID string
}

// IsVirtual reports whether the node was inserted by edge subdivision.
func (n Node) IsVirtual() bool { return n.Kind == NodeKindVirtual }

// Edge is a directed connection between two nodes.
type Edge struct {
	From string
	To   string
}

// DAG is a directed graph organized into rows. It is acyclic once
// [transform.BreakCycles] has run.
//
// The zero value is not usable; use [New].
type DAG struct {
	nodes    map[string]*Node
	order    []*Node
	edges    []Edge
	outgoing map[string][]string
	incoming map[string][]string
	rows     map[int][]*Node
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		rows:     make(map[int][]*Node),
	}
}

// AddNode adds a node and indexes it by its Row.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := &n
	d.nodes[node.ID] = node
	d.order = append(d.order, node)
	d.rows[node.Row] = append(d.rows[node.Row], node)
	return nil
}

// SetRows updates row assignments and rebuilds the row index. Nodes not in
// rows keep their current row.
func (d *DAG) SetRows(rows map[string]int) {
	d.rows = make(map[int][]*Node)
	for _, n := range d.order {
		if r, ok := rows[n.ID]; ok {
			n.Row = r
		}
		d.rows[n.Row] = append(d.rows[n.Row], n)
	}
}

// SetRowOrder replaces the order of the nodes in row. ids must be a
// permutation of the row's node IDs; unknown IDs are ignored.
func (d *DAG) SetRowOrder(row int, ids []string) {
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := d.nodes[id]; ok && n.Row == row {
			nodes = append(nodes, n)
		}
	}
	d.rows[row] = nodes
}

// AddEdge adds a directed edge between two existing, distinct nodes.
// Parallel edges are kept; they weigh more in ordering.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if e.From == e.To {
		return ErrSelfLoop
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// HasEdge reports whether an edge from→to exists.
func (d *DAG) HasEdge(from, to string) bool {
	return slices.Contains(d.outgoing[from], to)
}

// RemoveEdge removes the first edge from→to, if any.
func (d *DAG) RemoveEdge(from, to string) {
	if i := slices.IndexFunc(d.edges, func(e Edge) bool { return e.From == from && e.To == to }); i >= 0 {
		d.edges = slices.Delete(d.edges, i, i+1)
	}
	if i := slices.Index(d.outgoing[from], to); i >= 0 {
		d.outgoing[from] = slices.Delete(d.outgoing[from], i, i+1)
	}
	if i := slices.Index(d.incoming[to], from); i >= 0 {
		d.incoming[to] = slices.Delete(d.incoming[to], i, i+1)
	}
}

// Nodes returns all nodes in insertion order. The pointers refer to the
// graph's nodes.
func (d *DAG) Nodes() []*Node { return slices.Clone(d.order) }

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes.
func (d *DAG) NodeCount() int { return len(d.order) }

// EdgeCount returns the number of edges.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the targets of the node's outgoing edges. Read only.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parents returns the sources of the node's incoming edges. Read only.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// InDegree returns the number of incoming edges.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// OutDegree returns the number of outgoing edges.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// Node returns the node with the given ID.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// NodesInRow returns the nodes of a row in their current order.
func (d *DAG) NodesInRow(row int) []*Node { return d.rows[row] }

// RowIDs returns all row indices in ascending order.
func (d *DAG) RowIDs() []int { return slices.Sorted(maps.Keys(d.rows)) }

// MaxRow returns the highest row index, or 0 for an empty graph.
func (d *DAG) MaxRow() int {
	ids := d.RowIDs()
	if len(ids) == 0 {
		return 0
	}
	return ids[len(ids)-1]
}

// Sources returns nodes without incoming edges, in insertion order.
func (d *DAG) Sources() []*Node {
	var sources []*Node
	for _, n := range d.order {
		if len(d.incoming[n.ID]) == 0 {
			sources = append(sources, n)
		}
	}
	return sources
}

// Orders returns the current node order of every row.
func (d *DAG) Orders() map[int][]string {
	orders := make(map[int][]string, len(d.rows))
	for r, nodes := range d.rows {
		orders[r] = NodeIDs(nodes)
	}
	return orders
}

// Validate checks that the graph is acyclic and that every edge points to a
// strictly later row.
func (d *DAG) Validate() error {
	for _, e := range d.edges {
		if d.nodes[e.To].Row <= d.nodes[e.From].Row {
			return ErrBackwardEdge
		}
	}
	return d.detectCycles()
}

func (d *DAG) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
		}
		color[id] = black
	}

	for _, n := range d.order {
		if color[n.ID] == white {
			dfs(n.ID)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

// PosMap maps each ID to its index in ids.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// NodeIDs extracts the IDs of nodes in order.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
