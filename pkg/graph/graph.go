package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// Document is the canonical serialization of a node/edge set.
// Used for files, storage backends, caching keys and API responses.
type Document struct {
	Nodes []*Node `json:"nodes" bson:"nodes"`
	Edges []Edge  `json:"edges" bson:"edges"`
}

// NewDocument builds a document from nodes and edges. Nodes are sorted by id
// and edges by id for deterministic output; the inputs are not modified.
func NewDocument(nodes []*Node, edges []Edge) Document {
	d := Document{
		Nodes: slices.Clone(nodes),
		Edges: slices.Clone(edges),
	}
	slices.SortFunc(d.Nodes, func(a, b *Node) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(d.Edges, func(a, b Edge) int { return strings.Compare(a.ID, b.ID) })
	if d.Nodes == nil {
		d.Nodes = []*Node{}
	}
	if d.Edges == nil {
		d.Edges = []Edge{}
	}
	return d
}

// WriteDocument writes d as indented JSON to w.
func WriteDocument(d Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteDocumentFile writes d to a JSON file.
// The file is created with 0644 permissions.
func WriteDocumentFile(d Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDocument(d, f)
}

// ReadDocument decodes a JSON document from r.
// Nodes with an empty id get one derived from namespace and name, and nil
// member slices are replaced by empty ones.
func ReadDocument(r io.Reader) (Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Document{}, fmt.Errorf("decode: %w", err)
	}
	d.Nodes = slices.DeleteFunc(d.Nodes, func(n *Node) bool { return n == nil })
	for _, n := range d.Nodes {
		if n.ID == "" {
			n.ID = NodeID(n.Namespace, n.Name)
		}
		if n.Members == nil {
			n.Members = []Member{}
		}
	}
	for i := range d.Edges {
		if d.Edges[i].ID == "" {
			e := d.Edges[i]
			d.Edges[i].ID = EdgeID(e.Source, e.Target, e.Kind, e.Label)
		}
	}
	return d, nil
}

// ReadDocumentFile reads a JSON document from path.
func ReadDocumentFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(f)
}
