// Package dag provides the directed acyclic graph a resolved package
// selection is reported as: one node per selected recipe, one edge per
// requirement. It supports cycle detection, topological build ordering,
// and serves as the input to DOT export.
package dag

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with
	// the same ID already exists. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From
	// node does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To
	// node does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrGraphHasCycle is returned by [Graph.Validate] and
	// [Graph.TopoOrder] when a cycle is detected. Cycles are found using
	// depth-first search with white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores arbitrary key-value pairs attached to nodes, typically
// the selected version, variant and installed flag. Metadata maps are
// never nil after AddNode.
type Metadata map[string]any

// Node represents one package family in a resolved selection.
// The zero value is not usable - ID must be set before adding to a Graph.
type Node struct {
	ID   string   // Unique identifier (the family name)
	Meta Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// Edge represents a directed requirement: From requires To.
type Edge struct {
	From string // Dependent package family
	To   string // Required package family
}

// Graph is a directed graph of package requirements. Insertion order of
// nodes and edges is preserved, which keeps traversal and export output
// deterministic.
//
// The zero value is not usable - use New to create a valid Graph.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes    map[string]*Node
	order    []string // node IDs in insertion order
	edges    []Edge
	outgoing map[string][]string // nodeID -> required IDs
	incoming map[string][]string // nodeID -> dependent IDs
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddNode adds a node to the graph. Returns ErrInvalidNodeID if the node
// ID is empty, or ErrDuplicateNodeID if a node with the same ID exists.
// The node's Meta field is initialized to an empty map if nil.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	return nil
}

// AddEdge adds a directed edge between two existing nodes. Duplicate
// edges between the same pair are ignored. Returns ErrUnknownSourceNode
// or ErrUnknownTargetNode if either endpoint is missing.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if slices.Contains(g.outgoing[e.From], e.To) {
		return nil
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

// Node returns the node with the given ID and true, or nil and false if
// not found. The pointer refers to the actual node, so metadata edits
// affect the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Requires returns the IDs this node has edges to (its requirements).
// The returned slice is a read-only view.
func (g *Graph) Requires(id string) []string { return g.outgoing[id] }

// RequiredBy returns the IDs that have edges to this node (its
// dependents). The returned slice is a read-only view.
func (g *Graph) RequiredBy(id string) []string { return g.incoming[id] }

// Roots returns nodes with no incoming edges, in insertion order. For a
// resolved selection this is normally just the requested package.
func (g *Graph) Roots() []*Node {
	var roots []*Node
	for _, id := range g.order {
		if len(g.incoming[id]) == 0 {
			roots = append(roots, g.nodes[id])
		}
	}
	return roots
}

// Validate returns ErrGraphHasCycle if the graph contains a directed
// cycle, nil otherwise. Runs in O(N+E) using depth-first search.
func (g *Graph) Validate() error {
	_, err := g.topoSort()
	return err
}

// TopoOrder returns node IDs ordered so that every node's requirements
// appear before the node itself - a valid sequential build order.
// Returns ErrGraphHasCycle if the graph is cyclic.
func (g *Graph) TopoOrder() ([]string, error) {
	return g.topoSort()
}

// topoSort performs a depth-first postorder walk. Requirements are
// emitted before their dependents; ties follow node insertion order.
func (g *Graph) topoSort() ([]string, error) {
	const (
		white = iota // unvisited
		gray         // on the current stack
		black        // done
	)

	color := make(map[string]int, len(g.nodes))
	out := make([]string, 0, len(g.nodes))
	var cyclic bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, req := range g.outgoing[id] {
			switch color[req] {
			case white:
				dfs(req)
			case gray:
				cyclic = true
			}
			if cyclic {
				return
			}
		}
		color[id] = black
		out = append(out, id)
	}

	for _, id := range g.order {
		if color[id] == white {
			dfs(id)
			if cyclic {
				return nil, ErrGraphHasCycle
			}
		}
	}
	return out, nil
}
