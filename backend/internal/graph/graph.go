// Package graph holds the in-memory associative memory: concepts linked by
// co-occurrence, each carrying the memory fragments recorded about it.
//
// All methods are safe for concurrent use. Reads return copies, so nothing a
// caller does with a result can change graph state.
package graph

import (
	"sort"
	"sync"
)

// Graph is an undirected concept graph with at most one edge per concept pair
type Graph struct {
	mu      sync.RWMutex
	nodes   map[string]*entry
	order   []string // concepts in creation order
	edges   []Edge   // edges in creation order
	edgeSet map[edgeKey]struct{}
}

type entry struct {
	fragments []string
	neighbors []string // in connection order
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]*entry),
		edgeSet: make(map[edgeKey]struct{}),
	}
}

// Connect ensures an association between two concepts, creating either
// endpoint with no fragments when it does not exist yet. Connecting an
// already associated pair does nothing.
func (g *Graph) Connect(a, b string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connectLocked(a, b)
}

// AddFragment appends a memory fragment to a concept, creating the concept
// when needed
func (g *Graph) AddFragment(concept, fragment string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.ensureLocked(concept)
	n.fragments = append(n.fragments, fragment)
}

// Node looks up a concept. The returned fragments are a copy.
func (g *Graph) Node(concept string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[concept]
	if !ok {
		return Node{}, false
	}
	return Node{Concept: concept, Fragments: cloneStrings(n.fragments)}, true
}

// Related recalls what is known about a topic. The first layer holds the
// topic's own fragments. The second layer, filled only when depth >= 2,
// concatenates the fragments of every direct neighbor in connection order.
// An unknown topic yields two empty layers.
func (g *Graph) Related(topic string, depth int) (first, second []string) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	first, second = []string{}, []string{}
	n, ok := g.nodes[topic]
	if !ok {
		return first, second
	}

	first = append(first, n.fragments...)
	if depth < 2 {
		return first, second
	}
	for _, neighbor := range n.neighbors {
		second = append(second, g.nodes[neighbor].fragments...)
	}
	return first, second
}

// Recall is Related packaged for API and chat consumers
func (g *Graph) Recall(topic string, depth int) Related {
	first, second := g.Related(topic, depth)
	return Related{Topic: topic, Depth: depth, FirstLayer: first, SecondLayer: second}
}

// Nodes returns every concept in creation order
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodesLocked()
}

// Edges returns every association once, in creation order
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Snapshot returns nodes and edges read under a single lock
func (g *Graph) Snapshot() ([]Node, []Edge) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return g.nodesLocked(), edges
}

// Clear removes every concept and association
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

// Replace swaps the whole graph state for the given nodes and edges.
// Edge endpoints missing from nodes are created empty.
func (g *Graph) Replace(nodes []Node, edges []Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.resetLocked()
	for _, node := range nodes {
		n := g.ensureLocked(node.Concept)
		n.fragments = append(n.fragments, node.Fragments...)
	}
	for _, e := range edges {
		g.connectLocked(e.Source, e.Target)
	}
}

// Len returns the number of concepts
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of associations
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Degree returns the number of neighbors of a concept, 0 when absent
func (g *Graph) Degree(concept string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[concept]; ok {
		return len(n.neighbors)
	}
	return 0
}

// Stats returns fragment count and degree for every concept in creation order
func (g *Graph) Stats() []NodeStat {
	g.mu.RLock()
	defer g.mu.RUnlock()
	stats := make([]NodeStat, 0, len(g.order))
	for _, concept := range g.order {
		n := g.nodes[concept]
		stats = append(stats, NodeStat{
			Concept:   concept,
			Fragments: len(n.fragments),
			Degree:    len(n.neighbors),
		})
	}
	return stats
}

// Prominent keeps concepts with more than minFragments fragments and more
// than minDegree neighbors, busiest first
func (g *Graph) Prominent(minFragments, minDegree int) []NodeStat {
	var out []NodeStat
	for _, s := range g.Stats() {
		if s.Fragments > minFragments && s.Degree > minDegree {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Degree != out[j].Degree {
			return out[i].Degree > out[j].Degree
		}
		return out[i].Fragments > out[j].Fragments
	})
	return out
}

func (g *Graph) ensureLocked(concept string) *entry {
	n, ok := g.nodes[concept]
	if !ok {
		n = &entry{fragments: []string{}}
		g.nodes[concept] = n
		g.order = append(g.order, concept)
	}
	return n
}

func (g *Graph) connectLocked(a, b string) {
	na := g.ensureLocked(a)
	nb := g.ensureLocked(b)

	key := newEdgeKey(a, b)
	if _, exists := g.edgeSet[key]; exists {
		return
	}
	g.edgeSet[key] = struct{}{}
	g.edges = append(g.edges, Edge{Source: a, Target: b})

	na.neighbors = append(na.neighbors, b)
	if a != b {
		nb.neighbors = append(nb.neighbors, a)
	}
}

func (g *Graph) nodesLocked() []Node {
	out := make([]Node, 0, len(g.order))
	for _, concept := range g.order {
		out = append(out, Node{Concept: concept, Fragments: cloneStrings(g.nodes[concept].fragments)})
	}
	return out
}

func (g *Graph) resetLocked() {
	g.nodes = make(map[string]*entry)
	g.order = nil
	g.edges = nil
	g.edgeSet = make(map[edgeKey]struct{})
}
