package graph

// ============================================================================
// Associative Graph Types
// ============================================================================

// Node is a concept with its memory fragments in insertion order
type Node struct {
	Concept   string   `json:"concept"`
	Fragments []string `json:"fragments"`
}

// Edge is an association between two concepts. The pair is unordered;
// Source/Target only record the order of the first Connect call.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// NodeStat summarises a concept for listings
type NodeStat struct {
	Concept   string `json:"concept"`
	Fragments int    `json:"fragments"`
	Degree    int    `json:"degree"`
}

// Related is the two-layer recall result for a topic
type Related struct {
	Topic       string   `json:"topic"`
	Depth       int      `json:"depth"`
	FirstLayer  []string `json:"first_layer"`
	SecondLayer []string `json:"second_layer"`
}

// edgeKey identifies an unordered concept pair
type edgeKey struct {
	a, b string
}

func newEdgeKey(x, y string) edgeKey {
	if y < x {
		x, y = y, x
	}
	return edgeKey{a: x, b: y}
}
