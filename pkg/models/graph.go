package models

// GraphNode is one vertex of a compiled graph. ID is a short synthetic
// token assigned by first-occurrence order within one compilation; Label is
// fixed at first assignment. Class is a presentation-only style tag.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Class string `json:"class,omitempty"`
}

// GraphEdge is a directed relation between two node IDs. The optional label
// annotates the edge in the rendered output.
type GraphEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// CompiledGraph is the output of one graph compilation: nodes in insertion
// order and a deduplicated edge set. EdgesSeen counts edges considered,
// including those rejected by the edge cap.
type CompiledGraph struct {
	Kind      string      `json:"kind"`
	Nodes     []GraphNode `json:"nodes"`
	Edges     []GraphEdge `json:"edges"`
	EdgesSeen int         `json:"edges_seen"`
}
