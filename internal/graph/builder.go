package graph

import (
	"strconv"

	"visiongraph/pkg/models"
)

// builder accumulates nodes and edges during one compilation call. A fresh
// builder is allocated per call so node identity and ordering never leak
// between compilations.
type builder struct {
	kind      string
	nodes     []models.GraphNode
	idsByKey  map[string]string
	edges     []models.GraphEdge
	edgeSeen  map[string]struct{}
	edgeCap   int
	edgeCount int
	seq       int
}

func newBuilder(kind string, edgeCap int) *builder {
	return &builder{
		kind:     kind,
		idsByKey: make(map[string]string, 64),
		edgeSeen: make(map[string]struct{}, 64),
		edgeCap:  edgeCap,
	}
}

// node returns the ID for a semantic key, creating the node on first sight.
// The label and class are fixed by the first occurrence and never updated.
func (b *builder) node(key, label, class string) string {
	if id, ok := b.idsByKey[key]; ok {
		return id
	}
	id := "n" + strconv.Itoa(b.seq)
	b.seq++
	b.idsByKey[key] = id
	b.nodes = append(b.nodes, models.GraphNode{ID: id, Label: label, Class: class})
	return id
}

// edge records a directed edge. Duplicate (from, to, label) triples collapse
// to one edge; edges past the cap are counted but not stored.
func (b *builder) edge(from, to, label string) {
	if from == "" || to == "" || from == to {
		return
	}
	key := from + ">" + to + "|" + label
	if _, ok := b.edgeSeen[key]; ok {
		return
	}
	b.edgeSeen[key] = struct{}{}
	b.edgeCount++
	if b.edgeCap > 0 && len(b.edges) >= b.edgeCap {
		return
	}
	b.edges = append(b.edges, models.GraphEdge{From: from, To: to, Label: label})
}

// graph returns the compiled result, or nil when nothing was produced.
func (b *builder) graph() *models.CompiledGraph {
	if len(b.nodes) == 0 {
		return nil
	}
	return &models.CompiledGraph{
		Kind:      b.kind,
		Nodes:     b.nodes,
		Edges:     b.edges,
		EdgesSeen: b.edgeCount,
	}
}
