package graph

import (
	"fmt"
	"strings"

	"visiongraph/pkg/models"
)

// Mermaid renders a compiled graph as Mermaid flowchart text: a direction
// header, node declarations in insertion order, edges, then per-node class
// assignments. The graph structure itself is renderer-agnostic; only this
// function knows the target grammar.
func Mermaid(g *models.CompiledGraph, direction string) (string, error) {
	if g == nil || len(g.Nodes) == 0 {
		return "", fmt.Errorf("no graph to render")
	}
	if direction == "" {
		direction = "LR"
	}

	var sb strings.Builder
	sb.WriteString("flowchart " + direction + "\n")

	for _, node := range g.Nodes {
		sb.WriteString("    " + node.ID + `["` + escapeMermaid(node.Label) + `"]` + "\n")
	}

	for _, edge := range g.Edges {
		if edge.Label != "" {
			sb.WriteString("    " + edge.From + " -->|" + escapeMermaid(edge.Label) + "| " + edge.To + "\n")
		} else {
			sb.WriteString("    " + edge.From + " --> " + edge.To + "\n")
		}
	}

	for _, node := range g.Nodes {
		if node.Class != "" {
			sb.WriteString("    class " + node.ID + " " + node.Class + "\n")
		}
	}

	return sb.String(), nil
}

// escapeMermaid enforces the label escaping rule for the Mermaid grammar:
// double quotes become single quotes and raw newlines become the renderer's
// explicit line-break marker.
func escapeMermaid(s string) string {
	s = strings.ReplaceAll(s, `"`, "'")
	s = strings.ReplaceAll(s, "\r\n", "<br/>")
	s = strings.ReplaceAll(s, "\n", "<br/>")
	return s
}
