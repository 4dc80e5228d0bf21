package graph

import (
	"strings"
	"testing"

	"visiongraph/pkg/models"
)

func TestMermaidRendersNodesEdgesAndClasses(t *testing.T) {
	g := &models.CompiledGraph{
		Kind: "process",
		Nodes: []models.GraphNode{
			{ID: "n0", Label: "👤 alice", Class: "actor"},
			{ID: "n1", Label: "⚙️ cmd.exe", Class: "process"},
		},
		Edges: []models.GraphEdge{
			{From: "n0", To: "n1"},
		},
	}

	text, err := Mermaid(g, "LR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "flowchart LR\n" +
		"    n0[\"👤 alice\"]\n" +
		"    n1[\"⚙️ cmd.exe\"]\n" +
		"    n0 --> n1\n" +
		"    class n0 actor\n" +
		"    class n1 process\n"
	if text != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", text, want)
	}
}

func TestMermaidEscapesLabels(t *testing.T) {
	g := &models.CompiledGraph{
		Nodes: []models.GraphNode{
			{ID: "n0", Label: "say \"hi\"\nsecond line"},
		},
	}

	text, err := Mermaid(g, "TD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(text, "say \"hi\"") {
		t.Fatalf("double quotes must be replaced: %s", text)
	}
	if !strings.Contains(text, "say 'hi'<br/>second line") {
		t.Fatalf("expected escaped label, got: %s", text)
	}
	if !strings.HasPrefix(text, "flowchart TD\n") {
		t.Fatalf("expected TD header, got: %s", text)
	}
}

func TestMermaidEdgeLabels(t *testing.T) {
	g := &models.CompiledGraph{
		Nodes: []models.GraphNode{{ID: "n0", Label: "a"}, {ID: "n1", Label: "b"}},
		Edges: []models.GraphEdge{{From: "n0", To: "n1", Label: "spawns"}},
	}

	text, err := Mermaid(g, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "n0 -->|spawns| n1") {
		t.Fatalf("expected labeled edge, got: %s", text)
	}
}

func TestMermaidRejectsEmptyGraph(t *testing.T) {
	if _, err := Mermaid(nil, "LR"); err == nil {
		t.Fatalf("expected error for nil graph")
	}
	if _, err := Mermaid(&models.CompiledGraph{}, "LR"); err == nil {
		t.Fatalf("expected error for empty graph")
	}
}
