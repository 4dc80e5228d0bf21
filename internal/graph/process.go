package graph

import (
	"strings"

	"visiongraph/pkg/models"
)

// Defaults for the process-chain compiler: a readability bound on how many
// records are sampled and a rendering-scalability cap on the edge set. The
// two cutoffs are independent.
const (
	DefaultProcessSample   = 150
	DefaultProcessMaxEdges = 100
)

// ProcessBuilder compiles detections into a causal chain:
// actor -> parent process -> process -> file object / command line.
type ProcessBuilder struct {
	Sample   int
	MaxEdges int
}

// NewProcessBuilder creates a builder with default bounds.
func NewProcessBuilder() *ProcessBuilder {
	return &ProcessBuilder{Sample: DefaultProcessSample, MaxEdges: DefaultProcessMaxEdges}
}

// Compile deterministically derives a deduplicated process graph from the
// first Sample records. It returns nil when inactive, when the input is
// empty, or when no record carried a usable chain field. Every sampled
// record is processed: the edge cap limits how many edges are stored, not
// how many records contribute nodes or are counted in EdgesSeen.
func (p *ProcessBuilder) Compile(dets []*models.Detection, active bool) *models.CompiledGraph {
	if !active || len(dets) == 0 {
		return nil
	}
	sample := p.Sample
	if sample <= 0 {
		sample = DefaultProcessSample
	}
	maxEdges := p.MaxEdges
	if maxEdges <= 0 {
		maxEdges = DefaultProcessMaxEdges
	}
	if len(dets) > sample {
		dets = dets[:sample]
	}

	b := newBuilder("process", maxEdges)
	for _, d := range dets {
		if d == nil {
			continue
		}

		parent := resolveParent(d)
		process := resolveProcess(d)
		if parent == "" && process == "" {
			// Nothing to chain from this record.
			continue
		}

		actor := resolveActor(d)
		actorID := b.node("actor:"+actor, "👤 "+sanitizeLabel(actor), "actor")
		prevID := actorID

		if parent != "" {
			parentID := b.node("parent:"+parent, fileLabel(parent), "parent")
			b.edge(prevID, parentID, "")
			prevID = parentID
		}

		if process == "" {
			continue
		}
		class := "process"
		if len(d.RuleTags) > 0 {
			class = "flagged"
		}
		processID := b.node("process:"+process, fileLabel(process), class)
		b.edge(prevID, processID, "")

		if object := resolveObject(d); object != "" {
			objectID := b.node("object:"+object, fileLabel(object), "object")
			b.edge(processID, objectID, "")
		}
		if cmd := resolveCommand(d); cmd != "" {
			cmdID := b.node("cmd:"+cmd, "💲 "+sanitizeLabel(basename(cmd)), "command")
			b.edge(processID, cmdID, "")
		}
	}

	return b.graph()
}

// fileLabel formats a path-valued field: icon by extension sniff plus the
// sanitized basename.
func fileLabel(path string) string {
	return fileIcon(path) + " " + sanitizeLabel(basename(path))
}

func fileIcon(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".exe"), strings.HasSuffix(lower, ".com"):
		return "⚙️"
	case strings.HasSuffix(lower, ".dll"), strings.HasSuffix(lower, ".sys"):
		return "🧩"
	case strings.HasSuffix(lower, ".ps1"), strings.HasSuffix(lower, ".bat"),
		strings.HasSuffix(lower, ".cmd"), strings.HasSuffix(lower, ".vbs"),
		strings.HasSuffix(lower, ".js"):
		return "📜"
	case strings.HasSuffix(lower, ".zip"), strings.HasSuffix(lower, ".rar"),
		strings.HasSuffix(lower, ".7z"):
		return "🗜️"
	default:
		return "📄"
	}
}
