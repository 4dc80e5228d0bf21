package graphjson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"visiongraph/internal/logger"
	"visiongraph/pkg/models"
)

// Writer outputs compiled graphs to a JSON lines file.
type Writer struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewWriter creates a JSONL writer for compiled graphs.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	logger.Infof("Graph JSON writer initialized: %s", path)
	return &Writer{
		file:    f,
		encoder: json.NewEncoder(f),
	}, nil
}

// WriteGraph writes one compiled graph.
func (w *Writer) WriteGraph(g *models.CompiledGraph) error {
	if g == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.encoder.Encode(g); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return nil
}

// Close closes the output file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
