package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"visiongraph/internal/dedupe"
	"visiongraph/pkg/models"
)

const (
	promptPreamble = `You are a security operations analyst. Review the following XDR detection sample and summarize the observed activity: likely intrusion paths, notable processes or destinations, and recommended next steps. Be concise.`
	promptTrailer  = `Respond in short plain-text paragraphs without markdown tables.`

	// DefaultSampleLimit bounds how many deduplicated records reach the
	// prompt.
	DefaultSampleLimit = 100
)

// BuildPrompt deduplicates the batch by the key field, truncates it to
// limit records, and wraps the JSON dump in the instructional text.
func BuildPrompt(dets []*models.Detection, field string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}
	sample := dedupe.ByKey(dets, field, limit)
	if len(sample) == 0 {
		return "", fmt.Errorf("no detections to analyze")
	}

	rows := make([]map[string]interface{}, 0, len(sample))
	for _, d := range sample {
		rows = append(rows, d.Fields)
	}
	dump, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode sample: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(promptPreamble)
	sb.WriteString("\n\nDetections (deduplicated sample of ")
	sb.WriteString(fmt.Sprintf("%d):\n", len(sample)))
	sb.Write(dump)
	sb.WriteString("\n\n")
	sb.WriteString(promptTrailer)
	return sb.String(), nil
}
