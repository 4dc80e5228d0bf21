package rules

import "visiongraph/pkg/models"

// Engine tags detections that match loaded rules.
type Engine interface {
	Apply(d *models.Detection) []models.RuleTag
}

// NoopEngine returns no tags.
type NoopEngine struct{}

// Apply returns an empty tag list.
func (n *NoopEngine) Apply(d *models.Detection) []models.RuleTag {
	return nil
}
