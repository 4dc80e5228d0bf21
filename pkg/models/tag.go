package models

// RuleTag marks a detection matched by a loaded rule.
type RuleTag struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	Level     string `json:"level,omitempty"`
	Technique string `json:"technique,omitempty"`
}
