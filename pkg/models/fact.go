package models

import "time"

// Fact is a confidence-scored belief about a subject, written by the
// external extraction pipeline. The engine only reads facts.
type Fact struct {
	SubjectID  string  `json:"subject_id"`
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	// SourceMessageID points at the message the fact was extracted from.
	SourceMessageID string    `json:"source_message_id,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}
