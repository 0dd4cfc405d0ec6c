package moderation

import "time"

// RawResult is the uniform partial result produced by a provider adapter or
// the metadata analyzer, before combination.
type RawResult struct {
	Score      float64        `json:"score"`      // overall score in [0,1]
	Categories CategoryScores `json:"categories"` // per-category scores
	Confidence float64        `json:"confidence"` // self-reported certainty in [0,1]
	Weight     float64        `json:"weight"`     // combination weight, 0 means the default of 1.0

	// Diagnostic fields, opaque to the rest of the engine.
	Reasoning       string   `json:"reasoning,omitempty"`
	DetectedObjects []string `json:"detected_objects,omitempty"`
	DetectedText    string   `json:"detected_text,omitempty"`
}

// FlaggedReason records a category whose combined score exceeded the safe floor.
type FlaggedReason struct {
	Category    string  `json:"category"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// Decision is the final structured moderation decision for one analysis run.
// It is stored into the entry's metadata and status/score columns by the
// caller; the engine itself never persists it.
type Decision struct {
	Status           Status          `json:"status"`
	OverallScore     float64         `json:"overall_score"`
	Categories       CategoryScores  `json:"categories"`
	Confidence       float64         `json:"confidence"`
	Provider         string          `json:"provider"`
	FlaggedReasons   []FlaggedReason `json:"flagged_reasons,omitempty"`
	RequiresReview   bool            `json:"requires_review"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	Timestamp        time.Time       `json:"timestamp"`
}
