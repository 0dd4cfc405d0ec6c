package moderation

import "github.com/pkallio/photoguard-go/internal/conf"

// SafeScoreFloor is the per-category score above which a category is included
// in the decision's flagged reasons. It is independent of the approve/reject
// thresholds.
const SafeScoreFloor = 0.25

var categoryDescriptions = [numCategories]string{
	CategoryAdult:         "adult or sexually explicit content",
	CategoryViolence:      "violent or graphic content",
	CategoryHatred:        "hateful or discriminatory content",
	CategoryHarassment:    "harassing or bullying content",
	CategorySelfHarm:      "self-harm related content",
	CategoryIllegal:       "illegal activity",
	CategorySpam:          "spam or misleading content",
	CategoryInappropriate: "content inappropriate for the contest",
}

// Describe returns the human description used in flagged reasons.
func (c Category) Describe() string {
	if !c.Valid() {
		return "unknown content category"
	}
	return categoryDescriptions[c]
}

// Classification is the threshold classifier's output.
type Classification struct {
	Status         Status
	RequiresReview bool
	FlaggedReasons []FlaggedReason
}

// Classifier maps a combined score to a moderation status using the
// configured thresholds.
type Classifier struct {
	autoApproveThreshold float64
	autoRejectThreshold  float64
	requireManualReview  bool
}

// NewClassifier builds a classifier from moderation settings.
func NewClassifier(settings *conf.ModerationSettings) *Classifier {
	return &Classifier{
		autoApproveThreshold: settings.AutoApproveThreshold,
		autoRejectThreshold:  settings.AutoRejectThreshold,
		requireManualReview:  settings.RequireManualReview,
	}
}

// Classify applies the configured thresholds to a combined score. The
// approve bound is evaluated before the reject bound, so with inverted
// thresholds the approve band wins for scores inside the overlap.
func (c *Classifier) Classify(combined CombinedScore) Classification {
	var status Status
	switch {
	case combined.Overall <= c.autoApproveThreshold:
		status = StatusApproved
	case combined.Overall >= c.autoRejectThreshold:
		status = StatusRejected
	case c.requireManualReview:
		status = StatusPendingReview
	default:
		status = StatusPending
	}

	requiresReview := c.requireManualReview &&
		combined.Overall > c.autoApproveThreshold &&
		combined.Overall < c.autoRejectThreshold

	return Classification{
		Status:         status,
		RequiresReview: requiresReview,
		FlaggedReasons: flaggedReasons(&combined.Categories),
	}
}

// flaggedReasons collects every category scoring above the safe floor, in
// the fixed category order.
func flaggedReasons(scores *CategoryScores) []FlaggedReason {
	var reasons []FlaggedReason
	for _, c := range Categories() {
		if score := scores.Get(c); score > SafeScoreFloor {
			reasons = append(reasons, FlaggedReason{
				Category:    c.String(),
				Score:       score,
				Description: c.Describe(),
			})
		}
	}
	return reasons
}
