// Package moderation implements the content moderation decision engine:
// provider adapters, metadata heuristics, score combination, threshold
// classification and the orchestrator tying them together.
package moderation

import (
	"encoding/json"
	"fmt"
)

// Category is one of the fixed content-safety dimensions. The set is closed,
// every score container always carries a value for every category.
type Category int

const (
	CategoryAdult Category = iota
	CategoryViolence
	CategoryHatred
	CategoryHarassment
	CategorySelfHarm
	CategoryIllegal
	CategorySpam
	CategoryInappropriate

	numCategories
)

var categoryNames = [numCategories]string{
	CategoryAdult:         "adult",
	CategoryViolence:      "violence",
	CategoryHatred:        "hatred",
	CategoryHarassment:    "harassment",
	CategorySelfHarm:      "self_harm",
	CategoryIllegal:       "illegal",
	CategorySpam:          "spam",
	CategoryInappropriate: "inappropriate",
}

// String returns the wire name of the category.
func (c Category) String() string {
	if c < 0 || c >= numCategories {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	return c >= 0 && c < numCategories
}

// ParseCategory maps a wire name to its Category.
func ParseCategory(name string) (Category, error) {
	for i := range numCategories {
		if categoryNames[i] == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown moderation category: %q", name)
}

// Categories returns all categories in their fixed order.
func Categories() []Category {
	cats := make([]Category, numCategories)
	for i := range numCategories {
		cats[i] = i
	}
	return cats
}

// CategoryScores holds a score in [0,1] for every category. The zero value
// scores every category at 0.
type CategoryScores [numCategories]float64

// Get returns the score for the given category.
func (s *CategoryScores) Get(c Category) float64 {
	return s[c]
}

// Set stores the score for the given category, clamped to [0,1].
func (s *CategoryScores) Set(c Category, score float64) {
	s[c] = clamp01(score)
}

// Add raises the score for the given category by delta, clamped to [0,1].
func (s *CategoryScores) Add(c Category, delta float64) {
	s[c] = clamp01(s[c] + delta)
}

// Max returns the category with the highest score and that score.
func (s *CategoryScores) Max() (Category, float64) {
	best := CategoryAdult
	for c := range numCategories {
		if s[c] > s[best] {
			best = c
		}
	}
	return best, s[best]
}

// MarshalJSON encodes the scores as the wire map keyed by category name.
func (s CategoryScores) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, numCategories)
	for c := range numCategories {
		m[categoryNames[c]] = s[c]
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes the wire map. Absent categories default to 0 and
// out-of-range values are clamped into [0,1]. Unknown keys are ignored.
func (s *CategoryScores) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*s = CategoryScores{}
	for name, score := range m {
		c, err := ParseCategory(name)
		if err != nil {
			continue
		}
		s[c] = clamp01(score)
	}
	return nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
