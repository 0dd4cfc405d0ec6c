package moderation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	for _, c := range Categories() {
		parsed, err := ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := ParseCategory("gore")
	require.Error(t, err)
}

func TestCategoryScores_UnmarshalDefaultsAndClamping(t *testing.T) {
	t.Parallel()

	var scores CategoryScores
	err := json.Unmarshal([]byte(`{"adult": 1.7, "violence": -0.2, "unknown_key": 0.9}`), &scores)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, scores.Get(CategoryAdult), 1e-9)
	assert.Zero(t, scores.Get(CategoryViolence))
	// Absent categories default to 0.
	assert.Zero(t, scores.Get(CategorySpam))
}

func TestCategoryScores_MarshalIncludesEveryCategory(t *testing.T) {
	t.Parallel()

	var scores CategoryScores
	scores.Set(CategoryHatred, 0.4)

	data, err := json.Marshal(scores)
	require.NoError(t, err)

	var m map[string]float64
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Len(t, m, 8)
	assert.InDelta(t, 0.4, m["hatred"], 1e-9)
	assert.Contains(t, m, "self_harm")
}

func TestCategoryScores_Max(t *testing.T) {
	t.Parallel()

	var scores CategoryScores
	scores.Set(CategoryIllegal, 0.6)
	scores.Set(CategorySpam, 0.3)

	c, score := scores.Max()
	assert.Equal(t, CategoryIllegal, c)
	assert.InDelta(t, 0.6, score, 1e-9)
}

func TestStatusValid(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusPending, StatusPendingReview, StatusApproved, StatusRejected, StatusFlagged} {
		assert.True(t, s.Valid())
	}
	assert.False(t, Status("banana").Valid())

	assert.True(t, StatusApproved.Final())
	assert.False(t, StatusPendingReview.Final())
}
