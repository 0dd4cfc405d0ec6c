package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeededProvider_Deterministic(t *testing.T) {
	t.Parallel()

	p := NewSeededProvider()
	req := ImageRequest{Data: []byte("the same photo"), MimeType: "image/jpeg"}

	first, err := p.Analyze(context.Background(), req)
	require.NoError(t, err)
	second, err := p.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSeededProvider_DifferentContentDiffers(t *testing.T) {
	t.Parallel()

	p := NewSeededProvider()

	a, err := p.Analyze(context.Background(), ImageRequest{Data: []byte("photo a"), MimeType: "image/png"})
	require.NoError(t, err)
	b, err := p.Analyze(context.Background(), ImageRequest{Data: []byte("photo b"), MimeType: "image/png"})
	require.NoError(t, err)

	assert.NotEqual(t, a.Categories, b.Categories)
}

func TestSeededProvider_ScoresInRange(t *testing.T) {
	t.Parallel()

	p := NewSeededProvider()
	result, err := p.Analyze(context.Background(), ImageRequest{Data: []byte{0xff, 0xfe, 0xfd}, MimeType: "image/gif"})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 1.0)
	for _, c := range Categories() {
		score := result.Categories.Get(c)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestSeededProvider_ValidatesInput(t *testing.T) {
	t.Parallel()

	p := NewSeededProvider()
	_, err := p.Analyze(context.Background(), ImageRequest{Data: nil, MimeType: "image/jpeg"})
	require.Error(t, err)
}
