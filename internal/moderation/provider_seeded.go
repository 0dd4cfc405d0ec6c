package moderation

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// SeededProvider derives stable pseudo-random scores from a hash of the
// image content. It exists so the pipeline can be exercised in tests and
// demos without a real analysis backend: the same bytes always produce the
// same decision. It performs no image analysis whatsoever and must never be
// configured as the production provider.
type SeededProvider struct{}

// NewSeededProvider returns the deterministic test adapter.
func NewSeededProvider() *SeededProvider {
	return &SeededProvider{}
}

// Name implements the Provider interface.
func (p *SeededProvider) Name() string {
	return ProviderSeeded.String()
}

// Analyze implements the Provider interface. Category scores are read
// directly from the content hash, scaled so that most inputs land in the
// mid band and none reach certainty.
func (p *SeededProvider) Analyze(_ context.Context, req ImageRequest) (*RawResult, error) {
	if err := validateImageRequest(req); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(req.Data)

	var categories CategoryScores
	var peak float64
	for i, c := range Categories() {
		score := float64(sum[i]) / 255.0 * 0.8
		categories.Set(c, score)
		if score > peak {
			peak = score
		}
	}

	overall := float64(binary.BigEndian.Uint16(sum[8:10])) / 65535.0 * 0.7
	if peak > overall {
		overall = peak
	}

	return &RawResult{
		Score:      clamp01(overall),
		Categories: categories,
		Confidence: 0.9,
		Weight:     1.0,
		Reasoning:  fmt.Sprintf("seeded scores derived from content hash %x", sum[:4]),
	}, nil
}
