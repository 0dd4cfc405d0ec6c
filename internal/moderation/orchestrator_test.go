package moderation

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pkallio/photoguard-go/internal/conf"
	"github.com/pkallio/photoguard-go/internal/errors"
)

// stubProvider returns a fixed result or error.
type stubProvider struct {
	name   string
	result *RawResult
	err    error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Analyze(context.Context, ImageRequest) (*RawResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := *s.result
	return &result, nil
}

// panicProvider simulates a total internal failure inside the pipeline.
type panicProvider struct{}

func (panicProvider) Name() string { return "panicky" }

func (panicProvider) Analyze(context.Context, ImageRequest) (*RawResult, error) {
	panic("score table corrupted")
}

func orchestratorSettings(mutate ...func(*conf.Settings)) *conf.Settings {
	s := &conf.Settings{}
	s.Moderation.Enabled = true
	s.Moderation.DefaultProvider = "openmoderation"
	s.Moderation.AutoApproveThreshold = 0.2
	s.Moderation.AutoRejectThreshold = 0.8
	s.Moderation.RequireManualReview = true
	s.Moderation.MaxFileSize = conf.DefaultMaxFileSize
	s.Moderation.FilenameBlocklist = []string{"nsfw", "xxx"}
	for _, m := range mutate {
		m(s)
	}
	return s
}

func cleanInput() ImageInput {
	return ImageInput{
		Data:      []byte("image bytes"),
		MimeType:  "image/jpeg",
		SizeBytes: 2048,
		Filename:  "entry.jpg",
	}
}

func TestOrchestrator_CleanImageApproves(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{name: "openmoderation", result: &RawResult{
		Score:      0.1,
		Confidence: 0.95,
		Weight:     1.0,
	}}
	o := NewWithProvider(orchestratorSettings(), provider, nil)

	decision := o.Analyze(context.Background(), cleanInput())

	require.NotNil(t, decision)
	// (0.1*1.0 + 0*0.5) / 2 = 0.05
	assert.InDelta(t, 0.05, decision.OverallScore, 1e-9)
	assert.Equal(t, StatusApproved, decision.Status)
	assert.Equal(t, "openmoderation", decision.Provider)
	assert.False(t, decision.RequiresReview)
	assert.GreaterOrEqual(t, decision.ProcessingTimeMs, int64(0))
	assert.False(t, decision.Timestamp.IsZero())
}

func TestOrchestrator_HighScoreRejects(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{name: "openmoderation", result: &RawResult{
		Score:      0.95,
		Confidence: 0.95,
		Weight:     1.0,
	}}
	o := NewWithProvider(orchestratorSettings(func(s *conf.Settings) {
		s.Moderation.AutoRejectThreshold = 0.45
	}), provider, nil)

	decision := o.Analyze(context.Background(), cleanInput())

	assert.Equal(t, StatusRejected, decision.Status)
	assert.InDelta(t, 0.475, decision.OverallScore, 1e-9)
}

func TestOrchestrator_ProviderFailureFallsBack(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		name: "openmoderation",
		err: errors.Newf("connection refused").
			Category(errors.CategoryNetwork).
			Build(),
	}
	o := NewWithProvider(orchestratorSettings(), provider, nil)

	decision := o.Analyze(context.Background(), cleanInput())

	require.NotNil(t, decision)
	// Fallback 0.5 combined with a clean metadata result: (0.5 + 0) / 2 = 0.25,
	// inside the manual review band.
	assert.Equal(t, StatusPendingReview, decision.Status)
	assert.Equal(t, "openmoderation_fallback", decision.Provider)
	assert.True(t, decision.RequiresReview)
	assert.NotEmpty(t, decision.FlaggedReasons)
}

func TestOrchestrator_DisabledApprovesEverything(t *testing.T) {
	t.Parallel()

	o, err := New(orchestratorSettings(func(s *conf.Settings) {
		s.Moderation.Enabled = false
	}), nil)
	require.NoError(t, err)

	decision := o.Analyze(context.Background(), ImageInput{
		Data:     []byte{0xde, 0xad},
		MimeType: "application/octet-stream",
		Filename: "whatever.bin",
	})

	assert.Equal(t, StatusApproved, decision.Status)
	assert.Zero(t, decision.OverallScore)
	assert.Equal(t, ProviderDisabled, decision.Provider)
}

func TestOrchestrator_UnknownProviderIsConfigurationError(t *testing.T) {
	t.Parallel()

	_, err := New(orchestratorSettings(func(s *conf.Settings) {
		s.Moderation.DefaultProvider = "visionary9000"
	}), nil)

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestOrchestrator_PanicDegradesToPendingReview(t *testing.T) {
	t.Parallel()

	o := NewWithProvider(orchestratorSettings(), panicProvider{}, nil)

	decision := o.Analyze(context.Background(), cleanInput())

	require.NotNil(t, decision)
	assert.Equal(t, StatusPendingReview, decision.Status)
	assert.InDelta(t, 0.5, decision.OverallScore, 1e-9)
	assert.True(t, decision.RequiresReview)
	require.NotEmpty(t, decision.FlaggedReasons)
	assert.Contains(t, decision.FlaggedReasons[0].Description, "internal error")
}

func TestOrchestrator_MetadataSignalContributes(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{name: "openmoderation", result: &RawResult{
		Score:      0.1,
		Confidence: 0.95,
		Weight:     1.0,
	}}
	o := NewWithProvider(orchestratorSettings(), provider, nil)

	input := cleanInput()
	input.Filename = "xxx_collection.jpg"
	decision := o.Analyze(context.Background(), input)

	// (0.1*1.0 + 0.3*0.5) / 2 = 0.125 and the category flag carries through.
	assert.InDelta(t, 0.125, decision.OverallScore, 1e-9)
	assert.InDelta(t, 0.3, decision.Categories.Get(CategoryInappropriate), 1e-9)
}

func TestOrchestrator_ConcurrentAnalyses(t *testing.T) {
	defer goleak.VerifyNone(t)

	provider := &stubProvider{name: "openmoderation", result: &RawResult{
		Score:      0.5,
		Confidence: 0.8,
		Weight:     1.0,
	}}
	o := NewWithProvider(orchestratorSettings(), provider, nil)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision := o.Analyze(context.Background(), cleanInput())
			assert.Equal(t, StatusPendingReview, decision.Status)
		}()
	}
	wg.Wait()
}
