package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkallio/photoguard-go/internal/conf"
	"github.com/pkallio/photoguard-go/internal/errors"
	"github.com/pkallio/photoguard-go/internal/logging"
	"github.com/pkallio/photoguard-go/internal/observability/metrics"
)

// ProviderDisabled is the provider marker used when moderation is turned off.
const ProviderDisabled = "disabled"

// ImageInput is everything the upload pipeline supplies about one image.
type ImageInput struct {
	Data      []byte
	MimeType  string
	SizeBytes int64
	Filename  string
}

// Orchestrator sequences provider analysis, metadata heuristics, score
// combination and threshold classification into one decision. It never
// persists anything; storing the decision is the caller's job. It also never
// panics past its boundary: total internal failure degrades to a synthetic
// pending_review decision.
type Orchestrator struct {
	settings   *conf.Settings
	provider   Provider
	classifier *Classifier
	metrics    *metrics.ModerationMetrics // may be nil
	log        *slog.Logger
}

// New builds an orchestrator from settings. An unknown provider name is a
// configuration error surfaced to the caller; no decision is produced.
func New(settings *conf.Settings, m *metrics.ModerationMetrics) (*Orchestrator, error) {
	var provider Provider
	if settings.Moderation.Enabled {
		id, err := ParseProviderID(settings.Moderation.DefaultProvider)
		if err != nil {
			return nil, err
		}
		provider = NewProvider(id, &settings.Moderation)
	}
	return NewWithProvider(settings, provider, m), nil
}

// NewWithProvider builds an orchestrator around an explicit provider,
// bypassing provider selection. Used by callers that inject their own
// adapter, and by tests.
func NewWithProvider(settings *conf.Settings, provider Provider, m *metrics.ModerationMetrics) *Orchestrator {
	return &Orchestrator{
		settings:   settings,
		provider:   provider,
		classifier: NewClassifier(&settings.Moderation),
		metrics:    m,
		log:        logging.ForService("moderation"),
	}
}

// Analyze runs the full decision pipeline for one image. It always returns a
// complete decision; provider failures degrade to the conservative fallback
// and are never surfaced as errors.
func (o *Orchestrator) Analyze(ctx context.Context, input ImageInput) (decision *Decision) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.log.Error("moderation pipeline panicked, degrading to pending_review",
				"panic", fmt.Sprint(r), "filename", input.Filename)
			decision = o.syntheticDecision(start, fmt.Sprintf("internal error: %v", r))
			o.recordDecision(decision)
		}
	}()

	if !o.settings.Moderation.Enabled {
		decision = &Decision{
			Status:           StatusApproved,
			OverallScore:     0,
			Confidence:       1,
			Provider:         ProviderDisabled,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			Timestamp:        time.Now(),
		}
		o.recordDecision(decision)
		return decision
	}

	providerName := o.provider.Name()
	providerStart := time.Now()
	raw, err := o.provider.Analyze(ctx, ImageRequest{Data: input.Data, MimeType: input.MimeType})
	if o.metrics != nil {
		o.metrics.RecordProviderRequest(providerName, time.Since(providerStart).Seconds())
	}
	if err != nil {
		// Hard provider failure. Single attempt, then the conservative local
		// fallback; the same call is never retried.
		o.log.Warn("provider analysis failed, using conservative fallback",
			"provider", providerName, "error", err, "filename", input.Filename)
		if o.metrics != nil {
			o.metrics.RecordProviderFailure(providerName, failureKind(err))
			o.metrics.RecordFallback(providerName)
		}
		raw = fallbackResult()
		providerName += "_fallback"
	}

	metaResult := AnalyzeFileMetadata(FileMetadata{
		SizeBytes: input.SizeBytes,
		MimeType:  input.MimeType,
		Filename:  input.Filename,
	}, &o.settings.Moderation)

	combined := Combine([]RawResult{*raw, metaResult})
	classification := o.classifier.Classify(combined)

	decision = &Decision{
		Status:           classification.Status,
		OverallScore:     combined.Overall,
		Categories:       combined.Categories,
		Confidence:       combined.Confidence,
		Provider:         providerName,
		FlaggedReasons:   classification.FlaggedReasons,
		RequiresReview:   classification.RequiresReview,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Timestamp:        time.Now(),
	}

	o.log.Info("moderation decision",
		"status", decision.Status,
		"score", decision.OverallScore,
		"requires_review", decision.RequiresReview,
		"provider", providerName,
		"file_size", input.SizeBytes,
		"mime_type", input.MimeType,
		"duration_ms", decision.ProcessingTimeMs)
	o.recordDecision(decision)

	return decision
}

func (o *Orchestrator) recordDecision(decision *Decision) {
	if o.metrics != nil {
		o.metrics.RecordDecision(string(decision.Status), decision.Provider)
	}
}

// fallbackResult is the conservative local result used when the provider is
// unreachable: middling score, low confidence, inappropriate flagged.
func fallbackResult() *RawResult {
	var categories CategoryScores
	categories.Set(CategoryInappropriate, 0.5)
	return &RawResult{
		Score:      0.5,
		Categories: categories,
		Confidence: 0.2,
		Weight:     1.0,
		Reasoning:  "analysis provider unavailable, conservative fallback applied",
	}
}

// syntheticDecision is returned when the pipeline itself fails; it defers
// the entry to manual review rather than approving or rejecting blind.
func (o *Orchestrator) syntheticDecision(start time.Time, reason string) *Decision {
	var categories CategoryScores
	categories.Set(CategoryInappropriate, 0.5)
	return &Decision{
		Status:       StatusPendingReview,
		OverallScore: 0.5,
		Categories:   categories,
		Confidence:   0,
		Provider:     "internal",
		FlaggedReasons: []FlaggedReason{{
			Category:    CategoryInappropriate.String(),
			Score:       0.5,
			Description: reason,
		}},
		RequiresReview:   true,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Timestamp:        time.Now(),
	}
}

// failureKind buckets provider errors for metrics.
func failureKind(err error) string {
	switch {
	case errors.IsCategory(err, errors.CategoryTimeout):
		return "timeout"
	case errors.IsCategory(err, errors.CategoryNetwork):
		return "network"
	case errors.IsCategory(err, errors.CategoryImageInput):
		return "input"
	case errors.IsCategory(err, errors.CategoryConfiguration):
		return "configuration"
	default:
		return "provider"
	}
}
