package moderation

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pkallio/photoguard-go/internal/conf"
	"github.com/pkallio/photoguard-go/internal/errors"
)

// UserAgent sent with analysis API requests.
const UserAgent = "PhotoGuard/1.0"

// maxResponseBodySize bounds how much of a provider response is read.
const maxResponseBodySize = 1 << 20

// OpenModerationProvider calls an external analysis API speaking the JSON
// score contract. A single attempt is made per call; on timeout or transport
// failure the orchestrator falls back instead of retrying.
type OpenModerationProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
	cache    *gocache.Cache // nil when caching is disabled
}

// openModerationResponse is the provider's wire format. Absent categories
// default to 0 and out-of-range values are clamped on decode.
type openModerationResponse struct {
	OverallScore    float64        `json:"overall_score"`
	Categories      CategoryScores `json:"categories"`
	Confidence      float64        `json:"confidence"`
	Reasoning       string         `json:"reasoning"`
	DetectedObjects []string       `json:"detected_objects"`
	DetectedText    string         `json:"detected_text"`
}

// NewOpenModerationProvider builds the adapter from moderation settings.
func NewOpenModerationProvider(settings *conf.ModerationSettings) *OpenModerationProvider {
	var resultCache *gocache.Cache
	if ttl := settings.ProviderCacheTTL(); ttl > 0 {
		resultCache = gocache.New(ttl, 2*ttl)
	}

	return &OpenModerationProvider{
		endpoint: settings.Provider.Endpoint,
		apiKey:   settings.Provider.APIKey,
		client: &http.Client{
			Timeout: settings.ProviderTimeout(),
		},
		cache: resultCache,
	}
}

// Name implements the Provider interface.
func (p *OpenModerationProvider) Name() string {
	return ProviderOpenModeration.String()
}

// Analyze implements the Provider interface. Identical image content within
// the cache TTL reuses the previous result without a network call.
func (p *OpenModerationProvider) Analyze(ctx context.Context, req ImageRequest) (*RawResult, error) {
	if err := validateImageRequest(req); err != nil {
		return nil, err
	}

	if p.endpoint == "" {
		return nil, errors.Newf("analysis endpoint not configured").
			Component("moderation").
			Category(errors.CategoryConfiguration).
			Build()
	}

	var cacheKey string
	if p.cache != nil {
		sum := sha256.Sum256(req.Data)
		cacheKey = hex.EncodeToString(sum[:])
		if cached, found := p.cache.Get(cacheKey); found {
			result := cached.(RawResult)
			return &result, nil
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(req.Data))
	if err != nil {
		return nil, errors.New(err).
			Component("moderation").
			Category(errors.CategoryImageProvider).
			Build()
	}
	httpReq.Header.Set("Content-Type", req.MimeType)
	httpReq.Header.Set("User-Agent", UserAgent)
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, errors.Newf("analysis request failed: %v", err).
			Component("moderation").
			Category(errors.CategoryNetwork).
			Context("provider", p.Name()).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Newf("analysis API returned status %d", resp.StatusCode).
			Component("moderation").
			Category(errors.CategoryImageProvider).
			Context("provider", p.Name()).
			Context("status_code", resp.StatusCode).
			Build()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, errors.Newf("reading analysis response: %v", err).
			Component("moderation").
			Category(errors.CategoryImageProvider).
			Build()
	}

	var wire openModerationResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		// A 2xx response we cannot parse is itself evidence of uncertainty.
		// Return the conservative degraded result instead of failing the call.
		return degradedResult(), nil
	}

	result := &RawResult{
		Score:           clamp01(wire.OverallScore),
		Categories:      wire.Categories,
		Confidence:      clamp01(wire.Confidence),
		Weight:          1.0,
		Reasoning:       wire.Reasoning,
		DetectedObjects: wire.DetectedObjects,
		DetectedText:    wire.DetectedText,
	}

	if p.cache != nil {
		p.cache.Set(cacheKey, *result, gocache.DefaultExpiration)
	}

	return result, nil
}

// degradedResult is the conservative default used when a provider responds
// successfully but with an unparseable body.
func degradedResult() *RawResult {
	var categories CategoryScores
	categories.Set(CategoryInappropriate, 0.5)
	return &RawResult{
		Score:      0.5,
		Categories: categories,
		Confidence: 0.3,
		Weight:     0.5,
		Reasoning:  "analysis response could not be parsed, using conservative default",
	}
}
