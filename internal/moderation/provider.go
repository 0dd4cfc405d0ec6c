package moderation

import (
	"context"
	"fmt"

	"github.com/pkallio/photoguard-go/internal/conf"
	"github.com/pkallio/photoguard-go/internal/errors"
)

// Provider is the uniform interface to a named analysis backend. Adapters
// are stateless and safe for concurrent use; their only side effect is the
// outbound call itself.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, req ImageRequest) (*RawResult, error)
}

// ImageRequest carries the image content to analyze.
type ImageRequest struct {
	Data     []byte
	MimeType string
}

var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// AllowedMimeType reports whether the declared mime type is on the allow-list.
func AllowedMimeType(mimeType string) bool {
	return allowedMimeTypes[mimeType]
}

// validateImageRequest enforces the adapter input contract.
func validateImageRequest(req ImageRequest) error {
	if len(req.Data) == 0 {
		return errors.Newf("image data is empty").
			Component("moderation").
			Category(errors.CategoryImageInput).
			Build()
	}
	if !AllowedMimeType(req.MimeType) {
		return errors.Newf("unsupported image mime type: %s", req.MimeType).
			Component("moderation").
			Category(errors.CategoryImageInput).
			Context("mime_type", req.MimeType).
			Build()
	}
	return nil
}

// ProviderID selects one of the known provider implementations.
type ProviderID int

const (
	// ProviderOpenModeration is the HTTP analysis API adapter.
	ProviderOpenModeration ProviderID = iota
	// ProviderSeeded is the deterministic content-hash scorer. Test and demo
	// scaffolding only, it performs no real image analysis and must never be
	// the production default.
	ProviderSeeded
)

// String returns the configuration name of the provider.
func (id ProviderID) String() string {
	switch id {
	case ProviderOpenModeration:
		return "openmoderation"
	case ProviderSeeded:
		return "seeded"
	default:
		return fmt.Sprintf("provider(%d)", int(id))
	}
}

// ParseProviderID maps a configuration name to its ProviderID.
func ParseProviderID(name string) (ProviderID, error) {
	switch name {
	case "openmoderation":
		return ProviderOpenModeration, nil
	case "seeded":
		return ProviderSeeded, nil
	default:
		return 0, errors.Newf("unknown moderation provider: %s", name).
			Component("moderation").
			Category(errors.CategoryConfiguration).
			Context("provider", name).
			Build()
	}
}

// NewProvider constructs the adapter for the given id. The switch is
// exhaustive over the closed ProviderID set.
func NewProvider(id ProviderID, settings *conf.ModerationSettings) Provider {
	switch id {
	case ProviderSeeded:
		return NewSeededProvider()
	case ProviderOpenModeration:
		fallthrough
	default:
		return NewOpenModerationProvider(settings)
	}
}
