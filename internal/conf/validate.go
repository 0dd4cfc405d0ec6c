// conf/validate.go settings validation
package conf

import (
	"fmt"
	"log/slog"
)

// knownProviders are the provider names accepted for moderation.defaultprovider.
var knownProviders = map[string]bool{
	"openmoderation": true,
	"seeded":         true,
}

// ValidateSettings checks the loaded settings for inconsistencies. Threshold
// ordering is warned about but not enforced, matching the engine's behavior
// of evaluating the approve bound before the reject bound.
func ValidateSettings(settings *Settings) error {
	m := &settings.Moderation

	if m.AutoApproveThreshold < 0 || m.AutoApproveThreshold > 1 {
		return fmt.Errorf("moderation.autoapprovethreshold must be within [0,1], got %v", m.AutoApproveThreshold)
	}
	if m.AutoRejectThreshold < 0 || m.AutoRejectThreshold > 1 {
		return fmt.Errorf("moderation.autorejectthreshold must be within [0,1], got %v", m.AutoRejectThreshold)
	}
	if m.AutoApproveThreshold > m.AutoRejectThreshold {
		slog.Warn("auto-approve threshold is above auto-reject threshold, the reject band shadows the middle band",
			"approve", m.AutoApproveThreshold, "reject", m.AutoRejectThreshold)
	}

	if m.Enabled && !knownProviders[m.DefaultProvider] {
		return fmt.Errorf("unknown moderation provider: %s", m.DefaultProvider)
	}

	if m.MaxFileSize < 0 {
		return fmt.Errorf("moderation.maxfilesize must not be negative")
	}

	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		return fmt.Errorf("no database output enabled, enable output.sqlite or output.mysql")
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return fmt.Errorf("output.sqlite.path must be set when SQLite is enabled")
	}

	return nil
}
