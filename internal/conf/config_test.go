package conf

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Moderation.Enabled = true
	s.Moderation.DefaultProvider = "openmoderation"
	s.Moderation.AutoApproveThreshold = DefaultAutoApproveThreshold
	s.Moderation.AutoRejectThreshold = DefaultAutoRejectThreshold
	s.Moderation.RequireManualReview = true
	s.Moderation.MaxFileSize = DefaultMaxFileSize
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "test.db"
	return s
}

func TestValidateSettings_Valid(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettings_ThresholdOutOfRange(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Moderation.AutoRejectThreshold = 1.5
	require.Error(t, ValidateSettings(s))

	s = validSettings()
	s.Moderation.AutoApproveThreshold = -0.1
	require.Error(t, ValidateSettings(s))
}

func TestValidateSettings_InvertedThresholdsAllowed(t *testing.T) {
	t.Parallel()

	// Expected but not enforced ordering, only warned about.
	s := validSettings()
	s.Moderation.AutoApproveThreshold = 0.9
	s.Moderation.AutoRejectThreshold = 0.1
	require.NoError(t, ValidateSettings(s))
}

func TestValidateSettings_UnknownProvider(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Moderation.DefaultProvider = "visionary9000"
	require.Error(t, ValidateSettings(s))

	// Provider name is irrelevant when moderation is disabled.
	s.Moderation.Enabled = false
	require.NoError(t, ValidateSettings(s))
}

func TestValidateSettings_NoDatabase(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Output.SQLite.Enabled = false
	require.Error(t, ValidateSettings(s))
}

func TestProviderTimeoutDefaults(t *testing.T) {
	t.Parallel()

	m := &ModerationSettings{}
	assert.Equal(t, DefaultProviderTimeout, m.ProviderTimeout())

	m.Provider.Timeout = 5
	assert.Equal(t, 5*time.Second, m.ProviderTimeout())

	assert.Equal(t, time.Duration(0), m.ProviderCacheTTL())
	m.Provider.CacheTTL = 60
	assert.Equal(t, time.Minute, m.ProviderCacheTTL())
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	s := validSettings()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveSettings(s, path))
	assert.FileExists(t, path)
}
