// config.go: settings for the photoguard moderation engine. Defines the
// settings struct and the functions to load and save it.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LogConfig contains settings for log files.
type LogConfig struct {
	Enabled bool   // true to enable this log
	Path    string // path to log file
}

// MainSettings contains general application settings.
type MainSettings struct {
	Name     string    // name of this node, can be used to identify the source of moderation decisions
	ImageDir string    // directory where original entry images are stored for reanalysis
	Log      LogConfig // main log settings
}

// ProviderSettings contains settings for the external analysis provider.
type ProviderSettings struct {
	Endpoint string // analysis API endpoint URL
	APIKey   string // analysis API key
	Timeout  int    // request timeout in seconds, single attempt then fallback
	CacheTTL int    // seconds to reuse a result for identical image content, 0 disables
}

// ModerationSettings contains settings for the moderation decision engine.
type ModerationSettings struct {
	Enabled              bool             // if false every entry auto-approves with score 0
	DefaultProvider      string           // provider used by the orchestrator: "openmoderation" or "seeded"
	AutoApproveThreshold float64          // scores at or below this auto-approve
	AutoRejectThreshold  float64          // scores at or above this auto-reject
	RequireManualReview  bool             // mid-band scores become pending_review instead of pending
	MaxFileSize          int64            // file size in bytes above which the metadata analyzer adds a spam signal
	FilenameBlocklist    []string         // filename substrings that add an inappropriate signal
	Provider             ProviderSettings // external provider settings
}

// SQLiteSettings contains settings for the SQLite database.
type SQLiteSettings struct {
	Enabled bool   // true to enable the SQLite database
	Path    string // path to the SQLite database file
}

// MySQLSettings contains settings for the MySQL database.
type MySQLSettings struct {
	Enabled  bool   // true to enable the MySQL database
	Username string // MySQL username
	Password string // MySQL password
	Database string // MySQL database name
	Host     string // MySQL host
	Port     string // MySQL port
}

// OutputSettings contains settings for database outputs.
type OutputSettings struct {
	SQLite SQLiteSettings // SQLite database settings
	MySQL  MySQLSettings  // MySQL database settings
}

// NotificationSettings contains settings for credit notifications.
type NotificationSettings struct {
	Enabled bool     // true to enable push notifications on credit events
	URLs    []string // shoutrrr service URLs
}

// WebServerSettings contains settings for the admin API server.
type WebServerSettings struct {
	Enabled bool   // true to enable the admin API server
	Port    string // port to listen on
}

// Settings is the top-level configuration value object. It is constructed
// once at startup and passed by reference; runtime reconfiguration means
// constructing a new Settings and swapping the reference.
type Settings struct {
	Debug bool // true to enable debug mode

	Main         MainSettings
	Moderation   ModerationSettings
	Output       OutputSettings
	Notification NotificationSettings
	WebServer    WebServerSettings
}

// Load reads the configuration from file and environment and returns the
// populated settings. A missing config file is not an error, defaults apply.
func Load() (*Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return nil, fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	setDefaultConfig(v)

	v.SetEnvPrefix("photoguard")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	return []string{
		".",
		filepath.Join(homeDir, ".config", "photoguard"),
	}, nil
}

// SaveSettings writes the current settings to the given path as YAML.
func SaveSettings(settings *Settings, path string) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing settings to %s: %w", path, err)
	}
	return nil
}

// ProviderTimeout returns the provider timeout as a duration, applying the
// default when the configured value is not positive.
func (m *ModerationSettings) ProviderTimeout() time.Duration {
	if m.Provider.Timeout <= 0 {
		return DefaultProviderTimeout
	}
	return time.Duration(m.Provider.Timeout) * time.Second
}

// ProviderCacheTTL returns the provider cache TTL as a duration. Zero or
// negative disables caching.
func (m *ModerationSettings) ProviderCacheTTL() time.Duration {
	if m.Provider.CacheTTL <= 0 {
		return 0
	}
	return time.Duration(m.Provider.CacheTTL) * time.Second
}
