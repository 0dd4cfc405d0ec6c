// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Default values applied when the config file or a key is absent.
const (
	DefaultAutoApproveThreshold = 0.2
	DefaultAutoRejectThreshold  = 0.8
	DefaultMaxFileSize          = 10 * 1024 * 1024
	DefaultProviderTimeout      = 30 * time.Second
)

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("main.name", "PhotoGuard")
	v.SetDefault("main.imagedir", "images")
	v.SetDefault("main.log.enabled", true)
	v.SetDefault("main.log.path", "logs/photoguard.log")

	v.SetDefault("moderation.enabled", true)
	v.SetDefault("moderation.defaultprovider", "openmoderation")
	v.SetDefault("moderation.autoapprovethreshold", DefaultAutoApproveThreshold)
	v.SetDefault("moderation.autorejectthreshold", DefaultAutoRejectThreshold)
	v.SetDefault("moderation.requiremanualreview", true)
	v.SetDefault("moderation.maxfilesize", DefaultMaxFileSize)
	v.SetDefault("moderation.filenameblocklist", []string{"nsfw", "xxx", "porn", "nude"})
	v.SetDefault("moderation.provider.endpoint", "")
	v.SetDefault("moderation.provider.apikey", "")
	v.SetDefault("moderation.provider.timeout", 30)
	v.SetDefault("moderation.provider.cachettl", 300)

	v.SetDefault("output.sqlite.enabled", true)
	v.SetDefault("output.sqlite.path", "photoguard.db")
	v.SetDefault("output.mysql.enabled", false)
	v.SetDefault("output.mysql.username", "photoguard")
	v.SetDefault("output.mysql.password", "")
	v.SetDefault("output.mysql.database", "photoguard")
	v.SetDefault("output.mysql.host", "localhost")
	v.SetDefault("output.mysql.port", "3306")

	v.SetDefault("notification.enabled", false)
	v.SetDefault("notification.urls", []string{})

	v.SetDefault("webserver.enabled", true)
	v.SetDefault("webserver.port", "8090")
}
