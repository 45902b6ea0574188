package config

import (
	"strconv"
	"strings"
)

// Environment variables that override the configuration file.
const (
	EnvTheme         = "CAPSTAYSON_THEME"
	EnvFeedDir       = "CAPSTAYSON_FEED_DIR"
	EnvRedisAddr     = "CAPSTAYSON_REDIS_ADDR"
	EnvRedisPassword = "CAPSTAYSON_REDIS_PASSWORD"
	EnvRedisDB       = "CAPSTAYSON_REDIS_DB"
	EnvSite          = "CAPSTAYSON_SITE"
	EnvListen        = "CAPSTAYSON_LISTEN"
	EnvHandle        = "CAPSTAYSON_HANDLE"
	EnvLogFormat     = "CAPSTAYSON_LOG_FORMAT"
	EnvLogLevel      = "CAPSTAYSON_LOG_LEVEL"
)

// ApplyEnv overwrites fields of cfg whose variable is set and non-empty.
// Malformed numbers are ignored.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str(EnvTheme, &cfg.Theme)
	str(EnvFeedDir, &cfg.Feed.Dir)
	str(EnvRedisAddr, &cfg.Feed.RedisAddr)
	str(EnvRedisPassword, &cfg.Feed.RedisPassword)
	str(EnvSite, &cfg.Feed.Site)
	str(EnvListen, &cfg.Feed.Listen)
	str(EnvHandle, &cfg.Feed.Handle)
	str(EnvLogFormat, &cfg.LogFormat)
	str(EnvLogLevel, &cfg.LogLevel)
	if v := strings.TrimSpace(getenv(EnvRedisDB)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Feed.RedisDB = n
		}
	}
}
