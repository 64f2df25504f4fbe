package providers

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"quotad/internal/structures"
)

const AppName = "ConversionQuotaDaemon"

func setDefaults(v *viper.Viper) {
	v.SetDefault("webServer.host", "0.0.0.0")
	v.SetDefault("webServer.port", 8080)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("quota.anonymousDailyLimit", 1)
	v.SetDefault("quota.registeredDailyLimit", 3)
	v.SetDefault("quota.maxAdWatches", 2)
	v.SetDefault("quota.storageKey", "convertpro_usage")
	v.SetDefault("quota.timezone", "Local")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.recordTTL", 48*time.Hour)
	v.SetDefault("redis.prefix", "quotad")
	v.SetDefault("cache.size", 64)
	v.SetDefault("persistence.saveInterval", 30*time.Second)
	v.SetDefault("identity.cookieName", "quotad_bid")
	v.SetDefault("identity.cookieTTL", 365*24*time.Hour)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(flags.ConfigPath)
	v.SetConfigType("yaml")

	v.BindEnv("logger.level", "QUOTAD_LOG_LEVEL")
	v.BindEnv("storage.driver", "QUOTAD_STORAGE_DRIVER")
	v.BindEnv("redis.address", "QUOTAD_REDIS_ADDRESS")
	v.BindEnv("redis.url", "QUOTAD_REDIS_URL")
	v.BindEnv("redis.password", "QUOTAD_REDIS_PASSWORD")
	v.BindEnv("identity.secret", "QUOTAD_IDENTITY_SECRET")
	v.BindEnv("quota.timezone", "QUOTAD_TIMEZONE")
	v.BindEnv("cors.allowedOrigins", "QUOTAD_CORS_ORIGINS")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	conf.Cors.AllowedOrigins = splitOrigins(conf.Cors.AllowedOrigins)

	cnfValidator := NewCnfValidator(&conf)
	if err := cnfValidator.Validate(); err != nil {
		return nil, err
	}

	conf.AppName = AppName
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

// splitOrigins accepts both a YAML list and a comma-separated env value.
func splitOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
