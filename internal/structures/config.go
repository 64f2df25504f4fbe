package structures

import (
	"net/http"
	"time"
)

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type Route struct {
	Method  string
	Url     string
	Handler http.Handler
}

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

// QuotaConfig holds the monetization policy. Zero limits are legal:
// an anonymous limit of 0 forces registration before the first conversion.
type QuotaConfig struct {
	AnonymousDailyLimit  int    `yaml:"anonymousDailyLimit" validate:"uint"`
	RegisteredDailyLimit int    `yaml:"registeredDailyLimit" validate:"required|uint|min:1"`
	MaxAdWatches         int    `yaml:"maxAdWatches" validate:"uint"`
	StorageKey           string `yaml:"storageKey" validate:"required"`
	Timezone             string `yaml:"timezone"`
	RegisterText         string `yaml:"registerText"`
	RemainingText        string `yaml:"remainingText"`
}

type StorageConfig struct {
	Driver    string        `yaml:"driver" validate:"required|in:memory,freecache,redis"`
	RecordTTL time.Duration `yaml:"recordTTL"`
}

type RedisConfig struct {
	Address    string `yaml:"address"`
	URL        string `yaml:"url"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db" validate:"uint"`
	Prefix     string `yaml:"prefix"`
	MaxRetries int    `yaml:"maxRetries" validate:"uint"`
}

type CacheConfig struct {
	Size int `yaml:"size" validate:"uint"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath"`
	SaveInterval time.Duration `yaml:"saveInterval"`
}

type IdentityConfig struct {
	Secret       string        `yaml:"secret"`
	Issuer       string        `yaml:"issuer"`
	CookieName   string        `yaml:"cookieName" validate:"required"`
	CookieTTL    time.Duration `yaml:"cookieTTL"`
	CookieSecure bool          `yaml:"cookieSecure"`
}

type CorsConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server         `yaml:"webServer"`
	Logger      LoggerConfig   `yaml:"logger"`
	Quota       QuotaConfig    `yaml:"quota"`
	Storage     StorageConfig  `yaml:"storage"`
	Redis       RedisConfig    `yaml:"redis"`
	Cache       CacheConfig    `yaml:"cache"`
	Persistence Persistence    `yaml:"persistence"`
	Identity    IdentityConfig `yaml:"identity"`
	Cors        CorsConfig     `yaml:"cors"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}
