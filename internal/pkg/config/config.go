package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Overpass  OverpassConfig  `mapstructure:"overpass"`
	OSRM      OSRMConfig      `mapstructure:"osrm"`
	Viewport  ViewportConfig  `mapstructure:"viewport"`
	Origin    OriginConfig    `mapstructure:"origin"`
	Auth      AuthConfig      `mapstructure:"auth"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Activity  ActivityConfig  `mapstructure:"activity"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type OverpassConfig struct {
	Servers        []string `mapstructure:"servers"`
	AttemptTimeout int      `mapstructure:"attempt_timeout"` // seconds
	RateLimit      float64  `mapstructure:"rate_limit"`      // requests per second, all servers
	UserAgent      string   `mapstructure:"user_agent"`
}

// AttemptTimeoutDuration returns the per-server timeout.
func (o OverpassConfig) AttemptTimeoutDuration() time.Duration {
	return time.Duration(o.AttemptTimeout) * time.Second
}

type OSRMConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

type ViewportConfig struct {
	MinZoom        float64 `mapstructure:"min_zoom"`
	DetailZoom     float64 `mapstructure:"detail_zoom"`
	TopN           int     `mapstructure:"top_n"`
	DebounceMS     int     `mapstructure:"debounce_ms"`
	OnFetchFailure string  `mapstructure:"on_fetch_failure"`
}

// Debounce returns the settle delay as a duration.
func (v ViewportConfig) Debounce() time.Duration {
	return time.Duration(v.DebounceMS) * time.Millisecond
}

// OriginConfig is the route origin used until a client reports its location.
type OriginConfig struct {
	Lat float64 `mapstructure:"lat"`
	Lon float64 `mapstructure:"lon"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	TokenTTL  int    `mapstructure:"token_ttl"` // seconds
	UserTTL   int    `mapstructure:"user_ttl"`  // seconds; 0 keeps accounts until restart
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ActivityConfig struct {
	ReportInterval int `mapstructure:"report_interval"` // seconds
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: CITYDISCOVER_OVERPASS_RATE_LIMIT → overpass.rate_limit
	v.SetEnvPrefix("CITYDISCOVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 35)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("overpass.servers", []string{
		"https://overpass-api.de/api/interpreter",
		"https://overpass.kumi.systems/api/interpreter",
		"https://overpass.private.coffee/api/interpreter",
	})
	v.SetDefault("overpass.attempt_timeout", 8)
	v.SetDefault("overpass.rate_limit", 2)
	v.SetDefault("overpass.user_agent", "CityDiscover/1.0")
	v.SetDefault("osrm.base_url", "https://router.project-osrm.org/route/v1")
	v.SetDefault("osrm.timeout", 10)
	v.SetDefault("viewport.min_zoom", 15.5)
	v.SetDefault("viewport.detail_zoom", 17)
	v.SetDefault("viewport.top_n", 20)
	v.SetDefault("viewport.debounce_ms", 600)
	v.SetDefault("viewport.on_fetch_failure", "keep-stale")
	v.SetDefault("origin.lat", 38.4237)
	v.SetDefault("origin.lon", 27.1428)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 86400)
	v.SetDefault("auth.user_ttl", 0)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("activity.report_interval", 60)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if len(c.Overpass.Servers) == 0 {
		errs = append(errs, "overpass.servers must list at least one server")
	}
	for _, s := range c.Overpass.Servers {
		if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
			errs = append(errs, fmt.Sprintf("overpass.servers: %q is not an http(s) URL", s))
		}
	}
	if c.Overpass.AttemptTimeout <= 0 {
		errs = append(errs, "overpass.attempt_timeout must be positive")
	}
	if c.Overpass.RateLimit <= 0 {
		errs = append(errs, "overpass.rate_limit must be positive")
	}
	if c.OSRM.BaseURL == "" {
		errs = append(errs, "osrm.base_url is required")
	}
	if c.OSRM.Timeout <= 0 {
		errs = append(errs, "osrm.timeout must be positive")
	}
	if c.Viewport.MinZoom < 0 || c.Viewport.MinZoom > 22 {
		errs = append(errs, fmt.Sprintf("viewport.min_zoom must be 0-22, got %g", c.Viewport.MinZoom))
	}
	if c.Viewport.DetailZoom < c.Viewport.MinZoom {
		errs = append(errs, "viewport.detail_zoom must not be below viewport.min_zoom")
	}
	if c.Viewport.TopN < 1 {
		errs = append(errs, fmt.Sprintf("viewport.top_n must be at least 1, got %d", c.Viewport.TopN))
	}
	if c.Viewport.DebounceMS < 0 {
		errs = append(errs, "viewport.debounce_ms must not be negative")
	}
	switch c.Viewport.OnFetchFailure {
	case "keep-stale", "clear":
	default:
		errs = append(errs, fmt.Sprintf("viewport.on_fetch_failure must be keep-stale or clear, got %q", c.Viewport.OnFetchFailure))
	}
	if c.Origin.Lat < -90 || c.Origin.Lat > 90 || c.Origin.Lon < -180 || c.Origin.Lon > 180 {
		errs = append(errs, "origin is out of range")
	}
	if c.Activity.ReportInterval <= 0 {
		errs = append(errs, "activity.report_interval must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, "auth.token_ttl must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
