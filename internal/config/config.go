// Package config loads ls-impact settings from an optional TOML file, the
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/litescript/ls-impact/internal/impact"
	"github.com/litescript/ls-impact/internal/neo"
)

// EnvPrefix prefixes every environment override, e.g. LSIMPACT_NEO_API_KEY.
const EnvPrefix = "LSIMPACT"

// NEOConfig configures the near-Earth-object feed client.
type NEOConfig struct {
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RatePerSec float64       `mapstructure:"rate_per_sec"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Addr       string  `mapstructure:"addr"`
	RatePerSec float64 `mapstructure:"rate_per_sec"`
	Burst      int     `mapstructure:"burst"`
	StreamFPS  int     `mapstructure:"stream_fps"`
	MaxStreams int     `mapstructure:"max_streams"`
	TrustProxy bool    `mapstructure:"trust_proxy"` // honour X-Forwarded-For for client IPs
}

// SimConfig is the initial simulation view.
type SimConfig struct {
	Rate    float64 `mapstructure:"rate"`
	TiltDeg float64 `mapstructure:"tilt_deg"`
}

// Config is the full application configuration.
type Config struct {
	LogLevel string           `mapstructure:"log_level"`
	NEO      NEOConfig        `mapstructure:"neo"`
	Server   ServerConfig     `mapstructure:"server"`
	Sim      SimConfig        `mapstructure:"sim"`
	Impact   impact.Constants `mapstructure:"impact"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LogLevel: "info",
		NEO: NEOConfig{
			URL:        neo.DefaultFeedURL,
			APIKey:     neo.DemoAPIKey,
			Timeout:    neo.DefaultTimeout,
			RatePerSec: 0.5,
		},
		Server: ServerConfig{
			Addr:       "127.0.0.1:8080",
			RatePerSec: 20,
			Burst:      40,
			StreamFPS:  10,
			MaxStreams: 32,
		},
		Sim: SimConfig{
			Rate:    86400,
			TiltDeg: 20,
		},
		Impact: impact.DefaultConstants(),
	}
}

// Validate checks values that would break a component at startup.
func (c Config) Validate() error {
	if err := c.Impact.Validate(); err != nil {
		return err
	}
	if c.NEO.URL == "" {
		return errors.New("config: neo.url is empty")
	}
	if c.NEO.Timeout <= 0 {
		return fmt.Errorf("config: neo.timeout must be positive, got %v", c.NEO.Timeout)
	}
	if c.Server.RatePerSec < 0 || c.Server.Burst < 0 {
		return errors.New("config: server.rate_per_sec and server.burst must not be negative")
	}
	if c.Server.StreamFPS < 1 || c.Server.StreamFPS > 60 {
		return fmt.Errorf("config: server.stream_fps must be in [1, 60], got %d", c.Server.StreamFPS)
	}
	if c.Server.MaxStreams < 1 {
		return fmt.Errorf("config: server.max_streams must be positive, got %d", c.Server.MaxStreams)
	}
	return nil
}

// New returns a viper instance with defaults, search paths and environment
// binding set up. Flags can be bound to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("ls-impact")
	v.SetConfigType("toml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "ls-impact"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "ls-impact"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())
	return v
}

// setDefaults registers every key so environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	var flat map[string]interface{}
	if err := mapstructure.Decode(d, &flat); err != nil {
		panic(fmt.Sprintf("config: flatten defaults: %v", err))
	}
	walk("", flat, v.SetDefault)
}

func walk(prefix string, m map[string]interface{}, set func(string, interface{})) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]interface{}); ok {
			walk(key, sub, set)
			continue
		}
		set(key, val)
	}
}

// Load reads the config file if one exists and decodes the merged settings.
// A missing file in the search paths is not an error; an explicitly set
// file that cannot be read is.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// UsedFile returns the path of the config file that was read, if any.
func UsedFile(v *viper.Viper) string {
	return v.ConfigFileUsed()
}
