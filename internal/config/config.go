package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/ironsheep/ambient-extractor/internal/ambient"
	"github.com/ironsheep/ambient-extractor/internal/imaging"
	"github.com/ironsheep/ambient-extractor/internal/light"
)

// EnvPrefix is prepended to every environment variable, so the key
// light.homeassistant.url is read from AMBIENT_LIGHT_HOMEASSISTANT_URL.
const EnvPrefix = "AMBIENT"

// Light backends.
const (
	BackendLog           = "log"
	BackendHomeAssistant = "homeassistant"
	BackendWebSocket     = "websocket"
)

// Configuration keys.
const (
	KeyLogLevel          = "log_level"
	KeyHTTPAddr          = "http_addr"
	KeyFetchTimeout      = "fetch_timeout"
	KeyMaxImageBytes     = "max_image_bytes"
	KeyAllowURLs         = "allowlist.urls"
	KeyAllowDirs         = "allowlist.dirs"
	KeyClusters          = "quantize.clusters"
	KeySize              = "quantize.size"
	KeyMaskBackground    = "quantize.mask_background"
	KeyLightBackend      = "light.backend"
	KeyHomeAssistantURL  = "light.homeassistant.url"
	KeyHomeAssistantTok  = "light.homeassistant.token"
	KeyHomeAssistantWait = "light.homeassistant.timeout"
	KeySchedules         = "schedules"
)

// Schedule is a cron entry that runs ambient_turn_on with fixed parameters.
type Schedule struct {
	Name   string         `mapstructure:"name"`
	Spec   string         `mapstructure:"spec"`
	Params map[string]any `mapstructure:"params"`
}

// HomeAssistant holds the REST backend settings.
type HomeAssistant struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// Config is the resolved process configuration.
type Config struct {
	LogLevel      zerolog.Level
	HTTPAddr      string
	FetchTimeout  time.Duration
	MaxImageBytes int64
	Allow         ambient.AllowList
	Quantize      imaging.QuantizeOptions
	LightBackend  string
	HomeAssistant HomeAssistant
	Schedules     []Schedule
}

// Load reads .env (if present), the optional file named by AMBIENT_CONFIG and
// AMBIENT_* environment variables, in increasing precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return fromViper(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyHTTPAddr, ":8099")
	v.SetDefault(KeyFetchTimeout, ambient.DefaultFetchTimeout)
	v.SetDefault(KeyMaxImageBytes, ambient.DefaultMaxImageBytes)
	v.SetDefault(KeyAllowURLs, []string{})
	v.SetDefault(KeyAllowDirs, []string{})
	v.SetDefault(KeyClusters, 3)
	v.SetDefault(KeySize, 80)
	v.SetDefault(KeyMaskBackground, false)
	v.SetDefault(KeyLightBackend, BackendLog)
	v.SetDefault(KeyHomeAssistantURL, "")
	v.SetDefault(KeyHomeAssistantTok, "")
	v.SetDefault(KeyHomeAssistantWait, light.DefaultTimeout)
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString(KeyLogLevel)))
	if err != nil || level == zerolog.NoLevel {
		return nil, fmt.Errorf("invalid %s %q", KeyLogLevel, v.GetString(KeyLogLevel))
	}

	fetchTimeout, err := cast.ToDurationE(v.Get(KeyFetchTimeout))
	if err != nil || fetchTimeout <= 0 {
		return nil, fmt.Errorf("invalid %s %v", KeyFetchTimeout, v.Get(KeyFetchTimeout))
	}
	haTimeout, err := cast.ToDurationE(v.Get(KeyHomeAssistantWait))
	if err != nil || haTimeout <= 0 {
		return nil, fmt.Errorf("invalid %s %v", KeyHomeAssistantWait, v.Get(KeyHomeAssistantWait))
	}
	maxBytes, err := cast.ToInt64E(v.Get(KeyMaxImageBytes))
	if err != nil || maxBytes <= 0 {
		return nil, fmt.Errorf("invalid %s %v", KeyMaxImageBytes, v.Get(KeyMaxImageBytes))
	}
	clusters, err := cast.ToIntE(v.Get(KeyClusters))
	if err != nil || clusters < 1 {
		return nil, fmt.Errorf("invalid %s %v", KeyClusters, v.Get(KeyClusters))
	}
	size, err := cast.ToUintE(v.Get(KeySize))
	if err != nil {
		return nil, fmt.Errorf("invalid %s %v", KeySize, v.Get(KeySize))
	}

	cfg := &Config{
		LogLevel:      level,
		HTTPAddr:      v.GetString(KeyHTTPAddr),
		FetchTimeout:  fetchTimeout,
		MaxImageBytes: maxBytes,
		Allow: ambient.AllowList{
			URLs: stringList(v.Get(KeyAllowURLs)),
			Dirs: stringList(v.Get(KeyAllowDirs)),
		},
		Quantize: imaging.QuantizeOptions{
			Clusters:       clusters,
			Size:           size,
			MaskBackground: cast.ToBool(v.Get(KeyMaskBackground)),
		},
		LightBackend: strings.ToLower(v.GetString(KeyLightBackend)),
		HomeAssistant: HomeAssistant{
			URL:     strings.TrimRight(v.GetString(KeyHomeAssistantURL), "/"),
			Token:   v.GetString(KeyHomeAssistantTok),
			Timeout: haTimeout,
		},
	}

	if err := v.UnmarshalKey(KeySchedules, &cfg.Schedules); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeySchedules, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LightBackend {
	case BackendLog, BackendWebSocket:
	case BackendHomeAssistant:
		if c.HomeAssistant.URL == "" {
			return errors.New("light backend homeassistant requires " + KeyHomeAssistantURL)
		}
		if c.HomeAssistant.Token == "" {
			return errors.New("light backend homeassistant requires " + KeyHomeAssistantTok)
		}
	default:
		return fmt.Errorf("unknown %s %q", KeyLightBackend, c.LightBackend)
	}

	for i, s := range c.Schedules {
		if s.Spec == "" {
			return fmt.Errorf("schedule %d (%s) has no spec", i, s.Name)
		}
	}
	return nil
}

// stringList accepts a list from a config file or a comma-separated string
// from the environment.
func stringList(v any) []string {
	if s, ok := v.(string); ok {
		v = strings.Split(s, ",")
	}
	var out []string
	for _, item := range cast.ToStringSlice(v) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
