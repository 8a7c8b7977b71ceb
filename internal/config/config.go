// Package config loads pipeline configuration from environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces every variable; a double underscore nests one level,
// so SAWMILL_FILE__RETENTION_DAYS maps to file.retention_days.
const envPrefix = "SAWMILL_"

// Config holds the full pipeline configuration. A nil File or Slack section
// means that sink is not enabled.
type Config struct {
	Service    string `koanf:"service"`
	Env        string `koanf:"env"`
	Timezone   string `koanf:"timezone" validate:"omitempty,oneof=utc local tokyo newyork"`
	JSONFormat bool   `koanf:"json_format"`
	Datadog    bool   `koanf:"datadog"`
	Console    bool   `koanf:"console"`

	File  *FileConfig  `koanf:"file"`
	Slack *SlackConfig `koanf:"slack"`
}

// FileConfig configures the rotating file sink.
type FileConfig struct {
	Directory     string `koanf:"directory" validate:"required"`
	RetentionDays int    `koanf:"retention_days" validate:"required,gt=0"`
}

// SlackConfig configures the batched remote sink.
type SlackConfig struct {
	Token        string `koanf:"token" validate:"required"`
	Channel      string `koanf:"channel" validate:"required"`
	Username     string `koanf:"username"`
	IconEmoji    string `koanf:"icon_emoji"`
	FlushSeconds int    `koanf:"flush_seconds" validate:"omitempty,gt=0"`
}

// Load reads SAWMILL_-prefixed environment variables and validates the
// result. Unset sections stay nil.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}
