package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// LoadConfig builds the configuration from defaults, the YAML file at path
// (optional) and BOT_* environment variables, then validates it once.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Secrets have no default, so AutomaticEnv alone would not surface them on Unmarshal.
	for _, key := range []string{"telegram.token", "gemini.api_key"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("%w: failed to bind env for %s: %v", ErrConfiguration, key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, path, err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	slog.Debug("Configuration loaded",
		"db_path", cfg.Database.Path,
		"llm_group", cfg.LLM.Group,
		"llm_models", len(cfg.LLM.Models),
		"permission_mode", cfg.Permissions.Mode)
	return cfg, nil
}

// Validate checks struct tags and the cross-field rules. An unknown
// permission mode falls back to blacklist.
func (c *Config) Validate() error {
	mode := strings.ToLower(strings.TrimSpace(c.Permissions.Mode))
	switch mode {
	case PermissionWhitelist, PermissionBlacklist:
	default:
		slog.Warn("Invalid permission mode, falling back to blacklist", "mode", c.Permissions.Mode)
		mode = PermissionBlacklist
	}
	c.Permissions.Mode = mode
	if mode == PermissionWhitelist && len(c.Permissions.UserIDs) == 0 {
		slog.Warn("Permission mode is whitelist but the user list is empty; only admins can use the bot")
	}

	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if len(c.LLM.Models) == 0 && strings.TrimSpace(c.LLM.Group) == "" {
		return errors.New("llm: either models or group must be set")
	}
	if c.Portrayal.Timezone != "" {
		if _, err := c.Portrayal.Location(); err != nil {
			return fmt.Errorf("portrayal.timezone: %w", err)
		}
	}
	return nil
}
