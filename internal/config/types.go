// Package config loads, defaults and validates the sketchbot configuration.
// Values come from a YAML file, overlaid by BOT_* environment variables.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config is the root configuration for the bot.
type Config struct {
	Logger      LoggerConfig      `mapstructure:"logger"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Gemini      GeminiConfig      `mapstructure:"gemini"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Portrayal   PortrayalConfig   `mapstructure:"portrayal"`
	Permissions PermissionsConfig `mapstructure:"permissions"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Messages    MessagesConfig    `mapstructure:"messages"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig points at the SQLite file and the message retention window.
type DatabaseConfig struct {
	Path          string `mapstructure:"path"           validate:"required"`
	RetentionDays int    `mapstructure:"retention_days" validate:"min=0"`
}

// TelegramConfig holds the bot token. BotInfo is filled at startup from getMe.
type TelegramConfig struct {
	Token   string       `mapstructure:"token" validate:"required"`
	BotInfo *models.User `mapstructure:"-"`
}

// GeminiConfig configures the genai client shared by every model group.
// A zero Timeout leaves calls without a local deadline; slow calls are only
// logged.
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" validate:"min=0,max=30m"`
}

// ModelGroupConfig is a named set of models with their generation settings.
type ModelGroupConfig struct {
	Models            []string      `mapstructure:"models"             validate:"required,min=1,dive,required"`
	MaxTokens         int32         `mapstructure:"max_tokens"         validate:"min=0"`
	Temperature       float32       `mapstructure:"temperature"        validate:"min=0,max=2"`
	SlowThreshold     time.Duration `mapstructure:"slow_threshold"     validate:"min=0"`
	SelectionStrategy string        `mapstructure:"selection_strategy" validate:"omitempty,oneof=balance random"`
}

// LLMConfig selects the model used for portrayals. When Models is empty the
// named Group is looked up in Groups.
type LLMConfig struct {
	Group             string                      `mapstructure:"group"`
	Models            []string                    `mapstructure:"models"             validate:"dive,required"`
	MaxTokens         int32                       `mapstructure:"max_tokens"         validate:"min=0"`
	Temperature       float32                     `mapstructure:"temperature"        validate:"min=0,max=2"`
	SlowThreshold     time.Duration               `mapstructure:"slow_threshold"     validate:"min=0"`
	SelectionStrategy string                      `mapstructure:"selection_strategy" validate:"oneof=balance random"`
	Groups            map[string]ModelGroupConfig `mapstructure:"groups"             validate:"dive"`
}

// PortrayalConfig tunes message selection and the prompt.
type PortrayalConfig struct {
	ContextLength         int           `mapstructure:"context_length"          validate:"min=0"`
	ContextLengthAfter    int           `mapstructure:"context_length_after"    validate:"min=0"`
	MaxMessageCount       int           `mapstructure:"max_message_count"       validate:"min=1"`
	RetrievalMessageCount int           `mapstructure:"retrieval_message_count" validate:"min=0"`
	MaxMessageLength      int           `mapstructure:"max_message_length"      validate:"min=0"`
	Lookback              time.Duration `mapstructure:"lookback"                validate:"min=1h"`
	AllStreamsToken       string        `mapstructure:"all_streams_token"       validate:"required"`
	Timezone              string        `mapstructure:"timezone"`
	PromptTemplate        string        `mapstructure:"prompt_template"`
}

// Permission modes.
const (
	PermissionWhitelist = "whitelist"
	PermissionBlacklist = "blacklist"
)

// PermissionsConfig decides who may use the portrayal command.
type PermissionsConfig struct {
	AdminIDs []string `mapstructure:"admin_ids" validate:"dive,numeric"`
	Mode     string   `mapstructure:"mode"`
	UserIDs  []string `mapstructure:"user_ids"  validate:"dive,numeric"`
}

// TaskConfig schedules one maintenance task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// MessagesConfig holds every user-facing text.
type MessagesConfig struct {
	Help              string `mapstructure:"help"                 validate:"required"`
	NotAuthorized     string `mapstructure:"not_authorized"       validate:"required"`
	GeneralError      string `mapstructure:"general_error"        validate:"required"`
	NoModelConfigFmt  string `mapstructure:"no_model_config_fmt"  validate:"required"`
	EmptyPrompt       string `mapstructure:"empty_prompt"         validate:"required"`
	NoTarget          string `mapstructure:"no_target"            validate:"required"`
	StreamDenied      string `mapstructure:"stream_denied"        validate:"required"`
	NoRecordsFmt      string `mapstructure:"no_records_fmt"       validate:"required"`
	NoValidContent    string `mapstructure:"no_valid_content"     validate:"required"`
	ProgressFmt       string `mapstructure:"progress_fmt"         validate:"required"`
	RenameUsage       string `mapstructure:"rename_usage"         validate:"required"`
	RenameDoneFmt     string `mapstructure:"rename_done_fmt"      validate:"required"`
	RenameUnknownUser string `mapstructure:"rename_unknown_user"  validate:"required"`
	HistoryEmpty      string `mapstructure:"history_empty"        validate:"required"`
	HistoryHeaderFmt  string `mapstructure:"history_header_fmt"   validate:"required"`
}
