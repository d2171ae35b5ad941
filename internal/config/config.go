// Package config loads deskd configuration from a JSON file with
// DESKD_-prefixed environment variable overlays.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/deskd-io/deskd/internal/router"
	"github.com/deskd-io/deskd/internal/ticket"
)

// Config is the top-level deskd configuration.
type Config struct {
	Core       CoreConfig            `json:"core"`
	Knowledge  KnowledgeConfig       `json:"knowledge"`
	Flows      FlowsConfig           `json:"flows"`
	Composer   ComposerConfig        `json:"composer"`
	API        APIConfig             `json:"api"`
	Connectors ConnectorConfig       `json:"connectors"`
	Staff      []ticket.Staff        `json:"staff,omitempty"`
	Catalog    []router.SoftwareEntry `json:"catalog,omitempty"`
}

// CoreConfig holds decision-core settings.
type CoreConfig struct {
	DataDir             string  `json:"data_dir"`
	SessionTTLHours     int     `json:"session_ttl_hours,omitempty"`
	MaxTurns            int     `json:"max_turns,omitempty"`
	MaxSubQueries       int     `json:"max_sub_queries,omitempty"`
	AutoCreateThreshold float64 `json:"auto_create_threshold,omitempty"`
	// SweepSchedule and ProgressSchedule are cron expressions for the
	// session sweep and ticket progression jobs.
	SweepSchedule    string `json:"sweep_schedule,omitempty"`
	ProgressSchedule string `json:"progress_schedule,omitempty"`
	// ProgressAgeHours is how long a ticket sits before auto-advancing.
	ProgressAgeHours int `json:"progress_age_hours,omitempty"`
}

// KnowledgeConfig locates external article packs.
type KnowledgeConfig struct {
	PackDir string `json:"pack_dir,omitempty"`
	// Builtin disables the stock corpus when false is explicitly set.
	Builtin *bool `json:"builtin,omitempty"`
}

// FlowsConfig locates external troubleshooting flow packs.
type FlowsConfig struct {
	PackDir string `json:"pack_dir,omitempty"`
	Builtin *bool  `json:"builtin,omitempty"`
}

// ComposerConfig selects and configures the reply composer.
type ComposerConfig struct {
	// Kind is "template" (default) or "llm".
	Kind    string `json:"kind,omitempty"`
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model,omitempty"`
}

// ConnectorConfig holds settings for external platform connectors.
type ConnectorConfig struct {
	Telegram *TelegramConfig `json:"telegram,omitempty"`
	Slack    *SlackConfig    `json:"slack,omitempty"`
	Webhook  *WebhookConfig  `json:"webhook,omitempty"`
}

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token     string  `json:"token"`
	AllowFrom []int64 `json:"allow_from,omitempty"`
}

// SlackConfig holds Slack Socket Mode settings.
type SlackConfig struct {
	BotToken string `json:"bot_token"`
	AppToken string `json:"app_token"`
}

// WebhookConfig posts replies to an external HTTP endpoint.
type WebhookConfig struct {
	URL    string `json:"url"`
	Secret string `json:"secret,omitempty"`
}

// APIConfig holds REST API server settings.
type APIConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Key  string `json:"api_key"`
}

// Load reads configuration from a JSON file, overlays DESKD_ environment
// variables, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv builds configuration from DESKD_ environment variables
// alone, for container deployments without a config file.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays DESKD_ environment variables onto the config.
// Environment values win over file values.
func (c *Config) applyEnv() {
	setString(&c.Core.DataDir, "DESKD_DATA_DIR")
	setInt(&c.Core.SessionTTLHours, "DESKD_SESSION_TTL_HOURS")
	setInt(&c.Core.MaxTurns, "DESKD_MAX_TURNS")
	setString(&c.Core.SweepSchedule, "DESKD_SWEEP_SCHEDULE")
	setString(&c.Core.ProgressSchedule, "DESKD_PROGRESS_SCHEDULE")

	setString(&c.Knowledge.PackDir, "DESKD_KNOWLEDGE_DIR")
	setString(&c.Flows.PackDir, "DESKD_FLOWS_DIR")

	setString(&c.Composer.Kind, "DESKD_COMPOSER")
	setString(&c.Composer.APIKey, "DESKD_COMPOSER_API_KEY")
	setString(&c.Composer.BaseURL, "DESKD_COMPOSER_BASE_URL")
	setString(&c.Composer.Model, "DESKD_COMPOSER_MODEL")

	setString(&c.API.Host, "DESKD_API_HOST")
	setInt(&c.API.Port, "DESKD_API_PORT")
	setString(&c.API.Key, "DESKD_API_KEY")

	if token := os.Getenv("DESKD_TELEGRAM_TOKEN"); token != "" {
		if c.Connectors.Telegram == nil {
			c.Connectors.Telegram = &TelegramConfig{}
		}
		c.Connectors.Telegram.Token = token
	}
	if ids := os.Getenv("DESKD_TELEGRAM_ALLOW_FROM"); ids != "" && c.Connectors.Telegram != nil {
		if parsed, err := parseInt64List(ids); err == nil {
			c.Connectors.Telegram.AllowFrom = parsed
		}
	}
	if token := os.Getenv("DESKD_SLACK_BOT_TOKEN"); token != "" {
		if c.Connectors.Slack == nil {
			c.Connectors.Slack = &SlackConfig{}
		}
		c.Connectors.Slack.BotToken = token
	}
	if token := os.Getenv("DESKD_SLACK_APP_TOKEN"); token != "" {
		if c.Connectors.Slack == nil {
			c.Connectors.Slack = &SlackConfig{}
		}
		c.Connectors.Slack.AppToken = token
	}
	if url := os.Getenv("DESKD_WEBHOOK_URL"); url != "" {
		if c.Connectors.Webhook == nil {
			c.Connectors.Webhook = &WebhookConfig{}
		}
		c.Connectors.Webhook.URL = url
	}
}

func (c *Config) applyDefaults() {
	if c.Core.DataDir == "" {
		c.Core.DataDir = "/data"
	}
	if c.Core.SessionTTLHours == 0 {
		c.Core.SessionTTLHours = 24
	}
	if c.Core.MaxTurns == 0 {
		c.Core.MaxTurns = 40
	}
	if c.Core.MaxSubQueries == 0 {
		c.Core.MaxSubQueries = 4
	}
	if c.Core.AutoCreateThreshold == 0 {
		c.Core.AutoCreateThreshold = 0.5
	}
	if c.Core.SweepSchedule == "" {
		c.Core.SweepSchedule = "@every 10m"
	}
	if c.Core.ProgressSchedule == "" {
		c.Core.ProgressSchedule = "@every 30m"
	}
	if c.Core.ProgressAgeHours == 0 {
		c.Core.ProgressAgeHours = 4
	}
	if c.Composer.Kind == "" {
		c.Composer.Kind = "template"
	}
	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
}

// Validate checks for required and consistent fields.
func (c *Config) Validate() error {
	var errs []string

	if c.Core.DataDir == "" {
		errs = append(errs, "core.data_dir is required")
	}
	if c.Core.SessionTTLHours < 0 {
		errs = append(errs, "core.session_ttl_hours must not be negative")
	}
	if _, err := cron.ParseStandard(c.Core.SweepSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("core.sweep_schedule %q: %v", c.Core.SweepSchedule, err))
	}
	if _, err := cron.ParseStandard(c.Core.ProgressSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("core.progress_schedule %q: %v", c.Core.ProgressSchedule, err))
	}

	switch c.Composer.Kind {
	case "template":
	case "llm":
		if c.Composer.APIKey == "" {
			errs = append(errs, "composer.api_key is required for the llm composer")
		}
	default:
		errs = append(errs, fmt.Sprintf("composer.kind %q is not supported", c.Composer.Kind))
	}

	if c.Connectors.Telegram != nil && c.Connectors.Telegram.Token == "" {
		errs = append(errs, "connectors.telegram.token is required")
	}
	if c.Connectors.Slack != nil {
		if c.Connectors.Slack.BotToken == "" {
			errs = append(errs, "connectors.slack.bot_token is required")
		}
		if c.Connectors.Slack.AppToken == "" {
			errs = append(errs, "connectors.slack.app_token is required")
		}
	}
	if c.Connectors.Webhook != nil && c.Connectors.Webhook.URL == "" {
		errs = append(errs, "connectors.webhook.url is required")
	}

	for i, s := range c.Staff {
		if s.Name == "" {
			errs = append(errs, fmt.Sprintf("staff[%d].name is required", i))
		}
	}
	for i, e := range c.Catalog {
		if e.Name == "" || e.Version == "" {
			errs = append(errs, fmt.Sprintf("catalog[%d] needs name and version", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func parseInt64List(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	result := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", p)
		}
		result = append(result, n)
	}
	return result, nil
}
