package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Harvest    HarvestConfig    `mapstructure:"harvest"`
	Origin     OriginConfig     `mapstructure:"origin"`
	AI         AIConfig         `mapstructure:"ai"`
	NocoDB     NocoDBConfig     `mapstructure:"nocodb"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// HarvestConfig holds the scheduler's harvesting policy
type HarvestConfig struct {
	Subreddits  []string `mapstructure:"subreddits"`
	DailyBudget int      `mapstructure:"daily_budget"`  // max new posts per source per invocation
	MinScore    int      `mapstructure:"min_score"`     // popularity floor for ranked retrieval
	MinScoreNew int      `mapstructure:"min_score_new"` // lower floor for freshest retrieval
	WithReplies bool     `mapstructure:"with_replies"`  // fetch each post's top reply
}

// OriginConfig selects and configures the content origin variant
type OriginConfig struct {
	Variant   string `mapstructure:"variant"` // public, oauth or archive
	UserAgent string `mapstructure:"user_agent"`
	PageSize  int    `mapstructure:"page_size"` // posts per origin request

	// OAuth variant (script-app client credentials)
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`

	// Archive variant
	ArchiveBaseURL string `mapstructure:"archive_base_url"`
}

// AIConfig holds enrichment provider settings
type AIConfig struct {
	Provider    string        `mapstructure:"provider"` // groq, deepseek or anthropic
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"` // OpenAI-compatible endpoint override
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	MaxRetries  int           `mapstructure:"max_retries"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

// NocoDBConfig holds remote table store settings
type NocoDBConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIToken string `mapstructure:"api_token"`
	TableID  string `mapstructure:"table_id"`
	PageSize int    `mapstructure:"page_size"`
}

// Configured reports whether the remote store has the credentials it needs
func (c NocoDBConfig) Configured() bool {
	return c.APIToken != "" && c.TableID != ""
}

// DatabaseConfig holds the local SQLite archive settings
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// CheckpointConfig holds checkpoint persistence settings
type CheckpointConfig struct {
	Path string `mapstructure:"path"`
}

// SchedulerConfig holds daemon scheduling settings
type SchedulerConfig struct {
	HarvestCron string `mapstructure:"harvest_cron"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// subredditNamePattern matches valid subreddit names: alphanumeric and
// underscore, 3-21 characters
var subredditNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,21}$`)

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in current directory and configs folder
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		// Also check user's home directory
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".grepr"))
		}
	}

	// Environment variables
	v.SetEnvPrefix("GREPR")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	v.BindEnv("ai.provider", "GREPR_AI_PROVIDER")
	v.BindEnv("ai.api_key", "GREPR_AI_API_KEY")
	v.BindEnv("ai.model", "GREPR_AI_MODEL")
	v.BindEnv("ai.base_url", "GREPR_AI_BASE_URL")
	v.BindEnv("nocodb.base_url", "GREPR_NOCODB_BASE_URL")
	v.BindEnv("nocodb.api_token", "GREPR_NOCODB_API_TOKEN")
	v.BindEnv("nocodb.table_id", "GREPR_NOCODB_TABLE_ID")
	v.BindEnv("origin.variant", "GREPR_ORIGIN_VARIANT")
	v.BindEnv("origin.client_id", "GREPR_ORIGIN_CLIENT_ID")
	v.BindEnv("origin.client_secret", "GREPR_ORIGIN_CLIENT_SECRET")
	v.BindEnv("database.dsn", "GREPR_DATABASE_DSN")
	v.BindEnv("checkpoint.path", "GREPR_CHECKPOINT_PATH")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.Harvest.Subreddits = validSubreddits(config.Harvest.Subreddits)

	return &config, nil
}

// validSubreddits drops names that don't match the subreddit naming rules,
// so a typo in the config never turns into a request for a bogus community
func validSubreddits(names []string) []string {
	valid := make([]string, 0, len(names))
	for _, name := range names {
		if subredditNamePattern.MatchString(name) {
			valid = append(valid, name)
		}
	}
	return valid
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Harvest defaults - the francophone personal-finance communities the
	// classifier vocabulary and the fact extractor are built for
	v.SetDefault("harvest.subreddits", []string{
		"vosfinances",
		"vossous",
	})
	v.SetDefault("harvest.daily_budget", 500)
	v.SetDefault("harvest.min_score", 10)
	v.SetDefault("harvest.min_score_new", 2)
	v.SetDefault("harvest.with_replies", true)

	// Origin defaults
	v.SetDefault("origin.variant", "public")
	v.SetDefault("origin.user_agent", "grepr:v1.0 (personal use)")
	v.SetDefault("origin.page_size", 100)
	v.SetDefault("origin.archive_base_url", "https://api.pullpush.io")

	// AI defaults
	v.SetDefault("ai.provider", "groq")
	v.SetDefault("ai.model", "llama-3.3-70b-versatile")
	v.SetDefault("ai.max_tokens", 500)
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.max_retries", 5)
	v.SetDefault("ai.backoff_base", "2s")

	// NocoDB defaults
	v.SetDefault("nocodb.base_url", "http://localhost:8080")
	v.SetDefault("nocodb.page_size", 1000)

	// Database defaults
	v.SetDefault("database.dsn", "./data/grepr.db")

	// Checkpoint defaults
	v.SetDefault("checkpoint.path", "./data/scheduler_progress.json")

	// Scheduler defaults
	v.SetDefault("scheduler.harvest_cron", "0 6 * * *") // 6am daily

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Harvest.Subreddits) == 0 {
		return fmt.Errorf("harvest.subreddits must name at least one community")
	}
	if c.Harvest.DailyBudget <= 0 {
		return fmt.Errorf("harvest.daily_budget must be positive")
	}
	switch c.Origin.Variant {
	case "public", "archive":
	case "oauth":
		if c.Origin.ClientID == "" || c.Origin.ClientSecret == "" {
			return fmt.Errorf("origin.client_id and origin.client_secret are required for the oauth variant")
		}
	default:
		return fmt.Errorf("unknown origin.variant %q", c.Origin.Variant)
	}
	return nil
}
