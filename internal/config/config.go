package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	AI         AI         `mapstructure:"ai"`
	Generation Generation `mapstructure:"generation"`
	Text       Text       `mapstructure:"text"`
	Templates  Templates  `mapstructure:"templates"`
	Visual     Visual     `mapstructure:"visual"`
	Server     Server     `mapstructure:"server"`
	Logging    Logging    `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug      bool   `mapstructure:"debug"`
	DataDir    string `mapstructure:"data_dir"`
	ConfigFile string `mapstructure:"config_file"`
}

// AI holds model backend configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey         string   `mapstructure:"api_key"`
	Model          string   `mapstructure:"model"`
	FallbackModels []string `mapstructure:"fallback_models"`
	Timeout        string   `mapstructure:"timeout"`
	Temperature    float32  `mapstructure:"temperature"` // 0 keeps the model default
}

// OpenAIConfig holds OpenAI configuration, used for gpt-* backends and images
type OpenAIConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	ImageModel string `mapstructure:"image_model"`
	Timeout    string `mapstructure:"timeout"`
}

// Generation holds prompt and invocation policy settings
type Generation struct {
	MinChars        int    `mapstructure:"min_chars"`
	MaxChars        int    `mapstructure:"max_chars"`
	TransientDelay  string `mapstructure:"transient_delay"`
	QuotaRetries    int    `mapstructure:"quota_retries"`
	QuotaRetryDelay string `mapstructure:"quota_retry_delay"`
	ReferenceDate   string `mapstructure:"reference_date"` // YYYY-MM anchor for fact checks
}

// Text holds text metric settings
type Text struct {
	Script string `mapstructure:"script"`
}

// Templates holds prompt template persistence settings
type Templates struct {
	Backend       string `mapstructure:"backend"` // sqlite, postgres, redis
	PostgresURL   string `mapstructure:"postgres_url"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisKey      string `mapstructure:"redis_key"`
}

// Visual holds thumbnail configuration
type Visual struct {
	Provider    string `mapstructure:"provider"` // solid, placeholder, stock, openai
	Width       int    `mapstructure:"width"`
	Height      int    `mapstructure:"height"`
	OutputDir   string `mapstructure:"output_dir"`
	URLTemplate string `mapstructure:"url_template"`
}

// Server holds HTTP server configuration
type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	CORS            CORS          `mapstructure:"cors"`
}

// CORS holds cross-origin settings
type CORS struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultFallbackModels is tried in order after the preferred backend.
var DefaultFallbackModels = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
	"gemini-flash-latest",
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".autoblog")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.App.ConfigFile = viper.ConfigFileUsed()

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the loaded configuration (for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.data_dir", ".autoblog-data")

	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.fallback_models", DefaultFallbackModels)
	viper.SetDefault("ai.gemini.timeout", "120s")
	viper.SetDefault("ai.gemini.temperature", 0)
	viper.SetDefault("ai.openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("ai.openai.image_model", "dall-e-3")
	viper.SetDefault("ai.openai.timeout", "120s")

	viper.SetDefault("generation.min_chars", 1600)
	viper.SetDefault("generation.max_chars", 2000)
	viper.SetDefault("generation.transient_delay", "2s")
	viper.SetDefault("generation.quota_retries", 2)
	viper.SetDefault("generation.quota_retry_delay", "5s")
	viper.SetDefault("generation.reference_date", "2026-02")

	viper.SetDefault("text.script", "hangul-syllables")

	viper.SetDefault("templates.backend", "sqlite")
	viper.SetDefault("templates.redis_addr", "localhost:6379")
	viper.SetDefault("templates.redis_key", "autoblog:templates")

	viper.SetDefault("visual.provider", "solid")
	viper.SetDefault("visual.width", 800)
	viper.SetDefault("visual.height", 800)
	viper.SetDefault("visual.url_template", "https://placehold.co/{width}x{height}/{color}/ffffff?text={title}")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "5m")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.session_ttl", "2h")
	viper.SetDefault("server.cors.enabled", false)
	viper.SetDefault("server.cors.allowed_origins", []string{"*"})

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	// Gemini API key - support multiple formats
	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("ai.openai.api_key", []string{
		"OPENAI_API_KEY",
	})

	bindEnvKeys("templates.postgres_url", []string{
		"AUTOBLOG_DATABASE_URL",
		"DATABASE_URL",
	})

	bindEnvKeys("templates.redis_addr", []string{
		"AUTOBLOG_REDIS_ADDR",
		"REDIS_ADDR",
	})

	bindEnvKeys("templates.redis_password", []string{
		"REDIS_PASSWORD",
	})

	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"AUTOBLOG_DEBUG",
	})

	bindEnvKeys("server.port", []string{
		"PORT",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	if config.App.DataDir != "" {
		config.App.DataDir = expandPath(config.App.DataDir)
	}
	if config.Visual.OutputDir != "" {
		config.Visual.OutputDir = expandPath(config.Visual.OutputDir)
	}

	durations := map[string]string{
		"ai.gemini.timeout":            config.AI.Gemini.Timeout,
		"ai.openai.timeout":            config.AI.OpenAI.Timeout,
		"generation.transient_delay":   config.Generation.TransientDelay,
		"generation.quota_retry_delay": config.Generation.QuotaRetryDelay,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	if config.Generation.ReferenceDate != "" {
		if _, err := time.Parse("2006-01", config.Generation.ReferenceDate); err != nil {
			return fmt.Errorf("invalid generation.reference_date %q: expected YYYY-MM", config.Generation.ReferenceDate)
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig checks enumerations and ranges. A missing Gemini key is not
// an error here: a key may still arrive with each request.
func validateConfig(config *Config) error {
	var errors []string

	switch config.Templates.Backend {
	case "sqlite", "redis":
	case "postgres":
		if config.Templates.PostgresURL == "" {
			errors = append(errors, "templates.backend is postgres but no connection string is set. Set DATABASE_URL or templates.postgres_url")
		}
	default:
		errors = append(errors, fmt.Sprintf("Unknown templates backend: %s. Supported: sqlite, postgres, redis", config.Templates.Backend))
	}

	switch config.Visual.Provider {
	case "solid", "placeholder", "stock", "none":
	case "openai":
		if config.AI.OpenAI.APIKey == "" {
			errors = append(errors, "visual.provider openai requires OPENAI_API_KEY")
		}
	default:
		errors = append(errors, fmt.Sprintf("Unknown visual provider: %s. Supported: solid, placeholder, stock, openai, none", config.Visual.Provider))
	}

	if config.Generation.MinChars <= 0 {
		errors = append(errors, "generation.min_chars must be positive")
	}
	if config.Generation.MaxChars < config.Generation.MinChars {
		errors = append(errors, "generation.max_chars must not be below generation.min_chars")
	}
	if config.AI.Gemini.Temperature < 0 || config.AI.Gemini.Temperature > 2 {
		errors = append(errors, "ai.gemini.temperature must be between 0 and 2")
	}
	if config.Generation.QuotaRetries < 0 {
		errors = append(errors, "generation.quota_retries must not be negative")
	}

	switch strings.ToLower(config.Logging.Format) {
	case "json", "text":
	default:
		errors = append(errors, fmt.Sprintf("Unknown logging format: %s. Supported: json, text", config.Logging.Format))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Duration parses a validated duration string, returning fallback when empty.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// LogLevel returns the configured level, forced to debug when app.debug is set.
func (c *Config) LogLevel() string {
	if c.App.Debug {
		return "debug"
	}
	return c.Logging.Level
}

// ReferenceTime returns the fact-check anchor as the first day of the month.
func (g Generation) ReferenceTime() time.Time {
	t, err := time.Parse("2006-01", g.ReferenceDate)
	if err != nil {
		return time.Now()
	}
	return t
}
