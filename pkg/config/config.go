// Package config loads service configuration from defaults, an optional
// council.yaml file, and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete service configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Council    CouncilConfig    `mapstructure:"council"`
	Tools      ToolsConfig      `mapstructure:"tools"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// AllowedOrigins are CORS origins permitted to call the API.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// OpenRouterConfig controls the upstream model gateway client.
type OpenRouterConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// CouncilConfig selects the deliberating models.
type CouncilConfig struct {
	Members           []string `mapstructure:"members"`
	Chairman          string   `mapstructure:"chairman"`
	MaxToolIterations int      `mapstructure:"max_tool_iterations"`
}

// ToolsConfig controls the tool surface offered during Stage 1.
type ToolsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	TavilyAPIKey string `mapstructure:"tavily_api_key"`
	// MCPServers are transport specs for external tool servers, e.g.
	// "stdio://npx some-mcp-server" or "sse://localhost:3001/sse".
	MCPServers []string `mapstructure:"mcp_servers"`
}

// StorageConfig locates the JSON stores.
type StorageConfig struct {
	ConversationsDir string `mapstructure:"conversations_dir"`
	TemplatesDir     string `mapstructure:"templates_dir"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Timeout returns the OpenRouter HTTP timeout as a duration.
func (c OpenRouterConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8001")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.timeout_seconds", 120)
	v.SetDefault("council.members", []string{
		"openai/gpt-5.2",
		"google/gemini-3-pro-preview",
		"anthropic/claude-sonnet-4.5",
	})
	v.SetDefault("council.chairman", "openai/gpt-5.2")
	v.SetDefault("council.max_tool_iterations", 5)
	v.SetDefault("tools.enabled", true)
	v.SetDefault("storage.conversations_dir", "data/conversations")
	v.SetDefault("storage.templates_dir", "data/templates")
	v.SetDefault("logging.level", "info")
}

// Load reads configuration from council.yaml (searched in dir, or the current
// directory when dir is empty) plus COUNCIL_* environment variables. A missing
// config file is not an error; a missing OpenRouter API key is.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("council")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	} else {
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("COUNCIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Conventional names take precedence over the COUNCIL_ prefix for keys.
	v.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY", "COUNCIL_OPENROUTER_API_KEY")
	v.BindEnv("tools.tavily_api_key", "TAVILY_API_KEY", "COUNCIL_TOOLS_TAVILY_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read council.yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.OpenRouter.APIKey == "" {
		return errors.New("config: OPENROUTER_API_KEY is required")
	}
	if len(c.Council.Members) == 0 {
		return errors.New("config: council.members must not be empty")
	}
	if c.Council.Chairman == "" {
		return errors.New("config: council.chairman must not be empty")
	}
	if c.Council.MaxToolIterations < 0 {
		return errors.New("config: council.max_tool_iterations must not be negative")
	}
	return nil
}
