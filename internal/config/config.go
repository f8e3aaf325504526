package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultOpenAIBaseURL is used when llm.provider is openai and no base URL is set.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// DefaultAnthropicBaseURL is used when llm.provider is anthropic and no base URL is set.
	DefaultAnthropicBaseURL = "https://api.anthropic.com"

	// DefaultMaxTokens caps a reply for providers that require a limit.
	DefaultMaxTokens = 4096

	// DefaultDemoteLevels is how far reply headings are pushed down.
	DefaultDemoteLevels = 2
)

// Errors reported when a chat round cannot be sent.
var (
	ErrAPIKeyNotSet  = errors.New("LLM API key not set")
	ErrBaseURLNotSet = errors.New("LLM Base URL not set")
	ErrModelNotSet   = errors.New("LLM Model not set")
)

// Config holds all configuration for mdchat.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Secrets SecretsConfig `mapstructure:"secrets"`
	Logging LoggingConfig `mapstructure:"logging"`
	API     APIConfig     `mapstructure:"api"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AuthToken  string `mapstructure:"auth_token"`
}

// LLMConfig holds completion endpoint settings.
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	BaseURL  string `mapstructure:"base_url"`
	Model    string `mapstructure:"model"`
	// APIKey is a legacy plaintext key. It is moved into the secret store
	// the first time it is needed.
	APIKey    string `mapstructure:"api_key"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// String returns a safe representation of LLMConfig with the API key masked.
func (c LLMConfig) String() string {
	return fmt.Sprintf("LLMConfig{Provider:%s, BaseURL:%s, Model:%s, APIKey:%s, MaxTokens:%d}",
		c.Provider, c.BaseURL, c.Model, maskAPIKey(c.APIKey), c.MaxTokens)
}

// Ready reports whether a chat round can be sent with c.
func (c LLMConfig) Ready() error {
	if c.BaseURL == "" {
		return ErrBaseURLNotSet
	}
	if c.Model == "" {
		return ErrModelNotSet
	}
	return nil
}

// maskAPIKey shows first 4 + last 4 chars, replacing the middle with asterisks.
func maskAPIKey(key string) string {
	const visible = 4
	if len(key) <= visible*2 {
		return "***"
	}
	return key[:visible] + "****" + key[len(key)-visible:]
}

// ChatConfig shapes the reply written into the document.
type ChatConfig struct {
	AssistantRole string `mapstructure:"assistant_role"`
	DemoteLevels  int    `mapstructure:"demote_levels"`
}

// SecretsConfig locates the credential store.
type SecretsConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. A non-empty
// file overrides the search path.
func Load(file string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.max_tokens", DefaultMaxTokens)

	v.SetDefault("chat.assistant_role", "assistant")
	v.SetDefault("chat.demote_levels", DefaultDemoteLevels)

	v.SetDefault("secrets.dir", filepath.Join(homeDir(), ".mdchat"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")

	// Config file
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(homeDir(), ".mdchat"))
		v.AddConfigPath(".")
	}

	// Environment variables
	v.SetEnvPrefix("MDCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider keys act as fallbacks for the legacy key.
	_ = v.BindEnv("llm.api_key", "MDCHAT_LLM_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("api.auth_token", "MDCHAT_API_AUTH_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = DefaultBaseURL(cfg.LLM.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// DefaultBaseURL returns the public endpoint of provider.
func DefaultBaseURL(provider string) string {
	if provider == "anthropic" {
		return DefaultAnthropicBaseURL
	}
	return DefaultOpenAIBaseURL
}

// Validate checks that configuration fields are set and consistent. The
// model and credentials are checked only when a chat round is sent.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider must be openai or anthropic, got %q", c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be greater than 0")
	}
	if strings.TrimSpace(c.Chat.AssistantRole) == "" {
		return fmt.Errorf("chat.assistant_role must not be empty")
	}
	if strings.ContainsAny(c.Chat.AssistantRole, "\r\n") {
		return fmt.Errorf("chat.assistant_role must be a single line")
	}
	if c.Chat.DemoteLevels < 1 || c.Chat.DemoteLevels > 5 {
		return fmt.Errorf("chat.demote_levels must be between 1 and 5")
	}
	if c.Secrets.Dir == "" {
		return fmt.Errorf("secrets.dir must not be empty")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
