package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Redis   RedisConfig
	LLM     LLMConfig
	Cases   CasesConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	ReadTimeout        int
	WriteTimeout       int
	BodyLimit          int
	MaxQuestionLength  int
	RateLimitPerMinute int
	AllowedOrigins     []string
	Development        bool
}

// StoreConfig selects the document store backing the law catalogue and the
// application collections. Driver is one of sqlite, postgres or memory.
type StoreConfig struct {
	Driver      string
	SQLitePath  string
	PostgresURL string
	// SeedOnStart loads the built-in catalogue when the collection is empty.
	SeedOnStart bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	Stream   string
}

type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

// Configured reports whether a provider credential is present. A missing key
// is not a startup error: the chatbot answers with context only.
func (c LLMConfig) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

type CasesConfig struct {
	CounterPolicy string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

// Load reads .env files, config.yaml and LEGALEASE_* environment variables,
// in increasing order of precedence.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	// .env is optional; real environment variables always win over it.
	_ = godotenv.Load()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/legalease")

	v.SetEnvPrefix("LEGALEASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "sqlite", "memory":
	case "postgres":
		if c.Store.PostgresURL == "" {
			return fmt.Errorf("store.postgresURL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}

	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}

	switch c.Cases.CounterPolicy {
	case "count_every_update", "count_once":
	default:
		return fmt.Errorf("unsupported cases.counterPolicy %q", c.Cases.CounterPolicy)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 60)
	v.SetDefault("server.bodyLimit", 1048576)
	v.SetDefault("server.maxQuestionLength", 2000)
	v.SetDefault("server.rateLimitPerMinute", 60)
	v.SetDefault("server.allowedOrigins", []string{})
	v.SetDefault("server.development", false)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlitePath", "./data/legalease.db")
	v.SetDefault("store.postgresURL", "")
	v.SetDefault("store.seedOnStart", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "legalease:notifications")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "deepseek-chat")
	v.SetDefault("llm.apiKey", "")
	v.SetDefault("llm.baseURL", "https://api.deepseek.com")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.maxTokens", 500)
	v.SetDefault("llm.timeoutSec", 30)

	v.SetDefault("cases.counterPolicy", "count_every_update")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
