// Package config loads mcqflow settings from a YAML file, a .env file and
// MCQFLOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/abhisek/mcqflow/internal/llm"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "MCQFLOW"

type Config struct {
	LLM    LLMConfig    `mapstructure:"llm"`
	Output OutputConfig `mapstructure:"output"`
	Store  StoreConfig  `mapstructure:"store"`
	Server ServerConfig `mapstructure:"server"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Stress StressConfig `mapstructure:"stress"`
}

// LLMConfig selects and tunes the model provider. An empty Provider means
// "pick the first provider whose standard API key is set".
type LLMConfig struct {
	Provider    string         `mapstructure:"provider"`
	Temperature float64        `mapstructure:"temperature"`
	Timeout     time.Duration  `mapstructure:"timeout"`
	MaxRetries  int            `mapstructure:"max_retries"`
	Gemini      ProviderConfig `mapstructure:"gemini"`
	OpenAI      ProviderConfig `mapstructure:"openai"`
	Anthropic   ProviderConfig `mapstructure:"anthropic"`
	OpenRouter  ProviderConfig `mapstructure:"openrouter"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OutputConfig struct {
	Dir  string `mapstructure:"dir"`
	File string `mapstructure:"file"`
}

// StoreConfig points at the SQLite database. An empty Path uses the XDG
// default.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// RedisConfig enables the Redis result sink when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type StressConfig struct {
	Report     string `mapstructure:"report"`
	TopicsFile string `mapstructure:"topics_file"`
}

// Load reads configuration. path may name a config file explicitly; when
// empty, mcqflow.yaml is looked up in the working directory and ./config.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mcqflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := llm.DefaultConfig()
	v.SetDefault("llm.temperature", d.Temperature)
	v.SetDefault("llm.timeout", d.Timeout)
	v.SetDefault("llm.max_retries", d.Retry.MaxAttempts)
	v.SetDefault("llm.gemini.model", d.Gemini.Model)
	v.SetDefault("llm.openai.model", d.OpenAI.Model)
	v.SetDefault("llm.anthropic.model", d.Anthropic.Model)
	v.SetDefault("llm.openrouter.model", d.OpenRouter.Model)

	v.SetDefault("output.dir", "data/output")
	v.SetDefault("output.file", "final_output.json")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("redis.prefix", "mcqflow")
	v.SetDefault("stress.report", "data/logs/stress_test_results.json")
}

// bindEnv maps nested keys to MCQFLOW_<SECTION>_<KEY>. Provider credentials
// also accept the short MCQFLOW_<PROVIDER>_API_KEY form.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	keys := []string{
		"llm.provider",
		"llm.openai.base_url",
		"llm.openrouter.base_url",
		"redis.addr",
		"redis.password",
		"redis.db",
		"redis.ttl",
		"stress.topics_file",
	}
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return fmt.Errorf("bind %s: %w", k, err)
		}
	}

	for _, p := range []string{"gemini", "openai", "anthropic", "openrouter"} {
		upper := strings.ToUpper(p)
		if err := v.BindEnv("llm."+p+".api_key",
			EnvPrefix+"_LLM_"+upper+"_API_KEY",
			EnvPrefix+"_"+upper+"_API_KEY",
		); err != nil {
			return fmt.Errorf("bind %s api key: %w", p, err)
		}
		if err := v.BindEnv("llm."+p+".model",
			EnvPrefix+"_LLM_"+upper+"_MODEL",
			EnvPrefix+"_"+upper+"_MODEL",
		); err != nil {
			return fmt.Errorf("bind %s model: %w", p, err)
		}
	}
	// Legacy store override shared with store.DefaultDBPath.
	return v.BindEnv("store.path", EnvPrefix+"_STORE_PATH", EnvPrefix+"_DB")
}

func (c *Config) Validate() error {
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2], got %v", c.LLM.Temperature)
	}
	if c.LLM.MaxRetries < 1 {
		return fmt.Errorf("llm.max_retries must be at least 1, got %d", c.LLM.MaxRetries)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm.timeout must not be negative")
	}
	if c.Output.File == "" {
		return fmt.Errorf("output.file is required")
	}
	if c.Redis.TTL < 0 {
		return fmt.Errorf("redis.ttl must not be negative")
	}
	return nil
}

// LLMProviderConfig converts the loaded settings into a provider configuration.
// With no provider named, the first standard API key found in the
// environment decides; explicit model and tuning settings still apply.
func (c *Config) LLMProviderConfig() (llm.Config, error) {
	cfg := llm.DefaultConfig()
	cfg.Provider = c.LLM.Provider
	cfg.Temperature = c.LLM.Temperature
	cfg.Timeout = c.LLM.Timeout
	cfg.Retry.MaxAttempts = c.LLM.MaxRetries

	cfg.Gemini.APIKey, cfg.Gemini.Model = c.LLM.Gemini.APIKey, c.LLM.Gemini.Model
	cfg.OpenAI.APIKey, cfg.OpenAI.Model = c.LLM.OpenAI.APIKey, c.LLM.OpenAI.Model
	cfg.OpenAI.BaseURL = c.LLM.OpenAI.BaseURL
	cfg.Anthropic.APIKey, cfg.Anthropic.Model = c.LLM.Anthropic.APIKey, c.LLM.Anthropic.Model
	cfg.OpenRouter.APIKey, cfg.OpenRouter.Model = c.LLM.OpenRouter.APIKey, c.LLM.OpenRouter.Model
	if c.LLM.OpenRouter.BaseURL != "" {
		cfg.OpenRouter.BaseURL = c.LLM.OpenRouter.BaseURL
	}

	if cfg.Provider == "" {
		cfg.Provider = firstConfigured(cfg)
	}
	if cfg.Provider == "" {
		found, ok := llm.DiscoverConfig()
		if !ok {
			return llm.Config{}, fmt.Errorf("no LLM provider configured: set llm.provider or one of GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY, OPENROUTER_API_KEY")
		}
		cfg.Provider = found.Provider
		cfg.Gemini.APIKey = found.Gemini.APIKey
		cfg.OpenAI.APIKey = found.OpenAI.APIKey
		cfg.Anthropic.APIKey = found.Anthropic.APIKey
		cfg.OpenRouter.APIKey = found.OpenRouter.APIKey
	}

	if err := cfg.Validate(); err != nil {
		return llm.Config{}, err
	}
	return cfg, nil
}

// firstConfigured returns the first provider with a key already loaded from
// the config file or MCQFLOW_* env, in discovery order.
func firstConfigured(cfg llm.Config) string {
	switch {
	case cfg.Gemini.APIKey != "":
		return "gemini"
	case cfg.OpenAI.APIKey != "":
		return "openai"
	case cfg.Anthropic.APIKey != "":
		return "anthropic"
	case cfg.OpenRouter.APIKey != "":
		return "openrouter"
	}
	return ""
}
