package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Server      ServerConfig
	LLM         LLMConfig
	RedisConfig RedisConfig
	Extract     ExtractConfig
	Log         LogConfig
	CacheEnable bool   `env:"CACHE_ENABLE"`
	PromptsDir  string `env:"PROMPTS_DIR"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:"redis:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"REDIS_TTL" envDefault:"1h"`
}

type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ThrottleLimit   int           `env:"SERVER_THROTTLE_LIMIT" envDefault:"50"`
	MaxUploadBytes  int64         `env:"SERVER_MAX_UPLOAD_BYTES" envDefault:"104857600"`
	MaxFormMemory   int64         `env:"SERVER_MAX_FORM_MEMORY" envDefault:"33554432"`
}

// LLMConfig selects the upstream provider and the per-endpoint budgets.
type LLMConfig struct {
	Provider     string `env:"LLM_PROVIDER" envDefault:"openai"`
	Model        string `env:"LLM_MODEL" envDefault:"gpt-4o"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIBase   string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	GenerateMaxTokens     int64 `env:"GENERATE_MAX_TOKENS" envDefault:"8192"`
	ReviseMaxTokens       int64 `env:"REVISE_MAX_TOKENS" envDefault:"8192"`
	ImagePromptsMaxTokens int64 `env:"IMAGE_PROMPTS_MAX_TOKENS" envDefault:"2048"`

	GenerateMaxDuration     time.Duration `env:"GENERATE_MAX_DURATION" envDefault:"300s"`
	ReviseMaxDuration       time.Duration `env:"REVISE_MAX_DURATION" envDefault:"300s"`
	ImagePromptsMaxDuration time.Duration `env:"IMAGE_PROMPTS_MAX_DURATION" envDefault:"120s"`
}

type ExtractConfig struct {
	Workers int `env:"EXTRACT_WORKERS" envDefault:"4"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.Extract.Workers < 1 {
		return fmt.Errorf("EXTRACT_WORKERS must be positive, got %d", c.Extract.Workers)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("SERVER_MAX_UPLOAD_BYTES must be positive")
	}
	for name, n := range map[string]int64{
		"GENERATE_MAX_TOKENS":      c.LLM.GenerateMaxTokens,
		"REVISE_MAX_TOKENS":        c.LLM.ReviseMaxTokens,
		"IMAGE_PROMPTS_MAX_TOKENS": c.LLM.ImagePromptsMaxTokens,
	} {
		if n < 1 || n > math.MaxInt32 {
			return fmt.Errorf("%s must be in [1, %d], got %d", name, math.MaxInt32, n)
		}
	}
	return nil
}
