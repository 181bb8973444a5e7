package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// APIToken is the static bearer token clients must present.
	APIToken string `envconfig:"API_TOKEN"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`

	TavilyAPIKey string `envconfig:"TAVILY_API_KEY"`

	// AlphaVantageKey is resolved from two accepted variable names; the
	// specific ORACULO_ALPHA_VANTAGE_API_KEY wins over the legacy
	// ORACULO_ALPHA_VANTAGE when both are set.
	AlphaVantageKey       string `envconfig:"ALPHA_VANTAGE_API_KEY"`
	AlphaVantageLegacyKey string `envconfig:"ALPHA_VANTAGE"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"oraculo-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	ChunkMaxChars int `envconfig:"CHUNK_MAX_CHARS" default:"500"`
	ChunkOverlap  int `envconfig:"CHUNK_OVERLAP" default:"50"`
	RetrievalTopK int `envconfig:"RETRIEVAL_TOP_K" default:"5"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("ORACULO", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.AlphaVantageKey == "" && cfg.AlphaVantageLegacyKey != "" {
		cfg.AlphaVantageKey = cfg.AlphaVantageLegacyKey
		log.Println("config: using legacy ORACULO_ALPHA_VANTAGE variable; prefer ORACULO_ALPHA_VANTAGE_API_KEY")
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasTavily() bool {
	return c.TavilyAPIKey != ""
}

func (c *Config) HasAlphaVantage() bool {
	return c.AlphaVantageKey != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// Environment reports the deployment environment for telemetry, defaulting
// to development.
func Environment() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	return env
}
