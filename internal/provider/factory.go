package provider

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/cloudwego/eino/components/model"
)

// Defaults applied when the environment does not specify otherwise.
const (
	defaultMaxTokens   = 2048
	defaultTemperature = 0.7
)

// ConfigFromEnv resolves the provider configuration from environment
// variables. MODEL_PROVIDER selects the backend (default: dashscope);
// MODEL_NAME, MODEL_BASE_URL, MODEL_API_KEY, MODEL_MAX_TOKENS, and
// MODEL_TEMPERATURE refine it. The dashscope backend reads
// DASHSCOPE_API_KEY directly so one key serves both chat and embedding.
func ConfigFromEnv() *Config {
	backend := Backend(getEnvOrDefault("MODEL_PROVIDER", string(BackendDashScope)))

	apiKey := os.Getenv("MODEL_API_KEY")
	if apiKey == "" && backend == BackendDashScope {
		apiKey = os.Getenv("DASHSCOPE_API_KEY")
	}

	return &Config{
		Backend:     backend,
		Model:       os.Getenv("MODEL_NAME"),
		BaseURL:     os.Getenv("MODEL_BASE_URL"),
		APIKey:      apiKey,
		MaxTokens:   getEnvInt("MODEL_MAX_TOKENS", defaultMaxTokens),
		Temperature: getEnvFloat32("MODEL_TEMPERATURE", defaultTemperature),
	}
}

// NewFromEnv constructs a ToolCallingChatModel from environment variables.
func NewFromEnv(ctx context.Context) (model.ToolCallingChatModel, error) {
	return New(ctx, ConfigFromEnv())
}

// New constructs a ToolCallingChatModel from the given config.
func New(ctx context.Context, cfg *Config) (model.ToolCallingChatModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendDashScope:
		return newDashScope(ctx, cfg)
	case BackendOpenAI:
		return newOpenAI(ctx, cfg)
	case BackendOllama:
		return newOllama(ctx, cfg)
	case BackendArk:
		return newArk(ctx, cfg)
	default:
		return nil, fmt.Errorf("provider: unknown backend %q", cfg.Backend)
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat32(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}
