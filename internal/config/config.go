// Package config loads the process-wide configuration: a flat struct
// populated from environment variables via small getEnv/mustEnv helpers.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds every environment-derived setting the core depends on.
type Config struct {
	DataRoot           string
	EmbeddingModel     string
	OpenAIKey          string
	LLMModel           string
	LLMEndpoint        string
	VectorDim          int
	RetrieveK          int
	ContextBudgetChars int
	DeadlineDefault    time.Duration
}

// Load reads Config from the environment, applying defaults for
// non-secret fields and failing fast on anything that has no safe default.
func Load() (Config, error) {
	vectorDim, err := getEnvInt("VECTOR_DIM", 1536)
	if err != nil {
		return Config{}, err
	}
	retrieveK, err := getEnvInt("RETRIEVE_K", 5)
	if err != nil {
		return Config{}, err
	}
	contextBudget, err := getEnvInt("CONTEXT_BUDGET_CHARS", 8000)
	if err != nil {
		return Config{}, err
	}
	deadline, err := getEnvDuration("DEADLINE_DEFAULT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	apiKey, err := mustEnv("OPENAI_API_KEY")
	if err != nil {
		return Config{}, err
	}

	return Config{
		DataRoot:           getEnv("DATA_ROOT", "./data"),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		OpenAIKey:          apiKey,
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMEndpoint:        getEnv("LLM_ENDPOINT", ""),
		VectorDim:          vectorDim,
		RetrieveK:          retrieveK,
		ContextBudgetChars: contextBudget,
		DeadlineDefault:    deadline,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("required environment variable %s not set", key)
	}
	return v, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", key, err)
	}
	return d, nil
}

// MustLoad is Load but logs and exits on failure, for callers that have
// no useful way to recover at startup.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}
