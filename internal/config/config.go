// Package config loads configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/easeaico/senior-acido/internal/types"
)

// Limits groups every truncation and retrieval bound used during a turn.
type Limits struct {
	// RowCap is the number of CSV data rows kept in an excerpt.
	RowCap int
	// PageCap is the number of PDF pages kept in an excerpt.
	PageCap int
	// CharBudget caps a single file excerpt.
	CharBudget int
	// HistoryLimit is the number of persisted turns read into the prompt.
	HistoryLimit int
	// PromptChars caps the composed system instruction.
	PromptChars int
	// SessionWindow is the number of session turns sent to the model.
	SessionWindow       int
	SimilarTopK         int
	SimilarityThreshold float64
}

// Config holds runtime settings.
type Config struct {
	LlamaAPIKey     string
	LlamaBaseURL    string
	CapableModel    string
	EconomicalModel string
	FallbackModel   string
	ClassifierModel string
	Temperature     float64

	DatabaseURL    string
	GoogleAPIKey   string
	EmbeddingModel string

	UserID            string
	PersonaFile       string
	RoutingFile       string
	Routing           Routing
	HTTPAddr          string
	LogLevel          string
	MetricsNamespace  string
	CallTimeout       time.Duration
	WorldContext      bool
	ClassifierEnabled bool

	Limits Limits
}

// DefaultLimits returns the limits used when no override is set.
func DefaultLimits() Limits {
	return Limits{
		RowCap:              15,
		PageCap:             5,
		CharBudget:          8000,
		HistoryLimit:        5,
		PromptChars:         24000,
		SessionWindow:       20,
		SimilarTopK:         3,
		SimilarityThreshold: 0.5,
	}
}

// Load reads an optional .env file and env vars, applies defaults, and validates required fields.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, types.ConfigError("config.Load", fmt.Errorf("failed to read .env: %w", err))
	}

	cfg := Config{
		LlamaAPIKey:       strings.TrimSpace(os.Getenv("LLAMA_API_KEY")),
		LlamaBaseURL:      getEnv("LLAMA_BASE_URL", "https://api.groq.com/openai/v1"),
		CapableModel:      getEnv("CAPABLE_MODEL", "llama-3.3-70b-versatile"),
		EconomicalModel:   getEnv("ECONOMICAL_MODEL", "llama-3.1-8b-instant"),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		GoogleAPIKey:      strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		UserID:            getEnv("USER_ID", "mentorado"),
		PersonaFile:       getEnv("PERSONA_FILE", "prompts/persona.txt"),
		RoutingFile:       strings.TrimSpace(os.Getenv("ROUTING_FILE")),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		MetricsNamespace:  getEnv("METRICS_NAMESPACE", "senior_acido"),
		Limits:            DefaultLimits(),
		WorldContext:      false,
		ClassifierEnabled: true,
	}
	cfg.FallbackModel = getEnv("FALLBACK_MODEL", cfg.EconomicalModel)
	cfg.ClassifierModel = getEnv("CLASSIFIER_MODEL", cfg.EconomicalModel)

	var errs []error
	parse := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	cfg.Temperature, err = getEnvFloat("TEMPERATURE", 0.7)
	parse(err)
	cfg.CallTimeout, err = getEnvDuration("CALL_TIMEOUT", 30*time.Second)
	parse(err)
	cfg.WorldContext, err = getEnvBool("WORLD_CONTEXT", cfg.WorldContext)
	parse(err)
	cfg.ClassifierEnabled, err = getEnvBool("CLASSIFIER_ENABLED", cfg.ClassifierEnabled)
	parse(err)

	l := &cfg.Limits
	l.RowCap, err = getEnvInt("ROW_CAP", l.RowCap)
	parse(err)
	l.PageCap, err = getEnvInt("PAGE_CAP", l.PageCap)
	parse(err)
	l.CharBudget, err = getEnvInt("CHAR_BUDGET", l.CharBudget)
	parse(err)
	l.HistoryLimit, err = getEnvInt("HISTORY_LIMIT", l.HistoryLimit)
	parse(err)
	l.PromptChars, err = getEnvInt("PROMPT_CHARS", l.PromptChars)
	parse(err)
	l.SessionWindow, err = getEnvInt("SESSION_WINDOW", l.SessionWindow)
	parse(err)
	l.SimilarTopK, err = getEnvInt("SIMILAR_TOP_K", l.SimilarTopK)
	parse(err)
	l.SimilarityThreshold, err = getEnvFloat("SIMILARITY_THRESHOLD", l.SimilarityThreshold)
	parse(err)

	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}

	cfg.Routing = DefaultRouting()
	if cfg.RoutingFile != "" {
		routing, err := LoadRouting(cfg.RoutingFile)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.Routing = routing
		}
	}

	if cfg.LlamaAPIKey == "" {
		errs = append(errs, errors.New("LLAMA_API_KEY environment variable is required"))
	}
	if l.RowCap <= 0 || l.PageCap <= 0 || l.CharBudget <= 0 || l.PromptChars <= 0 {
		errs = append(errs, errors.New("ROW_CAP, PAGE_CAP, CHAR_BUDGET and PROMPT_CHARS must be positive"))
	}

	if len(errs) > 0 {
		return Config{}, types.ConfigError("config.Load", errors.Join(errs...))
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal, fmt.Errorf("%s must be an integer, got %q", key, val)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal, fmt.Errorf("%s must be a number, got %q", key, val)
	}
	return parsed, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal, fmt.Errorf("%s must be a boolean, got %q", key, val)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal, fmt.Errorf("%s must be a duration like 30s, got %q", key, val)
	}
	return parsed, nil
}
