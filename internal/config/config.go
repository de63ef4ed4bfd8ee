package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string

	// Auth mode
	// - "none": single local profile (self-hosted, local dev)
	// - "jwt": profiles identified by HS256 bearer tokens
	AuthMode  string
	JWTSecret string

	// LLM API Keys
	LLMProvider  string // Explicit provider ("gemini", "openai"); empty infers from model names
	OpenAIAPIKey string // OpenAI API key for GPT models
	GeminiAPIKey string // Google Gemini API key

	// Models per modality
	TextModel  string
	CodeModel  string
	TTSModel   string
	ImageModel string

	// Generation tuning
	TTSVoice           string
	CodeLanguage       string
	CodeThinkingBudget int
	ImageAspectRatio   string
	DiagramCount       int
	DiagramConcurrency int

	// Audio playback format of the TTS output
	AudioSampleRate int
	AudioChannels   int

	// Storage
	StorageDriver string // "memory", "file", "redis", "postgres"
	StorageDir    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	DatabaseURL   string

	// Profiles whose session state stays in memory
	SessionCacheSize int

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
}

const (
	AuthModeNone = "none"
	AuthModeJWT  = "jwt"
)

func Load() *Config {
	return &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		Port:               getEnv("PORT", "8080"),
		AuthMode:           strings.ToLower(getEnv("AUTH_MODE", AuthModeNone)), // Default to no auth for self-hosted
		JWTSecret:          getEnv("JWT_SECRET", ""),
		LLMProvider:        getEnv("LLM_PROVIDER", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		TextModel:          getEnv("TEXT_MODEL", "gemini-3-flash-preview"),
		CodeModel:          getEnv("CODE_MODEL", "gemini-3-pro-preview"),
		TTSModel:           getEnv("TTS_MODEL", "gemini-2.5-flash-preview-tts"),
		ImageModel:         getEnv("IMAGE_MODEL", "gemini-2.5-flash-image"),
		TTSVoice:           getEnv("TTS_VOICE", "Kore"),
		CodeLanguage:       getEnv("CODE_LANGUAGE", "python"),
		CodeThinkingBudget: getEnvInt("CODE_THINKING_BUDGET", 4000),
		ImageAspectRatio:   getEnv("IMAGE_ASPECT_RATIO", "16:9"),
		DiagramCount:       getEnvInt("DIAGRAM_COUNT", 3),
		DiagramConcurrency: getEnvInt("DIAGRAM_CONCURRENCY", 3),
		AudioSampleRate:    getEnvInt("AUDIO_SAMPLE_RATE", 24000),
		AudioChannels:      getEnvInt("AUDIO_CHANNELS", 1),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", "memory")),
		StorageDir:         getEnv("STORAGE_DIR", "data"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RedisPrefix:        getEnv("REDIS_PREFIX", "gyanguru:"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SessionCacheSize:   getEnvInt("SESSION_CACHE_SIZE", 1024),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:  getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:  getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:       getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:    getEnv("LANGFUSE_ENABLED", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt falls back to the default when the variable is unset or not an integer
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// IsJWTMode returns true if profiles are identified by bearer tokens
func (c *Config) IsJWTMode() bool {
	return c.AuthMode == AuthModeJWT
}

// IsProduction returns true in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
