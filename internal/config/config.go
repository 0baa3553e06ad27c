package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"gamebook-engine/pkg/generation"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Cache      CacheConfig
	Pipeline   PipelineConfig
	Trace      TraceConfig
	Generation GenerationConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	PipelineLogPath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type StorageConfig struct {
	// Backend selects the SectionRepository implementation.
	Backend string `validate:"oneof=postgres redis memory"`
}

type CacheConfig struct {
	TTL      time.Duration `validate:"min=0"`
	Capacity int           `validate:"min=0"`
}

type PipelineConfig struct {
	MaxAttempts  int           `validate:"min=1"`
	StageTimeout time.Duration `validate:"min=0"`
}

type TraceConfig struct {
	Retention int `validate:"min=1"`
}

type GenerationConfig struct {
	Provider     string `validate:"oneof=ollama gemini"`
	OllamaURL    string
	GeminiAPIKey string

	// Defaults apply to every stage; Content and Rules layer on top.
	// Merges copy, so stage overrides can never leak into each other.
	Defaults generation.Settings
	Content  generation.Settings
	Rules    generation.Settings
}

// ContentSettings resolves the layered settings for the content stage.
func (g GenerationConfig) ContentSettings() generation.Settings {
	return g.Defaults.Merge(g.Content)
}

// RulesSettings resolves the layered settings for the rules stage.
func (g GenerationConfig) RulesSettings() generation.Settings {
	return g.Defaults.Merge(g.Rules)
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			PipelineLogPath:    getEnv("PIPELINE_LOG_PATH", "pipeline.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "memory"),
		},
		Cache: CacheConfig{
			TTL:      time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 3600)) * time.Second,
			Capacity: getEnvAsInt("CACHE_CAPACITY", 1000),
		},
		Pipeline: PipelineConfig{
			MaxAttempts:  getEnvAsInt("PIPELINE_MAX_ATTEMPTS", 3),
			StageTimeout: time.Duration(getEnvAsInt("PIPELINE_STAGE_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Trace: TraceConfig{
			Retention: getEnvAsInt("TRACE_RETENTION", 1000),
		},
		Generation: GenerationConfig{
			Provider:     getEnv("GENERATION_PROVIDER", "ollama"),
			OllamaURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			GeminiAPIKey: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Defaults: generation.Settings{
				Model:       getEnv("GENERATION_MODEL", "llama3"),
				Temperature: getEnvAsTemp("GENERATION_TEMPERATURE"),
			},
			Content: generation.Settings{
				Model:       getEnv("CONTENT_MODEL", ""),
				Temperature: getEnvAsTemp("CONTENT_TEMPERATURE"),
			},
			Rules: generation.Settings{
				Model:       getEnv("RULES_MODEL", ""),
				Temperature: getEnvAsTemp("RULES_TEMPERATURE"),
			},
		},
	}
}

var validate = validator.New()

// Validate rejects configurations with out-of-range or unknown options.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsTemp returns nil when the variable is unset so the layered
// merge can tell "not configured" apart from "configured as zero".
func getEnvAsTemp(key string) *float64 {
	strValue := getEnv(key, "")
	if strValue == "" {
		return nil
	}
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return &value
	}
	return nil
}
