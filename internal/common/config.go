package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Paths    PathsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr string
}

// DatabaseConfig holds job-store configuration
type DatabaseConfig struct {
	DSN string
}

// LLMConfig holds remote completion endpoint configuration
type LLMConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxRetries int
	BaseDelay  time.Duration
	Timeout    time.Duration
}

// PipelineConfig holds chunking and orchestration configuration
type PipelineConfig struct {
	MaxSectionChars int
	MaxOutputTokens int
	Concurrency     int
	ContinueOnError bool
}

// PathsConfig holds working directories for uploads and rendered outputs
type PathsConfig struct {
	UploadDir string
	OutputDir string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ":8000"),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DB_URL", "plainlegal.db"),
		},
		LLM: LLMConfig{
			BaseURL:    getEnv("NOVITA_BASE_URL", "https://api.novita.ai/openai"),
			APIKey:     getEnv("NOVITA_OPENAI_API_KEY", ""),
			Model:      getEnv("NOVITA_MODEL", "deepseek/deepseek-v3.1"),
			MaxRetries: getEnvAsInt("LLM_MAX_RETRIES", 3),
			BaseDelay:  getEnvAsDuration("LLM_BASE_DELAY", time.Second),
			Timeout:    getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
		},
		Pipeline: PipelineConfig{
			MaxSectionChars: getEnvAsInt("MAX_SECTION_CHARS", 6000),
			MaxOutputTokens: getEnvAsInt("MAX_OUTPUT_TOKENS", 1000),
			Concurrency:     getEnvAsInt("PIPELINE_CONCURRENCY", 1),
			ContinueOnError: getEnvAsBool("PIPELINE_CONTINUE_ON_ERROR", false),
		},
		Paths: PathsConfig{
			UploadDir: getEnv("UPLOAD_DIR", "uploads"),
			OutputDir: getEnv("OUTPUT_DIR", "outputs"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "NOVITA_OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Pipeline.MaxSectionChars <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_SECTION_CHARS must be positive", ErrInvalidInput)
	}
	return nil
}
