package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr     string
	VisionBackend  string
	OpenAIAPIKey   string
	OpenAIModel    string
	ClaudeAPIKey   string
	ClaudeModel    string
	SearchAPIKey   string
	SearchEngineID string
	TelegramToken  string
	LogLevel       string
	LogFile        string
}

func Load() *Config {
	// A missing .env file is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		VisionBackend:  getEnv("VISION_BACKEND", "openai"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		ClaudeAPIKey:   getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:    getEnv("CLAUDE_MODEL", "claude-opus-4-6"),
		SearchAPIKey:   getEnv("SEARCH_API_KEY", ""),
		SearchEngineID: getEnv("SEARCH_ENGINE_ID", ""),
		TelegramToken:  getEnv("TELEGRAM_TOKEN", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
