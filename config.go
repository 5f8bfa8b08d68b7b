package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configuration constants
var (
	// ChatAPIURL is the default chat-completions endpoint used when a
	// model descriptor supplies no base_url.
	ChatAPIURL = "https://api.openai.com/v1/chat/completions"

	// HistoryDir is the default directory for debate session history
	HistoryDir = "debate_history"

	// DefaultMaxCompletionTokens caps model output when a descriptor
	// does not set its own limit
	DefaultMaxCompletionTokens = 1000

	// ModelQueryTimeout bounds a single model generation call
	ModelQueryTimeout = 120 * time.Second

	// CORS allowed origins (configurable via environment)
	// In development (empty/default), allows any localhost port
	CORSAllowedOrigins = []string{}

	// MaxRequestBodySize is the maximum allowed request body size (1MB)
	MaxRequestBodySize int64 = 1 << 20
)

// LoadEnv loads environment variables from a .env file if one exists.
func LoadEnv() {
	// Try multiple locations
	envLocations := []string{
		".env",    // Current directory
		"../.env", // Parent directory
	}

	envLoaded := false
	for _, envPath := range envLocations {
		absPath, err := filepath.Abs(envPath)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			if err := godotenv.Load(absPath); err == nil {
				log.Printf("Loaded .env from: %s", absPath)
				envLoaded = true
				break
			}
		}
	}

	if !envLoaded {
		log.Printf("Warning: .env file not found in any expected location")
	}

	// Load CORS origins from environment if provided
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		CORSAllowedOrigins = []string{}
		for _, origin := range strings.Split(corsOrigins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				CORSAllowedOrigins = append(CORSAllowedOrigins, origin)
			}
		}
	}
}

// LoadModels reads the model configuration file and builds one adapter
// per descriptor with a resolvable credential. A descriptor whose API
// key cannot be resolved is skipped with a warning, not an error.
func LoadModels(configPath string) ([]*AIModel, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config DebateConfig
	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	var models []*AIModel
	for _, mc := range config.Models {
		apiKey := mc.APIKey
		if apiKey == "" && mc.APIKeyEnv != "" {
			apiKey = os.Getenv(mc.APIKeyEnv)
		}

		if apiKey == "" {
			log.Printf("Warning: API key not found for %s. Skipping model.", mc.Name)
			continue
		}

		models = append(models, NewAIModel(mc, apiKey))
	}

	log.Printf("Loaded %d models from %s", len(models), configPath)
	return models, nil
}
