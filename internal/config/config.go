package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every configuration section of the service.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Speech   SpeechConfig
	Auth     AuthConfig
	Database DatabaseConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech := loadSpeechConfig()

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Speech:   speech,
		Auth:     auth,
		Database: DatabaseConfig{URL: strings.TrimSpace(os.Getenv("DATABASE_URL"))},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the chat-completion provider. OpenRouter is the default;
// Volcengine Ark can be selected with AI_PROVIDER=ark.
type AIConfig struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Region      string
	AccessKey   string
	SecretKey   string
	Temperature *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	if c.Model == "" {
		return false
	}
	if c.Provider == "ark" {
		return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
	}
	return c.APIKey != ""
}

// NewChatModel creates a model instance for the configured provider.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("AI credentials missing: provide OPENROUTER_API_KEY and AI_MODEL, or the Ark equivalents")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	if c.Provider == "ark" {
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			AccessKey:   c.AccessKey,
			SecretKey:   c.SecretKey,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
		})
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	})
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", "openrouter"))
	if provider != "openrouter" && provider != "ark" {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q: expected openrouter or ark", provider)
	}

	apiKey := strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	baseURL := getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1")
	modelName := getEnvOrDefault("AI_MODEL", "openai/gpt-3.5-turbo")
	if provider == "ark" {
		apiKey = strings.TrimSpace(os.Getenv("ARK_API_KEY"))
		baseURL = getEnvOrDefault("AI_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
		modelName = strings.TrimSpace(os.Getenv("AI_MODEL"))
	}

	return AIConfig{
		Provider:    provider,
		APIKey:      apiKey,
		Model:       modelName,
		BaseURL:     baseURL,
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// SpeechConfig describes the speech-to-text endpoint used by the realtime flow.
type SpeechConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
	Enabled  bool
}

func loadSpeechConfig() SpeechConfig {
	apiKey := strings.TrimSpace(os.Getenv("SPEECH_API_KEY"))
	if apiKey == "" {
		// Fall back to the chat credentials when the provider serves both.
		apiKey = strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	}

	return SpeechConfig{
		APIKey:   apiKey,
		BaseURL:  getEnvOrDefault("SPEECH_BASE_URL", "https://api.openai.com/v1"),
		Model:    getEnvOrDefault("SPEECH_MODEL", "whisper-1"),
		Language: getEnvOrDefault("SPEECH_LANGUAGE", "tr"),
		Enabled:  apiKey != "",
	}
}

// AuthConfig describes token issuing for the login flow.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

func loadAuthConfig() (AuthConfig, error) {
	ttlHours, err := parseOptionalIntEnv("AUTH_TOKEN_TTL_HOURS")
	if err != nil {
		return AuthConfig{}, err
	}
	ttl := 24 * time.Hour
	if ttlHours != nil {
		ttl = time.Duration(*ttlHours) * time.Hour
	}

	return AuthConfig{
		JWTSecret: getEnvOrDefault("AUTH_JWT_SECRET", "gizli-key-degistirin"),
		TokenTTL:  ttl,
	}, nil
}

// DatabaseConfig points at the durable answer/summary store. An empty URL
// selects the in-memory store.
type DatabaseConfig struct {
	URL string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
