package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Backend   BackendConfig
	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
	Topics    TopicsConfig
	R2        R2Config
	OIDC      OIDCConfig
	Gateway   GatewayConfig
}

type ServerConfig struct {
	Name     string
	Port     string
	Env      string
	LogLevel string
	LogJSON  bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

// AuthConfig selects the credential store backing ("redis" or "memory").
type AuthConfig struct {
	Store string
}

type RateLimitConfig struct {
	GeneratePerMin int
	ImagePerHour   int
	SegmentPerMin  int
}

// BackendConfig selects the generation provider: "gemini", "openai" or "mock".
type BackendConfig struct {
	Provider       string
	TimeoutSeconds int
}

type GeminiConfig struct {
	APIKey     string
	TextModel  string
	ImageModel string
}

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
}

type TopicsConfig struct {
	Temperature    float64
	TimeoutSeconds int
	Concurrency    int
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

// OIDCConfig enables tokens from an external OpenID Connect provider.
// ClientID is the expected audience.
type OIDCConfig struct {
	Issuer   string
	ClientID string
}

type GatewayConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("GEMINI_API_KEY")
	readSecret("OPENAI_API_KEY")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("OIDC_CLIENT_ID")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables
	v.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = v.BindEnv("server.name", "SERVICE_NAME")
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.log_json", "LOG_JSON")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = v.BindEnv("auth.store", "AUTH_STORE")
	_ = v.BindEnv("ratelimit.generate_per_min", "RATELIMIT_GENERATE_PER_MIN")
	_ = v.BindEnv("ratelimit.image_per_hour", "RATELIMIT_IMAGE_PER_HOUR")
	_ = v.BindEnv("ratelimit.segment_per_min", "RATELIMIT_SEGMENT_PER_MIN")
	_ = v.BindEnv("backend.provider", "BACKEND_PROVIDER")
	_ = v.BindEnv("backend.timeout", "BACKEND_TIMEOUT")
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("gemini.text_model", "GEMINI_TEXT_MODEL")
	_ = v.BindEnv("gemini.image_model", "GEMINI_IMAGE_MODEL")
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("openai.text_model", "OPENAI_TEXT_MODEL")
	_ = v.BindEnv("openai.image_model", "OPENAI_IMAGE_MODEL")
	_ = v.BindEnv("topics.temperature", "TOPICS_TEMPERATURE")
	_ = v.BindEnv("topics.timeout", "TOPICS_TIMEOUT")
	_ = v.BindEnv("topics.concurrency", "TOPICS_CONCURRENCY")
	_ = v.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = v.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = v.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = v.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = v.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = v.BindEnv("oidc.issuer", "OIDC_ISSUER")
	_ = v.BindEnv("oidc.client_id", "OIDC_CLIENT_ID")
	_ = v.BindEnv("gateway.enabled", "GATEWAY_ENABLED")

	// Defaults
	v.SetDefault("server.name", "content-writer-api")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_json", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expiration", 24)
	v.SetDefault("auth.store", "redis")
	v.SetDefault("ratelimit.generate_per_min", 20)
	v.SetDefault("ratelimit.image_per_hour", 30)
	v.SetDefault("ratelimit.segment_per_min", 120)

	// Backend defaults
	v.SetDefault("backend.provider", "gemini")
	v.SetDefault("backend.timeout", 60)
	v.SetDefault("gemini.text_model", "gemini-2.5-flash")
	v.SetDefault("gemini.image_model", "imagen-3.0-generate-002")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.text_model", "gpt-4o-mini")
	v.SetDefault("openai.image_model", "dall-e-3")

	// Related topics defaults
	v.SetDefault("topics.temperature", 0.5)
	v.SetDefault("topics.timeout", 30)
	v.SetDefault("topics.concurrency", 5)

	// Gateway defaults
	v.SetDefault("gateway.enabled", false)

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Name:     v.GetString("server.name"),
			Port:     v.GetString("server.port"),
			Env:      v.GetString("server.env"),
			LogLevel: v.GetString("server.log_level"),
			LogJSON:  v.GetBool("server.log_json"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetInt("jwt.expiration"),
		},
		Auth: AuthConfig{
			Store: strings.ToLower(v.GetString("auth.store")),
		},
		RateLimit: RateLimitConfig{
			GeneratePerMin: v.GetInt("ratelimit.generate_per_min"),
			ImagePerHour:   v.GetInt("ratelimit.image_per_hour"),
			SegmentPerMin:  v.GetInt("ratelimit.segment_per_min"),
		},
		Backend: BackendConfig{
			Provider:       strings.ToLower(v.GetString("backend.provider")),
			TimeoutSeconds: v.GetInt("backend.timeout"),
		},
		Gemini: GeminiConfig{
			APIKey:     v.GetString("gemini.api_key"),
			TextModel:  v.GetString("gemini.text_model"),
			ImageModel: v.GetString("gemini.image_model"),
		},
		OpenAI: OpenAIConfig{
			APIKey:     v.GetString("openai.api_key"),
			BaseURL:    v.GetString("openai.base_url"),
			TextModel:  v.GetString("openai.text_model"),
			ImageModel: v.GetString("openai.image_model"),
		},
		Topics: TopicsConfig{
			Temperature:    v.GetFloat64("topics.temperature"),
			TimeoutSeconds: v.GetInt("topics.timeout"),
			Concurrency:    v.GetInt("topics.concurrency"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			SecretAccessKey: v.GetString("r2.secret_access_key"),
			BucketName:      v.GetString("r2.bucket_name"),
			PublicURL:       v.GetString("r2.public_url"),
		},
		OIDC: OIDCConfig{
			Issuer:   v.GetString("oidc.issuer"),
			ClientID: v.GetString("oidc.client_id"),
		},
		Gateway: GatewayConfig{
			Enabled: v.GetBool("gateway.enabled"),
		},
	}

	return cfg, nil
}
