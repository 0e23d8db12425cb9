package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level
	LogDir      string

	DatabaseURL string
	RedisURL    string

	JWT       JWTConfig
	AI        AIConfig
	Import    ImportConfig
	Storage   StorageConfig
	Events    EventsConfig
	Casdoor   CasdoorConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig

	LockTTL time.Duration
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type AIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type ImportConfig struct {
	SkipHeader  bool
	MaxFileSize int64
}

type StorageConfig struct {
	Type           string
	LocalPath      string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

type EventsConfig struct {
	KafkaBrokers []string
	Topic        string
}

// CasdoorConfig enables the optional external token verifier when Endpoint is set.
type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

func (c CasdoorConfig) Enabled() bool {
	return c.Endpoint != "" && c.Cert != ""
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "./logs")
	v.SetDefault("jwt_expiry", "24h")
	v.SetDefault("ai_base_url", "https://api.deepseek.com")
	v.SetDefault("ai_model", "deepseek-chat")
	v.SetDefault("ai_timeout", "60s")
	v.SetDefault("import_skip_header", true)
	v.SetDefault("import_max_file_size", 10<<20)
	v.SetDefault("storage_type", "local")
	v.SetDefault("storage_local_path", "./uploads")
	v.SetDefault("minio_bucket", "exam-imports")
	v.SetDefault("events_topic", "exam-service.events")
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("rate_limit_rps", 5)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("lock_ttl", "5m")
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:        v.GetString("port"),
		Environment: v.GetString("environment"),
		LogDir:      v.GetString("log_dir"),
		DatabaseURL: v.GetString("database_url"),
		RedisURL:    v.GetString("redis_url"),
		JWT: JWTConfig{
			Secret: v.GetString("jwt_secret"),
			Expiry: v.GetDuration("jwt_expiry"),
		},
		AI: AIConfig{
			BaseURL: v.GetString("ai_base_url"),
			APIKey:  v.GetString("ai_api_key"),
			Model:   v.GetString("ai_model"),
			Timeout: v.GetDuration("ai_timeout"),
		},
		Import: ImportConfig{
			SkipHeader:  v.GetBool("import_skip_header"),
			MaxFileSize: v.GetInt64("import_max_file_size"),
		},
		Storage: StorageConfig{
			Type:           v.GetString("storage_type"),
			LocalPath:      v.GetString("storage_local_path"),
			MinioEndpoint:  v.GetString("minio_endpoint"),
			MinioAccessKey: v.GetString("minio_access_key"),
			MinioSecretKey: v.GetString("minio_secret_key"),
			MinioBucket:    v.GetString("minio_bucket"),
			MinioUseSSL:    v.GetBool("minio_use_ssl"),
		},
		Events: EventsConfig{
			KafkaBrokers: splitList(v.GetString("kafka_brokers")),
			Topic:        v.GetString("events_topic"),
		},
		Casdoor: CasdoorConfig{
			Endpoint:     v.GetString("casdoor_endpoint"),
			ClientID:     v.GetString("casdoor_client_id"),
			ClientSecret: v.GetString("casdoor_client_secret"),
			Cert:         v.GetString("casdoor_cert"),
			Organization: v.GetString("casdoor_organization"),
			Application:  v.GetString("casdoor_application"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("rate_limit_rps"),
			Burst: v.GetInt("rate_limit_burst"),
		},
		LockTTL: v.GetDuration("lock_ttl"),
	}

	level, err := parseLevel(v.GetString("log_level"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Environment == "production" && len(c.JWT.Secret) < 32 {
		errs = append(errs, fmt.Errorf("JWT_SECRET is too short (%d chars), at least 32 are required in production", len(c.JWT.Secret)))
	}
	if c.Import.MaxFileSize <= 0 {
		errs = append(errs, errors.New("IMPORT_MAX_FILE_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
