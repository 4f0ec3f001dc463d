package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultAIGatewayURL = "https://ai.gateway.lovable.dev/v1"

type Config struct {
	Environment string
	LogLevel    string
	HTTPAddr    string
	DBDSN       string

	// MigrationsDir пустой = встроенные миграции
	MigrationsDir string

	SupabaseURL            string
	SupabaseJWTSecret      string
	SupabaseServiceRoleKey string
	SupabaseAnonKey        string

	AIGatewayURL string
	AIAPIKey     string
	AIModel      string
	AITimeout    time.Duration

	TelegramToken string
	DigestHour    int

	CORSOrigins []string
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из произвольного источника переменных
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Environment:            getenv("ENV"),
		LogLevel:               getenv("LOG_LEVEL"),
		HTTPAddr:               getenv("HTTP_ADDR"),
		DBDSN:                  getenv("DB_DSN"),
		MigrationsDir:          getenv("MIGRATIONS_DIR"),
		SupabaseURL:            strings.TrimRight(getenv("SUPABASE_URL"), "/"),
		SupabaseJWTSecret:      getenv("SUPABASE_JWT_SECRET"),
		SupabaseServiceRoleKey: getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseAnonKey:        getenv("SUPABASE_ANON_KEY"),
		AIGatewayURL:           strings.TrimRight(getenv("AI_GATEWAY_URL"), "/"),
		AIAPIKey:               getenv("LOVABLE_API_KEY"),
		AIModel:                getenv("AI_MODEL"),
		TelegramToken:          getenv("TELEGRAM_TOKEN"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.AIGatewayURL == "" {
		cfg.AIGatewayURL = defaultAIGatewayURL
	}
	if cfg.AIModel == "" {
		cfg.AIModel = "google/gemini-2.5-flash"
	}

	cfg.AITimeout = 60 * time.Second
	if raw := getenv("AI_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse AI_TIMEOUT: %w", err)
		}
		cfg.AITimeout = d
	}

	cfg.DigestHour = 7
	if raw := getenv("DIGEST_HOUR"); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil || h < 0 || h > 23 {
			return nil, fmt.Errorf("DIGEST_HOUR must be an hour between 0 and 23, got %q", raw)
		}
		cfg.DigestHour = h
	}

	cfg.CORSOrigins = []string{"*"}
	if raw := getenv("CORS_ORIGINS"); raw != "" {
		cfg.CORSOrigins = nil
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.SupabaseJWTSecret == "" {
		return nil, fmt.Errorf("SUPABASE_JWT_SECRET is required but not set")
	}

	return cfg, nil
}

// TelegramEnabled включены ли уведомления в Telegram
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

// JWTIssuer ожидаемый issuer токенов провайдера аутентификации
func (c *Config) JWTIssuer() string {
	if c.SupabaseURL == "" {
		return ""
	}
	return c.SupabaseURL + "/auth/v1"
}
