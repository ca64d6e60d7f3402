package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Gateway    GatewayConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NATS       NATSConfig
	S3         S3Config
	CloudWatch CloudWatchConfig
	Firebase   FirebaseConfig
	DiscordAPI DiscordAPIConfig
	Security   SecurityConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// GatewayConfig управляет эфемерными сессиями gateway
type GatewayConfig struct {
	ReadyTimeout          time.Duration
	TeardownGrace         time.Duration
	MaxConcurrentSessions int64
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	RetentionDays   int
	CleanupInterval time.Duration
}

type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         string
	Password     string
	DB           int
	TTL          time.Duration
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type NATSConfig struct {
	Enabled bool
	URL     string
	Subject string
}

type S3Config struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
	URLMode         string
	PresignedTTL    time.Duration
}

type CloudWatchConfig struct {
	Enabled         bool
	Namespace       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Environment     string
	FlushInterval   time.Duration
}

type FirebaseConfig struct {
	Enabled         bool
	DatabaseURL     string
	CredentialsFile string
	CommandsRoot    string
}

type DiscordAPIConfig struct {
	BaseURL        string
	RatePerSecond  int
	RequestTimeout time.Duration
}

type SecurityConfig struct {
	AuthEnabled      bool
	AuthToken        string
	AllowedOrigins   []string
	AnalyzeRateLimit float64
	AnalyzeBurst     int
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	readyTimeout, err := getEnvDuration("GATEWAY_READY_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	teardownGrace, err := getEnvDuration("GATEWAY_TEARDOWN_GRACE", "2s")
	if err != nil {
		return nil, err
	}

	maxSessions, err := getEnvInt("GATEWAY_MAX_CONCURRENT_SESSIONS", 8)
	if err != nil {
		return nil, err
	}

	redisTTL, err := getEnvDuration("REDIS_REPORT_TTL", "1h")
	if err != nil {
		return nil, err
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	presignedTTL, err := getEnvDuration("S3_PRESIGNED_TTL", "15m")
	if err != nil {
		return nil, err
	}

	flushInterval, err := getEnvDuration("CLOUDWATCH_FLUSH_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}

	retentionDays, err := getEnvInt("DB_RETENTION_DAYS", 90)
	if err != nil {
		return nil, err
	}

	cleanupInterval, err := getEnvDuration("DB_CLEANUP_INTERVAL", "24h")
	if err != nil {
		return nil, err
	}

	discordRate, err := getEnvInt("DISCORD_API_RATE_PER_SECOND", 5)
	if err != nil {
		return nil, err
	}

	discordTimeout, err := getEnvDuration("DISCORD_API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	analyzeRate, err := strconv.ParseFloat(getEnv("ANALYZE_RATE_LIMIT_RPS", "2"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYZE_RATE_LIMIT_RPS: %w", err)
	}

	analyzeBurst, err := getEnvInt("ANALYZE_RATE_LIMIT_BURST", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    readyTimeout + 15*time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Gateway: GatewayConfig{
			ReadyTimeout:          readyTimeout,
			TeardownGrace:         teardownGrace,
			MaxConcurrentSessions: int64(maxSessions),
		},
		Database: DatabaseConfig{
			Enabled:         getEnvBool("DB_ENABLED", false),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "guild_insights"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
			RetentionDays:   retentionDays,
			CleanupInterval: cleanupInterval,
		},
		Redis: RedisConfig{
			Enabled:      getEnvBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           redisDB,
			TTL:          redisTTL,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		NATS: NATSConfig{
			Enabled: getEnvBool("NATS_ENABLED", false),
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Subject: getEnv("NATS_ANALYSIS_SUBJECT", "guild.analysis.completed"),
		},
		S3: S3Config{
			Enabled:         getEnvBool("S3_ENABLED", false),
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "ru-central1"),
			Endpoint:        getEnv("S3_ENDPOINT", "https://storage.yandexcloud.net"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", true),
			KeyPrefix:       getEnv("S3_KEY_PREFIX", "reports"),
			URLMode:         getEnv("S3_URL_MODE", "presigned"),
			PresignedTTL:    presignedTTL,
		},
		CloudWatch: CloudWatchConfig{
			Enabled:         getEnvBool("CLOUDWATCH_ENABLED", false),
			Namespace:       getEnv("CLOUDWATCH_NAMESPACE", "GuildInsights/Guilds"),
			Region:          getEnv("CLOUDWATCH_REGION", "us-east-1"),
			Endpoint:        getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:     getEnv("CLOUDWATCH_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("CLOUDWATCH_SECRET_ACCESS_KEY", ""),
			Environment:     getEnv("APP_ENV", "development"),
			FlushInterval:   flushInterval,
		},
		Firebase: FirebaseConfig{
			Enabled:         getEnvBool("FIREBASE_ENABLED", false),
			DatabaseURL:     getEnv("FIREBASE_DATABASE_URL", ""),
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
			CommandsRoot:    getEnv("FIREBASE_COMMANDS_ROOT", "commands"),
		},
		DiscordAPI: DiscordAPIConfig{
			BaseURL:        getEnv("DISCORD_API_BASE_URL", "https://discord.com/api"),
			RatePerSecond:  discordRate,
			RequestTimeout: discordTimeout,
		},
		Security: SecurityConfig{
			AuthEnabled:      getEnvBool("AUTH_ENABLED", false),
			AuthToken:        getEnv("AUTH_BEARER_TOKEN", ""),
			AllowedOrigins:   splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")),
			AnalyzeRateLimit: analyzeRate,
			AnalyzeBurst:     analyzeBurst,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Gateway.ReadyTimeout <= 0 {
		return fmt.Errorf("GATEWAY_READY_TIMEOUT must be positive")
	}
	if c.Gateway.MaxConcurrentSessions <= 0 {
		return fmt.Errorf("GATEWAY_MAX_CONCURRENT_SESSIONS must be positive")
	}
	if c.Security.AuthEnabled && strings.TrimSpace(c.Security.AuthToken) == "" {
		return fmt.Errorf("AUTH_BEARER_TOKEN is required when AUTH_ENABLED=true")
	}
	if c.S3.Enabled && strings.TrimSpace(c.S3.Bucket) == "" {
		return fmt.Errorf("S3_BUCKET is required when S3_ENABLED=true")
	}
	if c.Firebase.Enabled && strings.TrimSpace(c.Firebase.DatabaseURL) == "" {
		return fmt.Errorf("FIREBASE_DATABASE_URL is required when FIREBASE_ENABLED=true")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return parsed, nil
}

func getEnvDuration(key, defaultValue string) (time.Duration, error) {
	parsed, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
