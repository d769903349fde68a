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

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Store     StoreConfig
	Redis     RedisConfig
	Backend   BackendConfig
	Board     BoardConfig
	Upload    UploadConfig
	Email     EmailConfig
	Log       LogConfig
	Dev       DevConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type SessionConfig struct {
	Secret string
	Expiry time.Duration
}

// StoreConfig selects the durable key-value backend for drafts and saved jobs.
type StoreConfig struct {
	Driver     string // memory, gorm, redis
	QuotaBytes int64  // memory driver only, 0 = unlimited
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// BackendConfig points at the upstream job REST API. An empty URL means the
// local database is the job catalog and submissions are stored locally.
type BackendConfig struct {
	URL           string
	Token         string
	PageSize      int
	RequestsPerS  float64
	CatalogTTL    time.Duration
	SubmitTimeout time.Duration
}

type BoardConfig struct {
	PageSize int
}

type UploadConfig struct {
	Path              string
	MaxSize           int64
	AllowedExtensions []string
}

type EmailConfig struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	From         string
	FromName     string
}

type LogConfig struct {
	Level  string
	Format string
}

type DevConfig struct {
	AutoMigrate bool
	SeedData    bool
}

type CORSConfig struct {
	Origins     []string
	Credentials bool
}

type RateLimitConfig struct {
	Requests int
	Window   int
}

var Cfg *Config

func Load() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "sqlite"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "password"),
			Name:       getEnv("DB_NAME", "jobboard"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "./data/jobboard.db"),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", "dev-secret"),
			Expiry: parseDuration(getEnv("SESSION_EXPIRY", "720h")),
		},
		Store: StoreConfig{
			Driver:     getEnv("STORE_DRIVER", "gorm"),
			QuotaBytes: parseInt64(getEnv("STORE_QUOTA_BYTES", "0")),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0")),
		},
		Backend: BackendConfig{
			URL:           strings.TrimRight(getEnv("BACKEND_URL", ""), "/"),
			Token:         getEnv("BACKEND_TOKEN", ""),
			PageSize:      parseInt(getEnv("BACKEND_PAGE_SIZE", "50")),
			RequestsPerS:  parseFloat(getEnv("BACKEND_RPS", "5")),
			CatalogTTL:    parseDuration(getEnv("CATALOG_TTL", "1m")),
			SubmitTimeout: parseDuration(getEnv("SUBMIT_TIMEOUT", "30s")),
		},
		Board: BoardConfig{
			PageSize: parseInt(getEnv("BOARD_PAGE_SIZE", "6")),
		},
		Upload: UploadConfig{
			Path:              getEnv("UPLOAD_PATH", "./storage/resumes"),
			MaxSize:           parseInt64(getEnv("MAX_UPLOAD_SIZE", "5242880")),
			AllowedExtensions: strings.Split(getEnv("ALLOWED_EXTENSIONS", ".pdf,.doc,.docx"), ","),
		},
		Email: EmailConfig{
			Enabled:      parseBool(getEnv("EMAIL_ENABLED", "false")),
			SMTPHost:     getEnv("SMTP_HOST", "localhost"),
			SMTPPort:     parseInt(getEnv("SMTP_PORT", "1025")),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			From:         getEnv("EMAIL_FROM", "noreply@jobboard.local"),
			FromName:     getEnv("EMAIL_FROM_NAME", "Job Board"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Dev: DevConfig{
			AutoMigrate: parseBool(getEnv("AUTO_MIGRATE", "true")),
			SeedData:    parseBool(getEnv("SEED_DATA", "true")),
		},
		CORS: CORSConfig{
			Origins:     strings.Split(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),
			Credentials: parseBool(getEnv("CORS_CREDENTIALS", "true")),
		},
		RateLimit: RateLimitConfig{
			Requests: parseInt(getEnv("RATE_LIMIT_REQUESTS", "100")),
			Window:   parseInt(getEnv("RATE_LIMIT_WINDOW", "60")),
		},
	}

	Cfg = cfg
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func parseInt64(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return i
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Hour
	}
	return d
}

// ParseDuration is a public wrapper for parseDuration
func ParseDuration(s string) time.Duration {
	return parseDuration(s)
}

func (c *Config) GetDSN() string {
	switch c.Database.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Database.Host,
			c.Database.Port,
			c.Database.User,
			c.Database.Password,
			c.Database.Name,
			c.Database.SSLMode,
		)
	default:
		return c.Database.SQLitePath
	}
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// UsesBackend reports whether jobs and applications go through the upstream API.
func (c *Config) UsesBackend() bool {
	return c.Backend.URL != ""
}
