package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Recovery backends for the form session key store
const (
	RecoveryBackendMemory = "memory"
	RecoveryBackendFile   = "file"
	RecoveryBackendRedis  = "redis"
	RecoveryBackendSQLite = "sqlite"
)

type Config struct {
	// Environment
	Environment string `mapstructure:"ENV"`

	// Server Configuration
	ServerHost     string   `mapstructure:"SERVER_HOST"`
	ServerPort     string   `mapstructure:"SERVER_PORT"`
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`

	// Database Configuration
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBLogLevel string `mapstructure:"DB_LOG_LEVEL"`

	// Redis Configuration
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Worker Configuration
	WorkerConcurrency int `mapstructure:"WORKER_CONCURRENCY"`
	WorkerMaxRetries  int `mapstructure:"WORKER_MAX_RETRIES"`

	// Authentication
	AuthPassword  string        `mapstructure:"AUTH_PASSWORD"`
	SessionSecret string        `mapstructure:"SESSION_SECRET"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL_HOURS"`

	// Notification
	NotificationEmail string `mapstructure:"NOTIFICATION_EMAIL"`
	FromEmail         string `mapstructure:"FROM_EMAIL"`
	SMTPHost          string `mapstructure:"SMTP_HOST"`
	SMTPPort          int    `mapstructure:"SMTP_PORT"`
	SMTPUsername      string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword      string `mapstructure:"SMTP_PASSWORD"`

	// Form session
	RecoveryBackend string        `mapstructure:"RECOVERY_BACKEND"`
	RecoveryDir     string        `mapstructure:"RECOVERY_DIR"`
	RecoveryTTL     time.Duration `mapstructure:"RECOVERY_TTL_HOURS"`
	DraftDebounce   time.Duration `mapstructure:"DRAFT_DEBOUNCE_MS"`
	APIBaseURL      string        `mapstructure:"API_BASE_URL"`
}

// DatabaseConfig is the view of Config used by the postgres connection
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	LogLevel        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // minutes
	MaxConnIdleTime int // minutes
}

// CacheConfig is the view of Config used by the redis client
type CacheConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	DialTimeout  int // seconds
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	PoolSize     int
	MinIdleConns int
}

// QueueConfig is the view of Config used by asynq
type QueueConfig struct {
	RedisHost      string
	RedisPort      int
	RedisPassword  string
	RedisDB        int
	DialTimeout    int
	ReadTimeout    int
	WriteTimeout   int
	Concurrency    int
	MaxRetries     int
	StrictPriority bool
}

// MailConfig is the view of Config used by the SMTP mailer
type MailConfig struct {
	To       string
	From     string
	Host     string
	Port     int
	Username string
	Password string
}

// Load loads the server configuration from environment variables and .env file
func Load() (*Config, error) {
	config, err := load()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if config.DBUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	if config.DBPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if config.AuthPassword == "" {
		return nil, fmt.Errorf("AUTH_PASSWORD is required")
	}
	if len(config.SessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}

	return config, nil
}

// LoadClient loads the subset needed by the terminal host; nothing is required
func LoadClient() (*Config, error) {
	return load()
}

func load() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(".env"); err != nil {
		// Try parent directory
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("No .env file found, using environment variables only")
		}
	}

	v := viper.New()
	config := &Config{}

	// Set defaults
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")

	// Database defaults
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "fieldvisits")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_LOG_LEVEL", "warn")

	// Redis defaults
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)

	// Worker defaults
	v.SetDefault("WORKER_CONCURRENCY", 5)
	v.SetDefault("WORKER_MAX_RETRIES", 3)

	// Auth and notification defaults
	v.SetDefault("SESSION_TTL_HOURS", 365*24)
	v.SetDefault("FROM_EMAIL", "noreply@door2door.com")
	v.SetDefault("SMTP_PORT", 587)

	// Form session defaults
	v.SetDefault("RECOVERY_BACKEND", RecoveryBackendFile)
	v.SetDefault("RECOVERY_DIR", "./data/recovery")
	v.SetDefault("RECOVERY_TTL_HOURS", 7*24)
	v.SetDefault("DRAFT_DEBOUNCE_MS", 300)
	v.SetDefault("API_BASE_URL", "http://localhost:8080")

	// Bind environment variables
	v.AutomaticEnv()

	config.Environment = v.GetString("ENV")
	config.ServerHost = v.GetString("SERVER_HOST")
	config.ServerPort = v.GetString("SERVER_PORT")
	config.AllowedOrigins = splitList(v.GetString("ALLOWED_ORIGINS"))

	// Database
	config.DBHost = v.GetString("DB_HOST")
	config.DBPort = v.GetString("DB_PORT")
	config.DBUser = v.GetString("DB_USER")
	config.DBPassword = v.GetString("DB_PASSWORD")
	config.DBName = v.GetString("DB_NAME")
	config.DBSSLMode = v.GetString("DB_SSLMODE")
	config.DBLogLevel = v.GetString("DB_LOG_LEVEL")

	// Redis
	config.RedisHost = v.GetString("REDIS_HOST")
	config.RedisPort = v.GetString("REDIS_PORT")
	config.RedisPassword = v.GetString("REDIS_PASSWORD")
	config.RedisDB = v.GetInt("REDIS_DB")

	// Worker
	config.WorkerConcurrency = v.GetInt("WORKER_CONCURRENCY")
	config.WorkerMaxRetries = v.GetInt("WORKER_MAX_RETRIES")

	// Auth
	config.AuthPassword = v.GetString("AUTH_PASSWORD")
	config.SessionSecret = v.GetString("SESSION_SECRET")
	config.SessionTTL = time.Duration(v.GetInt("SESSION_TTL_HOURS")) * time.Hour

	// Notification
	config.NotificationEmail = v.GetString("NOTIFICATION_EMAIL")
	config.FromEmail = v.GetString("FROM_EMAIL")
	config.SMTPHost = v.GetString("SMTP_HOST")
	config.SMTPPort = v.GetInt("SMTP_PORT")
	config.SMTPUsername = v.GetString("SMTP_USERNAME")
	config.SMTPPassword = v.GetString("SMTP_PASSWORD")

	// Form session
	config.RecoveryBackend = v.GetString("RECOVERY_BACKEND")
	config.RecoveryDir = v.GetString("RECOVERY_DIR")
	config.RecoveryTTL = time.Duration(v.GetInt("RECOVERY_TTL_HOURS")) * time.Hour
	config.DraftDebounce = time.Duration(v.GetInt("DRAFT_DEBOUNCE_MS")) * time.Millisecond
	config.APIBaseURL = v.GetString("API_BASE_URL")

	switch config.RecoveryBackend {
	case RecoveryBackendMemory, RecoveryBackendFile, RecoveryBackendRedis, RecoveryBackendSQLite:
	default:
		return nil, fmt.Errorf("unsupported RECOVERY_BACKEND %q", config.RecoveryBackend)
	}

	return config, nil
}

// GetDatabaseURL constructs the PostgreSQL connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// GetRedisURL constructs the Redis connection string
func (c *Config) GetRedisURL() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// Database returns the postgres settings
func (c *Config) Database() *DatabaseConfig {
	return &DatabaseConfig{
		Host:            c.DBHost,
		Port:            atoiOr(c.DBPort, 5432),
		User:            c.DBUser,
		Password:        c.DBPassword,
		Database:        c.DBName,
		SSLMode:         c.DBSSLMode,
		LogLevel:        c.DBLogLevel,
		MaxConnections:  20,
		MinConnections:  2,
		MaxConnLifetime: 30,
		MaxConnIdleTime: 5,
	}
}

// Cache returns the redis settings
func (c *Config) Cache() *CacheConfig {
	return &CacheConfig{
		Host:         c.RedisHost,
		Port:         atoiOr(c.RedisPort, 6379),
		Password:     c.RedisPassword,
		DB:           c.RedisDB,
		DialTimeout:  5,
		ReadTimeout:  3,
		WriteTimeout: 3,
		PoolSize:     10,
		MinIdleConns: 1,
	}
}

// Queue returns the asynq settings
func (c *Config) Queue() *QueueConfig {
	return &QueueConfig{
		RedisHost:     c.RedisHost,
		RedisPort:     atoiOr(c.RedisPort, 6379),
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		DialTimeout:   5,
		ReadTimeout:   3,
		WriteTimeout:  3,
		Concurrency:   c.WorkerConcurrency,
		MaxRetries:    c.WorkerMaxRetries,
	}
}

// Mail returns the SMTP settings
func (c *Config) Mail() *MailConfig {
	return &MailConfig{
		To:       c.NotificationEmail,
		From:     c.FromEmail,
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
	}
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LogConfig logs the configuration (hiding sensitive data)
func (c *Config) LogConfig() {
	log.Printf("Configuration loaded:")
	log.Printf("  Environment: %s", c.Environment)
	log.Printf("  Server: %s:%s", c.ServerHost, c.ServerPort)
	log.Printf("  Database: %s:%s/%s", c.DBHost, c.DBPort, c.DBName)
	log.Printf("  Redis: %s:%s (DB: %d)", c.RedisHost, c.RedisPort, c.RedisDB)
	log.Printf("  Worker Concurrency: %d", c.WorkerConcurrency)
	log.Printf("  Recovery backend: %s", c.RecoveryBackend)

	if c.NotificationEmail != "" && c.SMTPHost != "" {
		log.Printf("  Notifications: %s via %s:%d", c.NotificationEmail, c.SMTPHost, c.SMTPPort)
	} else {
		log.Printf("  Notifications: [DISABLED]")
	}

	if c.SMTPPassword != "" {
		log.Printf("  SMTP Password: [CONFIGURED]")
	} else {
		log.Printf("  SMTP Password: [NOT SET]")
	}
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
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
