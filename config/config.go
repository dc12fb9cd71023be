package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Crawling
	RespectRobots bool
	DelayProfile  string // "cautious", "normal", "aggressive"
	UserAgent     string
	RatePerSecond float64
	RateBurst     int

	// Category listing crawl
	ListingTarget    int
	MaxScrollRounds  int
	InitialWait      time.Duration
	ScrollSettleWait time.Duration

	// Refresh and retention
	RefreshDelay  time.Duration
	RetentionDays int
	Timezone      string

	// HTTP server
	HTTPPort string
	APIKey   string

	// Auth
	JWTSecret         string
	AdminUser         string
	AdminPasswordHash string

	// Proxy
	ProxyURLs string // comma-separated proxy URLs, empty for direct

	// Redis (optional analytics cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Database DatabaseConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	LogLevel     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int // seconds
}

// DSN builds the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RespectRobots:    true,
		DelayProfile:     "normal",
		RatePerSecond:    2.0,
		RateBurst:        3,
		ListingTarget:    300,
		MaxScrollRounds:  10,
		InitialWait:      3 * time.Second,
		ScrollSettleWait: 2 * time.Second,
		RefreshDelay:     2 * time.Second,
		RetentionDays:    30,
		Timezone:         "Asia/Seoul",
		HTTPPort:         "8080",
		AdminUser:        "admin",
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         "5432",
			User:         "postgres",
			Name:         "mstrack",
			SSLMode:      "disable",
			LogLevel:     "silent",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			MaxLifetime:  300,
		},
	}
}

// LoadFromEnv loads .env file (if present) then overrides config from environment variables.
func (c *Config) LoadFromEnv() {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	if v := os.Getenv("MSTRACK_DELAY_PROFILE"); v != "" {
		c.DelayProfile = v
	}
	if v := os.Getenv("MSTRACK_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RatePerSecond = f
		}
	}
	if v := os.Getenv("MSTRACK_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateBurst = n
		}
	}
	if v := os.Getenv("MSTRACK_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("MSTRACK_LISTING_TARGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ListingTarget = n
		}
	}
	if v := os.Getenv("MSTRACK_SCROLL_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxScrollRounds = n
		}
	}
	if v := os.Getenv("MSTRACK_REFRESH_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RefreshDelay = d
		}
	}
	if v := os.Getenv("MSTRACK_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RetentionDays = n
		}
	}
	if v := os.Getenv("MSTRACK_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("MSTRACK_RESPECT_ROBOTS"); v == "false" {
		c.RespectRobots = false
	}
	if v := os.Getenv("MSTRACK_PROXIES"); v != "" {
		c.ProxyURLs = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.HTTPPort = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("JWT_SECRET_KEY"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("MSTRACK_ADMIN_USER"); v != "" {
		c.AdminUser = v
	}
	if v := os.Getenv("MSTRACK_ADMIN_PASSWORD_HASH"); v != "" {
		c.AdminPasswordHash = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}

	c.Database.loadFromEnv()
}

func (d *DatabaseConfig) loadFromEnv() {
	if v := os.Getenv("DB_HOST"); v != "" {
		d.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		d.Port = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		d.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		d.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		d.Name = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		d.SSLMode = v
	}
	if v := os.Getenv("DB_LOG_LEVEL"); v != "" {
		d.LogLevel = v
	}
	if v := os.Getenv("DB_MAX_OPEN_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			d.MaxOpenConns = n
		}
	}
	if v := os.Getenv("DB_MAX_IDLE_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			d.MaxIdleConns = n
		}
	}
	if v := os.Getenv("DB_MAX_LIFETIME"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			d.MaxLifetime = n
		}
	}
}
