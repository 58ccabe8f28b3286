package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration. Tokens are issued elsewhere; this
// service only verifies them.
type JWTConfig struct {
	Secret string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// AttendanceConfig holds the tunables of the attendance engine.
type AttendanceConfig struct {
	// Cap on how far reported GPS accuracy may widen the geofence.
	MaxAccuracyAllowanceMeters float64

	// Challenge duration when a teacher does not specify one.
	DefaultVerificationMinutes int

	// How long a leave application may sit pending before the overdue
	// scan flags it.
	OverdueLeaveThresholdHours int

	// Interval of the overdue-leave cron job.
	OverdueScanIntervalMinutes int

	// Delay before a failed timer handler is retried.
	TimerRetrySeconds int
}

func Load() (*Config, error) {
	// A missing .env file is fine in production; the environment is
	// expected to be set directly there.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "classtrack"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	// Attendance engine configuration
	maxAllowance, err := strconv.ParseFloat(getEnv("MAX_ACCURACY_ALLOWANCE_METERS", "30"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_ACCURACY_ALLOWANCE_METERS: %w", err)
	}
	verificationMinutes, err := strconv.Atoi(getEnv("DEFAULT_VERIFICATION_MINUTES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_VERIFICATION_MINUTES: %w", err)
	}
	overdueHours, err := strconv.Atoi(getEnv("OVERDUE_LEAVE_THRESHOLD_HOURS", "48"))
	if err != nil {
		return nil, fmt.Errorf("invalid OVERDUE_LEAVE_THRESHOLD_HOURS: %w", err)
	}
	scanMinutes, err := strconv.Atoi(getEnv("OVERDUE_SCAN_INTERVAL_MINUTES", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid OVERDUE_SCAN_INTERVAL_MINUTES: %w", err)
	}
	retrySeconds, err := strconv.Atoi(getEnv("TIMER_RETRY_SECONDS", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMER_RETRY_SECONDS: %w", err)
	}

	config.Attendance = AttendanceConfig{
		MaxAccuracyAllowanceMeters: maxAllowance,
		DefaultVerificationMinutes: verificationMinutes,
		OverdueLeaveThresholdHours: overdueHours,
		OverdueScanIntervalMinutes: scanMinutes,
		TimerRetrySeconds:          retrySeconds,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Attendance.MaxAccuracyAllowanceMeters < 0 {
		return fmt.Errorf("MAX_ACCURACY_ALLOWANCE_METERS must not be negative")
	}
	if c.Attendance.DefaultVerificationMinutes <= 0 {
		return fmt.Errorf("DEFAULT_VERIFICATION_MINUTES must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key, fallback string) []string {
	value := getEnv(key, fallback)
	if value == "" {
		return []string{}
	}
	return strings.Split(value, ",")
}
