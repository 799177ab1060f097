package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"salon/internal/availability"
	"salon/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	API        APIConfig        `yaml:"api"`
	Database   DatabaseConfig   `yaml:"database"`
	Backup     BackupConfig     `yaml:"backup"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Business   BusinessConfig   `yaml:"business"`
	Session    SessionConfig    `yaml:"session"`
	Services   []models.Service `yaml:"services"`
	Admins     []AdminSeed      `yaml:"admins"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool `yaml:"enabled"`
	Port       int  `yaml:"port"`
	Reflection bool `yaml:"reflection"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// BackupConfig controls periodic snapshots of the sqlite file.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Interval      string `yaml:"interval"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

// Every returns the backup period, 24h when unset or malformed.
func (b BackupConfig) Every() time.Duration {
	if d, err := time.ParseDuration(b.Interval); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// BusinessConfig describes the salon's opening hours.
type BusinessConfig struct {
	Name           string   `yaml:"name"`
	Timezone       string   `yaml:"timezone"`
	OpenTime       string   `yaml:"open_time"`
	CloseTime      string   `yaml:"close_time"`
	ClosedWeekdays []string `yaml:"closed_weekdays"`
	MaxAdvanceDays int      `yaml:"max_advance_days"`
}

type SessionConfig struct {
	IdleTimeoutSeconds int `yaml:"idle_timeout_seconds"`
}

// AdminSeed bootstraps an admin account on first start.
type AdminSeed struct {
	Email        string `yaml:"email"`
	DisplayName  string `yaml:"display_name"`
	Role         string `yaml:"role"`
	PasswordHash string `yaml:"password_hash"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if err := c.Business.Validate(); err != nil {
		return err
	}

	if c.Backup.Enabled && c.Backup.StoragePath == "" {
		return errors.New("backup.storage_path is required when backups are enabled")
	}

	return ValidateServices(c.Services)
}

// Validate checks the opening hours and timezone.
func (b BusinessConfig) Validate() error {
	open, err := availability.ParseTimeOfDay(b.OpenTime)
	if err != nil {
		return fmt.Errorf("business.open_time: %w", err)
	}
	closeAt, err := availability.ParseTimeOfDay(b.CloseTime)
	if err != nil {
		return fmt.Errorf("business.close_time: %w", err)
	}
	if open >= closeAt {
		return fmt.Errorf("business.open_time %s must be before close_time %s", b.OpenTime, b.CloseTime)
	}
	if _, err := time.LoadLocation(b.Timezone); err != nil {
		return fmt.Errorf("business.timezone: %w", err)
	}
	if _, err := b.ClosedDays(); err != nil {
		return err
	}
	return nil
}

// Location returns the business timezone, falling back to UTC.
func (b BusinessConfig) Location() *time.Location {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ClosedDays parses closed_weekdays into a lookup set.
func (b BusinessConfig) ClosedDays() (map[time.Weekday]bool, error) {
	days := make(map[time.Weekday]bool, len(b.ClosedWeekdays))
	for _, raw := range b.ClosedWeekdays {
		day, ok := weekdays[strings.ToLower(strings.TrimSpace(raw))]
		if !ok {
			return nil, fmt.Errorf("business.closed_weekdays: unknown weekday %q", raw)
		}
		days[day] = true
	}
	return days, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func ValidateServices(services []models.Service) error {
	ids := make(map[int64]bool)
	for _, svc := range services {
		if svc.ID == 0 {
			return fmt.Errorf("service '%s' has invalid ID 0", svc.Name)
		}
		if ids[svc.ID] {
			return fmt.Errorf("duplicate service ID found: %d", svc.ID)
		}
		if svc.DurationMinutes <= 0 {
			return fmt.Errorf("service '%s' must have a positive duration", svc.Name)
		}
		ids[svc.ID] = true
	}
	return nil
}

// IdleTimeout returns the admin session inactivity limit.
func (s SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "salon"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = models.RateLimitRPS
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = models.RateLimitBurst
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Backup.RetentionDays == 0 {
		c.Backup.RetentionDays = 7
	}

	// Business defaults
	if c.Business.Timezone == "" {
		c.Business.Timezone = "UTC"
	}
	if c.Business.OpenTime == "" {
		c.Business.OpenTime = "09:00"
	}
	if c.Business.CloseTime == "" {
		c.Business.CloseTime = "21:00"
	}
	if c.Business.MaxAdvanceDays == 0 {
		c.Business.MaxAdvanceDays = models.DefaultMaxAdvanceDays
	}

	if c.Session.IdleTimeoutSeconds == 0 {
		c.Session.IdleTimeoutSeconds = models.DefaultSessionIdleTimeout
	}
}
