package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"salon/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("SALON_DB_PATH", "test.db")

	yamlContent := `
database:
  path: "${SALON_DB_PATH}"
business:
  timezone: "Europe/Berlin"
  open_time: "10:00"
  close_time: "19:00"
  closed_weekdays: ["sunday"]
services:
  - id: 1
    name: "Haircut"
    duration_minutes: 45
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "test.db" {
		t.Errorf("expected env-expanded database path, got %s", cfg.Database.Path)
	}
	if cfg.Business.OpenTime != "10:00" || cfg.Business.CloseTime != "19:00" {
		t.Errorf("unexpected business hours %s-%s", cfg.Business.OpenTime, cfg.Business.CloseTime)
	}
	if len(cfg.Services) != 1 || cfg.Services[0].DurationMinutes != 45 {
		t.Errorf("expected 1 service with 45 minute duration")
	}
	if cfg.Business.Location().String() != "Europe/Berlin" {
		t.Errorf("expected Europe/Berlin location, got %s", cfg.Business.Location())
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateConfig(t *testing.T) {
	business := BusinessConfig{Timezone: "UTC", OpenTime: "09:00", CloseTime: "21:00"}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Business: business,
				Services: []models.Service{{ID: 1, Name: "Cut", DurationMinutes: 30}},
			},
			wantErr: false,
		},
		{
			name: "missing database path",
			cfg: Config{
				Business: business,
			},
			wantErr: true,
		},
		{
			name: "open after close",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Business: BusinessConfig{Timezone: "UTC", OpenTime: "21:00", CloseTime: "09:00"},
			},
			wantErr: true,
		},
		{
			name: "malformed open time",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Business: BusinessConfig{Timezone: "UTC", OpenTime: "9am", CloseTime: "21:00"},
			},
			wantErr: true,
		},
		{
			name: "unknown timezone",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Business: BusinessConfig{Timezone: "Mars/Olympus", OpenTime: "09:00", CloseTime: "21:00"},
			},
			wantErr: true,
		},
		{
			name: "unknown weekday",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Business: BusinessConfig{Timezone: "UTC", OpenTime: "09:00", CloseTime: "21:00", ClosedWeekdays: []string{"funday"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Business.OpenTime != "09:00" || cfg.Business.CloseTime != "21:00" {
		t.Errorf("expected default hours 09:00-21:00, got %s-%s", cfg.Business.OpenTime, cfg.Business.CloseTime)
	}
	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.API.GRPC.Port != 8081 {
		t.Errorf("expected default gRPC port 8081, got %d", cfg.API.GRPC.Port)
	}
	if cfg.Session.IdleTimeout() != time.Duration(models.DefaultSessionIdleTimeout)*time.Second {
		t.Errorf("unexpected idle timeout %s", cfg.Session.IdleTimeout())
	}
	if cfg.Business.MaxAdvanceDays != models.DefaultMaxAdvanceDays {
		t.Errorf("expected default max advance days %d, got %d", models.DefaultMaxAdvanceDays, cfg.Business.MaxAdvanceDays)
	}
}

func TestClosedDays(t *testing.T) {
	b := BusinessConfig{ClosedWeekdays: []string{"Sunday", " monday "}}
	days, err := b.ClosedDays()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !days[time.Sunday] || !days[time.Monday] || days[time.Tuesday] {
		t.Errorf("unexpected closed days %v", days)
	}
}

func TestValidateServices(t *testing.T) {
	tests := []struct {
		name     string
		services []models.Service
		wantErr  bool
	}{
		{
			name:     "Valid services",
			services: []models.Service{{ID: 1, Name: "A", DurationMinutes: 30}, {ID: 2, Name: "B", DurationMinutes: 90}},
		},
		{
			name:     "Duplicate ID",
			services: []models.Service{{ID: 1, Name: "A", DurationMinutes: 30}, {ID: 1, Name: "B", DurationMinutes: 30}},
			wantErr:  true,
		},
		{
			name:     "ID 0",
			services: []models.Service{{ID: 0, Name: "A", DurationMinutes: 30}},
			wantErr:  true,
		},
		{
			name:     "Zero duration",
			services: []models.Service{{ID: 3, Name: "A"}},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServices(tt.services)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateServices() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
