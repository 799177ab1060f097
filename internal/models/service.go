package models

import "time"

// Service is an entry of the salon's catalog.
type Service struct {
	ID              int64     `yaml:"id" json:"id"`
	Name            string    `yaml:"name" json:"name"`
	Category        string    `yaml:"category" json:"category"`
	Description     string    `yaml:"description" json:"description,omitempty"`
	DurationMinutes int       `yaml:"duration_minutes" json:"duration_minutes"`
	PriceCents      int64     `yaml:"price_cents" json:"price_cents"`
	SortOrder       int64     `yaml:"sort_order" json:"sort_order"`
	IsActive        bool      `yaml:"is_active" json:"is_active"`
	CreatedAt       time.Time `yaml:"-" json:"created_at"`
	UpdatedAt       time.Time `yaml:"-" json:"updated_at"`
}
