package models

import "time"

// FilterPreset is a saved, named filter query owned by one user
type FilterPreset struct {
	ID             string    `yaml:"id"`
	Slug           string    `yaml:"slug"`
	OrganizationID string    `yaml:"organization_id"`
	OwnerID        string    `yaml:"owner_id"`
	Name           string    `yaml:"name"`
	Query          string    `yaml:"query"`
	UsageCount     int       `yaml:"usage_count"`
	LastUsed       time.Time `yaml:"last_used"`
	CreatedAt      time.Time `yaml:"created_at"`
	UpdatedAt      time.Time `yaml:"updated_at"`
}
