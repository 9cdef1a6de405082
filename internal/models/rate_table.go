package models

import (
	"time"
)

// RateTableVersion describes one stored rate table data set.
type RateTableVersion struct {
	Version    string    `json:"version" db:"version"`
	Source     string    `json:"source" db:"source"`
	EntryCount int       `json:"entry_count" db:"entry_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	IsActive   bool      `json:"is_active" db:"is_active"`
}
