package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Run kinds
const (
	RunKindHarmonize = "harmonize"
	RunKindVoiceLead = "voicelead"
	RunKindArrange   = "arrange"
)

// Run is one stored harmonize/voicelead/arrange call
type Run struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	Kind       string    `gorm:"index;not null" json:"kind"`
	Key        string    `json:"key,omitempty"`
	Input      string    `gorm:"type:text" json:"input"`  // request JSON
	Output     string    `gorm:"type:text" json:"output"` // response JSON
	TotalCost  float64   `json:"total_cost"`
	IsValid    bool      `json:"is_valid"`
	DurationMs int64     `json:"duration_ms"`
	UserID     string    `gorm:"index" json:"user_id,omitempty"`
}

// BeforeCreate assigns a UUID when none is set
func (r *Run) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// RunSummary is the list view of a run
type RunSummary struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Kind       string    `json:"kind"`
	Key        string    `json:"key,omitempty"`
	TotalCost  float64   `json:"total_cost"`
	IsValid    bool      `json:"is_valid"`
	DurationMs int64     `json:"duration_ms"`
}

// Summary drops the payloads
func (r Run) Summary() RunSummary {
	return RunSummary{
		ID:         r.ID,
		CreatedAt:  r.CreatedAt,
		Kind:       r.Kind,
		Key:        r.Key,
		TotalCost:  r.TotalCost,
		IsValid:    r.IsValid,
		DurationMs: r.DurationMs,
	}
}
