package models

import (
	"time"

	"github.com/google/uuid"
)

// Topic is seeded reference data; end users only ever read it.
type Topic struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"size:255;not null;unique" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	ImageURL    *string   `gorm:"size:255" json:"image_url"`
	Category    string    `gorm:"size:100;not null" json:"category"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
