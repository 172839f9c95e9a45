package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TestStatusDraft      = "DRAFT"
	TestStatusInProgress = "IN_PROGRESS"
	TestStatusCompleted  = "COMPLETED"
)

// Test is one generated question set plus its lifecycle state for a single user.
// Status only ever moves forward: DRAFT -> IN_PROGRESS -> COMPLETED.
type Test struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	TopicID     uuid.UUID `gorm:"type:uuid;not null;index" json:"topic_id"`
	Status      string    `gorm:"size:20;not null;default:'DRAFT'" json:"status"`
	Score       *int      `json:"score"`

	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	ReportURL   *string    `gorm:"size:255" json:"report_url"`

	User      User       `gorm:"foreignkey:UserID" json:"-"`
	Topic     Topic      `gorm:"foreignkey:TopicID" json:"topic,omitempty"`
	Questions []Question `gorm:"foreignkey:TestID" json:"questions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
