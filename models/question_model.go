package models

import "github.com/google/uuid"

const (
	QuestionTypeMultipleChoice = "MULTIPLE_CHOICE"
	QuestionTypeText           = "TEXT"
	QuestionTypeTrueFalse      = "TRUE_FALSE"
)

// Question belongs to exactly one Test. The question set is fixed at creation;
// UserAnswer and IsCorrect are written once, at submission.
type Question struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TestID        uuid.UUID `gorm:"type:uuid;not null;index" json:"test_id"`
	Position      int       `gorm:"not null" json:"position"`
	Text          string    `gorm:"type:text;not null" json:"text"`
	Type          string    `gorm:"size:50;not null;default:'MULTIPLE_CHOICE'" json:"type"`
	Options       []string  `gorm:"serializer:json" json:"options"`
	CorrectAnswer *string   `gorm:"type:text" json:"correct_answer"` // null for ungraded free-text questions
	Explanation   *string   `gorm:"type:text" json:"explanation"`
	UserAnswer    *string   `gorm:"type:text" json:"user_answer"`
	IsCorrect     *bool     `json:"is_correct"`
}
