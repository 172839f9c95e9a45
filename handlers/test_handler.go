package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nmwangui/testprep/database"
	"github.com/nmwangui/testprep/models"
	"github.com/nmwangui/testprep/services"
	"github.com/nmwangui/testprep/websocket"
	"gorm.io/gorm"
)

type GenerateTestRequest struct {
	TopicID       string `json:"topic_id" validate:"required,uuid"`
	Difficulty    string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	QuestionCount int    `json:"question_count" validate:"omitempty,min=1,max=50"`
}

// GenerateTest creates a new test in DRAFT status with a freshly generated
// question set. The question set is fixed from this point on.
func GenerateTest(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session identity"})
	}

	var req GenerateTestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Difficulty == "" {
		req.Difficulty = "medium"
	}
	if req.QuestionCount == 0 {
		req.QuestionCount = 10
	}

	// A valid token can still reference a user row that no longer exists.
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var topic models.Topic
	if err := database.DB.First(&topic, "id = ?", req.TopicID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Topic not found"})
	}

	drafts := services.Generator.GenerateTestQuestions(topic.Name, topic.Description, req.Difficulty, req.QuestionCount)

	questions := make([]models.Question, len(drafts))
	for i, draft := range drafts {
		questions[i] = models.Question{
			Position: i + 1,
			Text:     draft.Text,
			Type:     draft.Type,
			Options:  draft.Options,
		}
		if questions[i].Options == nil {
			questions[i].Options = []string{}
		}
		if draft.CorrectAnswer != "" {
			answer := draft.CorrectAnswer
			questions[i].CorrectAnswer = &answer
		}
		if draft.Explanation != "" {
			explanation := draft.Explanation
			questions[i].Explanation = &explanation
		}
	}

	description := fmt.Sprintf("A %s difficulty test on %s", req.Difficulty, topic.Name)
	test := models.Test{
		Title:       fmt.Sprintf("%s Test", topic.Name),
		Description: &description,
		UserID:      user.ID,
		TopicID:     topic.ID,
		Status:      models.TestStatusDraft,
		Questions:   questions,
	}

	// Test and question rows land together or not at all.
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&test).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create test"})
	}

	return c.Status(fiber.StatusCreated).JSON(test)
}

// GetTest returns a test with its questions. The first read of a DRAFT test
// flips it to IN_PROGRESS and stamps started_at; later reads change nothing.
func GetTest(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session identity"})
	}
	testID := c.Params("testId")

	var test models.Test
	if err := database.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.position ASC") }).
		Preload("Topic").
		First(&test, "id = ?", testID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Test not found"})
	}

	if !ownedBy(test.UserID, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Unauthorized access to this test"})
	}

	if err := startTestIfDraft(database.DB, &test); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start test"})
	}

	return c.JSON(test)
}

// startTestIfDraft flips a DRAFT test to IN_PROGRESS and stamps started_at. The
// update is conditional so concurrent first reads apply it exactly once; a
// loser re-reads the row and adopts the winner's status and timestamp.
func startTestIfDraft(db *gorm.DB, test *models.Test) error {
	if test.Status != models.TestStatusDraft || test.StartedAt != nil {
		return nil
	}

	now := time.Now()
	result := db.Model(&models.Test{}).
		Where("id = ? AND status = ? AND started_at IS NULL", test.ID, models.TestStatusDraft).
		Updates(map[string]interface{}{
			"status":     models.TestStatusInProgress,
			"started_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		test.Status = models.TestStatusInProgress
		test.StartedAt = &now
		return nil
	}

	var current models.Test
	if err := db.Select("status", "started_at").First(&current, "id = ?", test.ID).Error; err != nil {
		return err
	}
	test.Status = current.Status
	test.StartedAt = current.StartedAt
	return nil
}

type SubmitTestRequest struct {
	Answers map[string]string `json:"answers"`
}

// errAlreadySubmitted marks the losing side of a double-submit race.
var errAlreadySubmitted = errors.New("test has already been submitted")

// SubmitTest grades the test against the submitted answers and completes it.
// A test can be completed exactly once; the conditional status update makes the
// transition single-writer, so a concurrent double submit loses with a 409.
func SubmitTest(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session identity"})
	}
	testID := c.Params("testId")

	var req SubmitTestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.Answers == nil {
		req.Answers = map[string]string{}
	}

	var test models.Test
	if err := database.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.position ASC") }).
		First(&test, "id = ?", testID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Test not found"})
	}

	if !ownedBy(test.UserID, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Unauthorized access to this test"})
	}

	if test.Status == models.TestStatusCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Test has already been submitted"})
	}

	gradedQuestions, correctCount := gradeAnswers(test.Questions, req.Answers)
	score := computeScore(correctCount, len(gradedQuestions))
	now := time.Now()

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		// A submit on a DRAFT test (client skipped the fetch) is treated as an
		// implicit fetch+submit, so started_at is stamped here if still null.
		result := tx.Model(&models.Test{}).
			Where("id = ? AND status <> ?", test.ID, models.TestStatusCompleted).
			Updates(map[string]interface{}{
				"status":       models.TestStatusCompleted,
				"score":        score,
				"completed_at": now,
				"started_at":   gorm.Expr("COALESCE(started_at, ?)", now),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errAlreadySubmitted
		}

		for _, q := range gradedQuestions {
			if err := tx.Model(&models.Question{}).
				Where("id = ?", q.ID).
				Updates(map[string]interface{}{
					"user_answer": q.UserAnswer,
					"is_correct":  q.IsCorrect,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errAlreadySubmitted) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Test has already been submitted"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save results"})
	}

	test.Questions = gradedQuestions
	test.Status = models.TestStatusCompleted
	test.Score = &score
	test.CompletedAt = &now
	if test.StartedAt == nil {
		test.StartedAt = &now
	}

	websocket.NotifyTestCompleted(test.UserID, test.ID, score)
	go services.GenerateResultsReport(test.ID)

	return c.JSON(fiber.Map{
		"test":  test,
		"score": score,
	})
}

// ListMyTests returns the requester's tests, newest first, without questions.
func ListMyTests(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session identity"})
	}

	var tests []models.Test
	if err := database.DB.
		Preload("Topic").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&tests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch tests"})
	}

	return c.JSON(tests)
}
