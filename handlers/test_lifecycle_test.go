package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/nmwangui/testprep/database"
	"github.com/nmwangui/testprep/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// The handlers reach the database through the package-level connection, so each
// test swaps in a fresh in-memory SQLite database. The tables mirror what
// Migrate produces on Postgres minus the server-side UUID defaults; fixtures
// assign their own IDs.
func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a second connection would open its own empty :memory: database
	sqlDB.SetMaxOpenConns(1)

	for _, ddl := range []string{
		`CREATE TABLE users (
			id text PRIMARY KEY,
			name text NOT NULL,
			email text NOT NULL UNIQUE,
			password text,
			is_admin numeric NOT NULL DEFAULT false,
			image_url text,
			reset_password_token text,
			reset_password_token_expires_at datetime,
			created_at datetime,
			updated_at datetime
		)`,
		`CREATE TABLE topics (
			id text PRIMARY KEY,
			name text NOT NULL UNIQUE,
			description text NOT NULL,
			image_url text,
			category text NOT NULL,
			created_at datetime,
			updated_at datetime
		)`,
		`CREATE TABLE tests (
			id text PRIMARY KEY,
			title text NOT NULL,
			description text,
			user_id text NOT NULL,
			topic_id text NOT NULL,
			status text NOT NULL DEFAULT 'DRAFT',
			score integer,
			started_at datetime,
			completed_at datetime,
			report_url text,
			created_at datetime,
			updated_at datetime
		)`,
		`CREATE TABLE questions (
			id text PRIMARY KEY,
			test_id text NOT NULL,
			position integer NOT NULL,
			text text NOT NULL,
			type text NOT NULL DEFAULT 'MULTIPLE_CHOICE',
			options text,
			correct_answer text,
			explanation text,
			user_answer text,
			is_correct numeric
		)`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}

	database.DB = db
	return db
}

// newTestApp mounts the handlers behind a stand-in for the JWT middleware that
// trusts the X-User-ID request header.
func newTestApp() *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		claims := jwt.MapClaims{"user_id": c.Get("X-User-ID")}
		c.Locals("user", jwt.NewWithClaims(jwt.SigningMethodHS256, claims))
		return c.Next()
	})
	app.Get("/api/v1/tests/:testId", GetTest)
	app.Post("/api/v1/tests/:testId/submit", SubmitTest)
	app.Get("/api/v1/profile/me/stats", GetMyStats)
	app.Get("/api/v1/admin/dashboard-analytics", GetDashboardAnalytics)
	return app
}

func seedUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{ID: uuid.New(), Name: "Test User"}
	user.Email = user.ID.String() + "@example.com"
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedDraftTest(t *testing.T, db *gorm.DB, ownerID uuid.UUID, correctAnswers ...string) models.Test {
	t.Helper()

	topic := models.Topic{ID: uuid.New(), Description: "Fixture topic", Category: "Programming"}
	topic.Name = "Topic " + topic.ID.String()
	require.NoError(t, db.Create(&topic).Error)

	test := models.Test{
		ID:      uuid.New(),
		Title:   topic.Name + " Test",
		UserID:  ownerID,
		TopicID: topic.ID,
		Status:  models.TestStatusDraft,
	}
	for i, answer := range correctAnswers {
		a := answer
		test.Questions = append(test.Questions, models.Question{
			ID:            uuid.New(),
			Position:      i + 1,
			Text:          fmt.Sprintf("Question %d", i+1),
			Type:          models.QuestionTypeMultipleChoice,
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: &a,
		})
	}
	require.NoError(t, db.Create(&test).Error)
	return test
}

func getTestRequest(t *testing.T, app *fiber.App, testID, asUser uuid.UUID) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tests/"+testID.String(), nil)
	req.Header.Set("X-User-ID", asUser.String())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func submitTestRequest(t *testing.T, app *fiber.App, testID, asUser uuid.UUID, answers map[string]string) *http.Response {
	t.Helper()
	body, err := json.Marshal(SubmitTestRequest{Answers: answers})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tests/"+testID.String()+"/submit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", asUser.String())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func reloadTest(t *testing.T, db *gorm.DB, id uuid.UUID) models.Test {
	t.Helper()
	var test models.Test
	require.NoError(t, db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.position ASC") }).
		First(&test, "id = ?", id).Error)
	return test
}

func TestGetTest_FirstFetchStartsTestExactlyOnce(t *testing.T) {
	db := setupHandlerDB(t)
	app := newTestApp()
	owner := seedUser(t, db)
	test := seedDraftTest(t, db, owner.ID, "A", "B")

	resp := getTestRequest(t, app, test.ID, owner.ID)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload models.Test
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, models.TestStatusInProgress, payload.Status)
	require.NotNil(t, payload.StartedAt)

	first := reloadTest(t, db, test.ID)
	assert.Equal(t, models.TestStatusInProgress, first.Status)
	require.NotNil(t, first.StartedAt)

	// a second fetch leaves the timestamp alone
	resp = getTestRequest(t, app, test.ID, owner.ID)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	second := reloadTest(t, db, test.ID)
	assert.Equal(t, models.TestStatusInProgress, second.Status)
	require.NotNil(t, second.StartedAt)
	assert.True(t, first.StartedAt.Equal(*second.StartedAt), "started_at must not move on later fetches")
}

func TestStartTestIfDraft_LostUpdateAdoptsCurrentState(t *testing.T) {
	db := setupHandlerDB(t)
	owner := seedUser(t, db)
	test := seedDraftTest(t, db, owner.ID, "A")

	var stale models.Test
	require.NoError(t, db.First(&stale, "id = ?", test.ID).Error)

	// another fetch wins between this read and the conditional update
	startedAt := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&models.Test{}).
		Where("id = ?", test.ID).
		Updates(map[string]interface{}{
			"status":     models.TestStatusInProgress,
			"started_at": startedAt,
		}).Error)

	require.NoError(t, startTestIfDraft(db, &stale))

	assert.Equal(t, models.TestStatusInProgress, stale.Status)
	require.NotNil(t, stale.StartedAt)
	assert.Equal(t, startedAt.Unix(), stale.StartedAt.Unix())
}

func TestGetTest_NonOwnerForbiddenAndUnchanged(t *testing.T) {
	db := setupHandlerDB(t)
	app := newTestApp()
	owner := seedUser(t, db)
	stranger := seedUser(t, db)
	test := seedDraftTest(t, db, owner.ID, "A")

	resp := getTestRequest(t, app, test.ID, stranger.ID)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	current := reloadTest(t, db, test.ID)
	assert.Equal(t, models.TestStatusDraft, current.Status)
	assert.Nil(t, current.StartedAt)
}

func TestSubmitTest_NonOwnerForbiddenAndUnchanged(t *testing.T) {
	db := setupHandlerDB(t)
	app := newTestApp()
	owner := seedUser(t, db)
	stranger := seedUser(t, db)
	test := seedDraftTest(t, db, owner.ID, "A")

	resp := submitTestRequest(t, app, test.ID, stranger.ID, map[string]string{
		test.Questions[0].ID.String(): "A",
	})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	current := reloadTest(t, db, test.ID)
	assert.Equal(t, models.TestStatusDraft, current.Status)
	assert.Nil(t, current.Score)
	assert.Nil(t, current.CompletedAt)
	require.Len(t, current.Questions, 1)
	assert.Nil(t, current.Questions[0].UserAnswer)
	assert.Nil(t, current.Questions[0].IsCorrect)
}

func TestSubmitTest_GradesOnceAndRejectsResubmission(t *testing.T) {
	db := setupHandlerDB(t)
	app := newTestApp()
	owner := seedUser(t, db)
	test := seedDraftTest(t, db, owner.ID, "A", "B")
	answers := map[string]string{
		test.Questions[0].ID.String(): "A",
		test.Questions[1].ID.String(): "C",
	}

	resp := submitTestRequest(t, app, test.ID, owner.ID, answers)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Score int `json:"score"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, 50, payload.Score)

	completed := reloadTest(t, db, test.ID)
	assert.Equal(t, models.TestStatusCompleted, completed.Status)
	require.NotNil(t, completed.Score)
	assert.Equal(t, 50, *completed.Score)
	require.NotNil(t, completed.StartedAt) // a direct submit implies the start
	require.NotNil(t, completed.CompletedAt)
	require.Len(t, completed.Questions, 2)
	require.NotNil(t, completed.Questions[1].UserAnswer)
	assert.Equal(t, "C", *completed.Questions[1].UserAnswer)

	// resubmitting with better answers conflicts and changes nothing
	resp = submitTestRequest(t, app, test.ID, owner.ID, map[string]string{
		test.Questions[0].ID.String(): "A",
		test.Questions[1].ID.String(): "B",
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	after := reloadTest(t, db, test.ID)
	require.NotNil(t, after.Score)
	assert.Equal(t, 50, *after.Score)
	require.NotNil(t, after.Questions[1].UserAnswer)
	assert.Equal(t, "C", *after.Questions[1].UserAnswer)
	require.NotNil(t, after.CompletedAt)
	assert.True(t, completed.CompletedAt.Equal(*after.CompletedAt))
}

func TestGetMyStats_AggregatesCompletedTests(t *testing.T) {
	db := setupHandlerDB(t)
	app := newTestApp()
	owner := seedUser(t, db)

	now := time.Now()
	for _, score := range []int{80, 60} {
		test := seedDraftTest(t, db, owner.ID, "A")
		require.NoError(t, db.Model(&models.Test{}).
			Where("id = ?", test.ID).
			Updates(map[string]interface{}{
				"status":       models.TestStatusCompleted,
				"score":        score,
				"started_at":   now,
				"completed_at": now,
			}).Error)
	}
	seedDraftTest(t, db, owner.ID, "A") // still a draft

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile/me/stats", nil)
	req.Header.Set("X-User-ID", owner.ID.String())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stats struct {
		TotalTests     int64   `json:"total_tests"`
		CompletedTests int64   `json:"completed_tests"`
		AverageScore   float64 `json:"average_score"`
		BestScore      int     `json:"best_score"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, int64(3), stats.TotalTests)
	assert.Equal(t, int64(2), stats.CompletedTests)
	assert.InDelta(t, 70.0, stats.AverageScore, 0.001)
	assert.Equal(t, 80, stats.BestScore)
}

func TestStatsAndAnalytics_ReportDatabaseFailure(t *testing.T) {
	db := setupHandlerDB(t)
	app := newTestApp()
	owner := seedUser(t, db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile/me/stats", nil)
	req.Header.Set("X-User-ID", owner.ID.String())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard-analytics", nil)
	req.Header.Set("X-User-ID", owner.ID.String())
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
