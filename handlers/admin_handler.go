package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nmwangui/testprep/database"
	"github.com/nmwangui/testprep/models"
	"gorm.io/gorm"
)

func GetAllUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := database.DB.Order("created_at desc").Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	responses := make([]UserResponse, len(users))
	for i, user := range users {
		responses[i] = toUserResponse(user)
	}
	return c.JSON(responses)
}

// ToggleAdmin flips the is_admin flag on the target user.
func ToggleAdmin(c *fiber.Ctx) error {
	targetID := c.Params("userId")

	var user models.User
	if err := database.DB.First(&user, "id = ?", targetID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	user.IsAdmin = !user.IsAdmin
	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
	}

	return c.JSON(fiber.Map{
		"id":       user.ID,
		"email":    user.Email,
		"is_admin": user.IsAdmin,
	})
}

type AdminUpdateUserRequest struct {
	Name    string `json:"name" validate:"required,min=2"`
	Email   string `json:"email" validate:"required,email"`
	IsAdmin bool   `json:"is_admin"`
}

func AdminUpdateUser(c *fiber.Ctx) error {
	targetID := c.Params("userId")

	var req AdminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", targetID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	user.Name = req.Name
	user.Email = req.Email
	user.IsAdmin = req.IsAdmin
	if err := database.DB.Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already in use"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
	}

	return c.JSON(fiber.Map{"message": "User updated successfully", "user": toUserResponse(user)})
}

type DashboardAnalyticsResponse struct {
	TotalUsers          int64         `json:"total_users"`
	TotalTests          int64         `json:"total_tests"`
	CompletedLast30Days int64         `json:"completed_last_30_days"`
	AverageScore        float64       `json:"average_score"`
	RecentTests         []models.Test `json:"recent_tests"`
}

func GetDashboardAnalytics(c *fiber.Ctx) error {
	var response DashboardAnalyticsResponse

	if err := database.DB.Model(&models.User{}).Count(&response.TotalUsers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if err := database.DB.Model(&models.Test{}).Count(&response.TotalTests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	if err := database.DB.Model(&models.Test{}).
		Where("status = ? AND completed_at > ?", models.TestStatusCompleted, thirtyDaysAgo).
		Count(&response.CompletedLast30Days).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if err := database.DB.Model(&models.Test{}).
		Where("status = ?", models.TestStatusCompleted).
		Select("COALESCE(AVG(score), 0)").
		Row().Scan(&response.AverageScore); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if err := database.DB.Order("created_at desc").Limit(5).Preload("Topic").Find(&response.RecentTests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(response)
}
