package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nmwangui/testprep/database"
	"github.com/nmwangui/testprep/models"
)

func ListTopics(c *fiber.Ctx) error {
	var topics []models.Topic
	if err := database.DB.Order("name asc").Find(&topics).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch topics"})
	}
	return c.JSON(topics)
}

func GetTopic(c *fiber.Ctx) error {
	topicID := c.Params("topicId")
	var topic models.Topic
	if err := database.DB.First(&topic, "id = ?", topicID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Topic not found"})
	}
	return c.JSON(topic)
}
