package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nmwangui/testprep/handlers"
	"github.com/nmwangui/testprep/middleware"
)

func TopicRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	topics := api.Group("/topics", middleware.Protected())
	topics.Get("", handlers.ListTopics)
	topics.Get("/:topicId", handlers.GetTopic)
}
