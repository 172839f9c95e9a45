package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nmwangui/testprep/handlers"
	"github.com/nmwangui/testprep/middleware"
)

func TestRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	tests := api.Group("/tests", middleware.Protected())
	tests.Get("", handlers.ListMyTests)
	tests.Post("/generate", handlers.GenerateTest)
	tests.Get("/:testId", handlers.GetTest)
	tests.Post("/:testId/submit", handlers.SubmitTest)
}
