package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nmwangui/testprep/handlers"
	"github.com/nmwangui/testprep/middleware"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/dashboard-analytics", handlers.GetDashboardAnalytics)

	users := admin.Group("/users")
	users.Get("", handlers.GetAllUsers)
	users.Post("/:userId/toggle-admin", handlers.ToggleAdmin)
	users.Put("/:userId", handlers.AdminUpdateUser)
}
