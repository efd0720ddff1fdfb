package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/FlorianSchwab/GuildKeeper/app/controllers"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	licenses := api.Group("/licenses", middleware.RequireAPISessionAuth)
	licenses.Get("/", controllers.HandleLicenseList)
	licenses.Get("/:id", controllers.HandleLicenseShow)
	licenses.Patch("/:id", controllers.HandleLicenseUpdate)
	licenses.Delete("/:id", controllers.HandleLicenseDelete)

	guilds := api.Group("/guilds", middleware.RequireAPISessionAuth)
	guilds.Get("/available", controllers.HandleAvailableGuilds)
}
