package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/FlorianSchwab/GuildKeeper/app/repository"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/billing"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/cache"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/database"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/env"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/licensing"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())
	billing.SetupStripe()

	app := fiber.New(fiber.Config{
		AppName: "GuildKeeper",
	})

	app.Use(recover.New(), logger.New())

	router.InstallRouter(app)

	reconciler := licensing.NewReconciler(licensing.NewServiceFromDB(database.GetDB()))
	reconciler.Start(context.Background(), reconcileInterval())

	return app
}

func reconcileInterval() time.Duration {
	raw := env.GetEnv("RECONCILE_INTERVAL", "1h")
	interval, err := time.ParseDuration(raw)
	if err != nil || interval <= 0 {
		return time.Hour
	}
	return interval
}
