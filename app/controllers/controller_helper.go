package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
	"github.com/FlorianSchwab/GuildKeeper/app/repository"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/database"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/licensing"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/usercontext"
)

// Reason codes for transition precondition failures, distinct from
// authorization denials.
const (
	reasonTransferCooldown     = "transfer_cooldown"
	reasonGuildAlreadyLicensed = "guild_already_licensed"
	reasonAlreadyParked        = "already_parked"
)

// currentUser loads the logged-in user for the request, or nil when the
// session does not resolve to an account.
func currentUser(c *fiber.Ctx) *models.User {
	userID := usercontext.GetUserID(c)
	if userID == 0 {
		return nil
	}
	user, err := repository.GetGlobalRepositories().User.GetByID(userID)
	if err != nil {
		return nil
	}
	return user
}

func licensingService() *licensing.Service {
	return licensing.NewServiceFromDB(database.GetDB())
}

func licensingPolicy(svc *licensing.Service) *licensing.Policy {
	return licensing.NewPolicy(svc.Repository())
}

// formatTimePtr renders an optional timestamp as RFC3339 UTC or nil.
func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func jsonPreconditionFailure(c *fiber.Ctx, reason string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error":  "precondition failed",
		"reason": reason,
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
