package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/licensing"
)

// licenseJSON is the API representation of a license.
func licenseJSON(svc *licensing.Service, license *models.License) fiber.Map {
	var assignedGuild *models.Guild
	if license.AssignedGuildID != nil {
		if guild, err := svc.Repository().GetGuild(*license.AssignedGuildID); err == nil {
			assignedGuild = guild
		}
	}

	return fiber.Map{
		"id":                    license.ID,
		"uuid":                  license.UUID,
		"type":                  license.Type,
		"status":                license.Status,
		"assigned_guild":        assignedGuild,
		"can_be_transferred":    svc.CanBeTransferred(license),
		"transfer_available_at": formatTimePtr(license.TransferAvailableAt()),
		"last_assigned_at":      formatTimePtr(license.LastAssignedAt),
	}
}

// HandleLicenseList returns all licenses owned by the current user.
func HandleLicenseList(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "login required")
	}

	svc := licensingService()
	licenses, err := svc.Repository().ListLicensesByUser(user.ID)
	if err != nil {
		log.Errorf("[License] list for user %d failed: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "could not load licenses")
	}

	out := make([]fiber.Map, 0, len(licenses))
	for i := range licenses {
		out = append(out, licenseJSON(svc, &licenses[i]))
	}
	return c.JSON(fiber.Map{"licenses": out})
}

// HandleLicenseShow returns a single license of the current user.
func HandleLicenseShow(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "login required")
	}

	svc := licensingService()
	license, resp := loadLicense(c, svc)
	if license == nil {
		return resp
	}

	if !licensingPolicy(svc).CanView(user, license) {
		return jsonError(c, fiber.StatusForbidden, "forbidden")
	}

	return c.JSON(fiber.Map{"license": licenseJSON(svc, license)})
}

type licenseUpdateRequest struct {
	Action  string `json:"action"`
	GuildID uint   `json:"guild_id"`
}

// HandleLicenseUpdate performs the assign or park action on a license.
func HandleLicenseUpdate(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "login required")
	}

	svc := licensingService()
	license, resp := loadLicense(c, svc)
	if license == nil {
		return resp
	}

	var req licenseUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	switch req.Action {
	case "assign":
		return assignLicense(c, svc, user, license, req.GuildID)
	case "park":
		return parkLicense(c, svc, user, license)
	default:
		return jsonError(c, fiber.StatusBadRequest, "invalid action")
	}
}

func assignLicense(c *fiber.Ctx, svc *licensing.Service, user *models.User, license *models.License, guildID uint) error {
	if guildID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "guild_id is required")
	}

	guild, err := svc.Repository().GetGuild(guildID)
	if err != nil {
		if isNotFound(err) {
			return jsonError(c, fiber.StatusNotFound, "guild not found")
		}
		log.Errorf("[License] load guild %d failed: %v", guildID, err)
		return jsonError(c, fiber.StatusInternalServerError, "could not load guild")
	}

	policy := licensingPolicy(svc)
	allowed, err := policy.CanAssign(user, license, guild)
	if err != nil {
		log.Errorf("[License] assign permission check failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "permission check failed")
	}
	if !allowed {
		return jsonError(c, fiber.StatusForbidden, "forbidden")
	}

	if err := svc.Assign(license, guild); err != nil {
		switch {
		case errors.Is(err, licensing.ErrTransferCooldown):
			return jsonPreconditionFailure(c, reasonTransferCooldown)
		case errors.Is(err, licensing.ErrGuildAlreadyLicensed):
			return jsonPreconditionFailure(c, reasonGuildAlreadyLicensed)
		default:
			log.Errorf("[License] assign license %d to guild %d failed: %v", license.ID, guild.ID, err)
			return jsonError(c, fiber.StatusInternalServerError, "could not assign license")
		}
	}

	return c.JSON(fiber.Map{
		"message": "License assigned successfully",
		"license": licenseJSON(svc, license),
	})
}

func parkLicense(c *fiber.Ctx, svc *licensing.Service, user *models.User, license *models.License) error {
	policy := licensingPolicy(svc)
	if !policy.CanPark(user, license) {
		if !policy.CanView(user, license) {
			return jsonError(c, fiber.StatusForbidden, "forbidden")
		}
		// Owner, but the license is not active.
		return jsonPreconditionFailure(c, reasonAlreadyParked)
	}

	if err := svc.Park(license); err != nil {
		if errors.Is(err, licensing.ErrAlreadyParked) {
			return jsonPreconditionFailure(c, reasonAlreadyParked)
		}
		log.Errorf("[License] park license %d failed: %v", license.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "could not park license")
	}

	return c.JSON(fiber.Map{
		"message": "License parked successfully",
		"license": licenseJSON(svc, license),
	})
}

// HandleLicenseDelete removes a license owned by the current user.
func HandleLicenseDelete(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "login required")
	}

	svc := licensingService()
	license, resp := loadLicense(c, svc)
	if license == nil {
		return resp
	}

	if !licensingPolicy(svc).CanDelete(user, license) {
		return jsonError(c, fiber.StatusForbidden, "forbidden")
	}

	if err := svc.Delete(license); err != nil {
		log.Errorf("[License] delete license %d failed: %v", license.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "could not delete license")
	}

	return c.JSON(fiber.Map{"message": "License deleted successfully"})
}

// HandleAvailableGuilds lists guilds the current user administrates that hold
// no active license.
func HandleAvailableGuilds(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "login required")
	}

	svc := licensingService()
	guilds, err := svc.Repository().ListAvailableGuilds(user.ID)
	if err != nil {
		log.Errorf("[License] available guilds for user %d failed: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "could not load guilds")
	}

	return c.JSON(fiber.Map{"guilds": guilds})
}

func loadLicense(c *fiber.Ctx, svc *licensing.Service) (*models.License, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return nil, jsonError(c, fiber.StatusBadRequest, "invalid license id")
	}

	license, err := svc.Repository().GetLicense(uint(id))
	if err != nil {
		if isNotFound(err) {
			return nil, jsonError(c, fiber.StatusNotFound, "license not found")
		}
		log.Errorf("[License] load license %d failed: %v", id, err)
		return nil, jsonError(c, fiber.StatusInternalServerError, "could not load license")
	}
	return license, nil
}
