package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
	"github.com/FlorianSchwab/GuildKeeper/app/repository"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/discord"
)

// HandleOAuthCallback completes the Discord flow, links the account and
// refreshes the user's guild roster.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	repos := repository.GetGlobalRepositories()

	// Prefer an account that already linked this Discord ID, fall back to an
	// email match, otherwise create a fresh account.
	appUser, err := repos.User.GetByDiscordID(u.UserID)
	if err != nil {
		appUser = nil
		if u.Email != "" {
			appUser, _ = repos.User.GetByEmail(u.Email)
		}
	}

	if appUser == nil {
		// OAuth-created accounts get a random placeholder password; it is
		// never usable for a form login.
		email := u.Email
		if email == "" {
			email = fmt.Sprintf("discord_%s@discord.oauth.local", u.UserID)
		}
		appUser, err = models.CreateUser(firstNonEmpty(u.Name, u.NickName, "User"), email, uuid.NewString())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("create user failed: %v", err))
		}
		appUser.DiscordID = u.UserID
		appUser.AvatarURL = u.AvatarURL
		if err := repos.User.Create(appUser); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("create user failed: %v", err))
		}
	} else if appUser.DiscordID != u.UserID {
		appUser.DiscordID = u.UserID
		appUser.AvatarURL = u.AvatarURL
		if err := repos.User.Update(appUser); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("link discord failed: %v", err))
		}
	}

	// The roster sync is best effort, a failing Discord API call must not
	// block the login.
	if err := discord.SyncUserGuilds(c.UserContext(), discord.NewClient(), repos.Guild, appUser.ID, u.AccessToken); err != nil {
		log.Warnf("[OAuth] guild sync for user %d failed: %v", appUser.ID, err)
	}

	if err := startSession(c, appUser); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session save failed")
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
