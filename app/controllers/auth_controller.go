package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
	"github.com/FlorianSchwab/GuildKeeper/app/repository"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/session"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/usercontext"
)

// HandleAuthRegister creates a local account from the registration form.
func HandleAuthRegister(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	name := c.FormValue("name")
	email := c.FormValue("email")
	password := c.FormValue("password")

	repos := repository.GetGlobalRepositories()

	if existing, err := repos.User.GetByEmail(email); err == nil && existing != nil {
		fm["message"] = "There is a problem with the registration process"

		return flash.WithError(c, fm).Redirect("/register")
	}

	user, err := models.CreateUser(name, email, password)
	if err != nil {
		fm["message"] = fmt.Sprintf("registration failed: %s", err)

		return flash.WithError(c, fm).Redirect("/register")
	}

	if err := repos.User.Create(user); err != nil {
		log.Errorf("[Auth] create user failed: %v", err)
		fm["message"] = "There is a problem with the registration process"

		return flash.WithError(c, fm).Redirect("/register")
	}

	if err := startSession(c, user); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/login")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Welcome aboard!",
	}

	return flash.WithSuccess(c, fm).Redirect("/")
}

// HandleAuthLogin authenticates a local account with email and password.
func HandleAuthLogin(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	repos := repository.GetGlobalRepositories()

	// notice: in production you should not inform the user
	// with detailed messages about login failures
	user, err := repos.User.GetByEmail(c.FormValue("email"))
	if err != nil {
		fm["message"] = "There is a problem with the login process"

		return flash.WithError(c, fm).Redirect("/login")
	}

	if !user.CheckPassword(c.FormValue("password")) || !user.IsActive() {
		fm["message"] = "There is a problem with the login process"

		return flash.WithError(c, fm).Redirect("/login")
	}

	if err := startSession(c, user); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/login")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repos.User.Update(user); err != nil {
		log.Warnf("[Auth] update last login for user %d failed: %v", user.ID, err)
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "You are logged in!",
	}

	return flash.WithSuccess(c, fm).Redirect("/")
}

// HandleAuthLogout destroys the session.
func HandleAuthLogout(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = "logged out (no sess)"

		return flash.WithError(c, fm).Redirect("/login")
	}

	if err := sess.Destroy(); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/login")
	}

	c.Locals(usercontext.KeyFromProtected, false)

	fm = fiber.Map{
		"type":    "success",
		"message": "See you soon!",
	}

	return flash.WithSuccess(c, fm).Redirect("/login")
}

func startSession(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}

	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Name)

	return sess.Save()
}
