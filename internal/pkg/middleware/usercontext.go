package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/session"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/usercontext"
)

// UserContextMiddleware resolves the session into a UserContext for every
// request and stores it in Locals for controllers and guards.
func UserContextMiddleware(c *fiber.Ctx) error {
	// Goth uses its own fiber session store on the OAuth routes. Skip the app
	// session there to prevent cross-store collisions.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		usercontext.SetUserContext(c, usercontext.UserContext{IsLoggedIn: false})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	userID, ok := sess.Get(usercontext.KeyUserID).(uint)
	if !ok || userID == 0 {
		usercontext.SetUserContext(c, usercontext.UserContext{IsLoggedIn: false})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	username, _ := sess.Get(usercontext.KeyUsername).(string)

	usercontext.SetUserContext(c, usercontext.UserContext{
		UserID:     userID,
		Username:   username,
		IsLoggedIn: true,
	})
	c.Locals(usercontext.KeyFromProtected, true)

	return c.Next()
}
