package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/FlorianSchwab/GuildKeeper/app/controllers"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/middleware"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/oauth"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/session"
)

type HttpRouter struct {
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth provider
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Auth
	app.Post("/register", controllers.HandleAuthRegister)
	app.Post("/login", controllers.HandleAuthLogin)
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Discord OAuth
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Billing
	app.Post("/billing/checkout/subscription", middleware.RequireAuth, controllers.HandleCheckoutSubscription)
	app.Post("/billing/checkout/lifetime", middleware.RequireAuth, controllers.HandleCheckoutLifetime)
	app.Get("/billing/portal", middleware.RequireAuth, controllers.HandleBillingPortal)
	app.Get("/billing/success", controllers.HandleBillingSuccess)
	app.Get("/billing/cancel", controllers.HandleBillingCancel)

	// Stripe webhooks (no auth, signature-verified in controller)
	app.Post("/stripe/webhook", controllers.HandleStripeWebhook)
}
