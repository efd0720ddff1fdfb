package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/billing"
)

// HandleCheckoutSubscription starts a Stripe checkout for a subscription
// license and returns the hosted checkout URL.
func HandleCheckoutSubscription(c *fiber.Ctx) error {
	return startCheckout(c, models.LICENSE_TYPE_SUBSCRIPTION)
}

// HandleCheckoutLifetime starts a Stripe checkout for a lifetime license.
func HandleCheckoutLifetime(c *fiber.Ctx) error {
	return startCheckout(c, models.LICENSE_TYPE_LIFETIME)
}

func startCheckout(c *fiber.Ctx, licenseType string) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "login required")
	}

	customerID, err := billing.EnsureCustomer(user)
	if err != nil {
		log.Errorf("[Billing] ensure customer for user %d failed: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "could not start checkout")
	}

	// Link the customer id before redirecting to Stripe, otherwise the
	// webhook cannot resolve the purchaser and no license is provisioned.
	if err := billingService().AttachCustomer(user, customerID); err != nil {
		log.Errorf("[Billing] persist customer id for user %d failed: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "could not start checkout")
	}

	checkoutURL, err := billing.CreateCheckoutSession(customerID, licenseType)
	if err != nil {
		log.Errorf("[Billing] checkout session for user %d failed: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "could not start checkout")
	}

	return c.JSON(fiber.Map{"checkout_url": checkoutURL})
}

// HandleBillingPortal returns a Stripe billing portal URL for the current user.
func HandleBillingPortal(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "login required")
	}

	if user.StripeCustomerID == "" {
		return jsonError(c, fiber.StatusNotFound, "no billing account")
	}

	portalURL, err := billing.CreatePortalSession(user.StripeCustomerID)
	if err != nil {
		log.Errorf("[Billing] portal session for user %d failed: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "could not open billing portal")
	}

	return c.JSON(fiber.Map{"portal_url": portalURL})
}

// HandleBillingSuccess is the checkout success landing page. The license
// itself is created by the webhook, not here.
func HandleBillingSuccess(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Payment received, your license will appear shortly"})
}

// HandleBillingCancel is the checkout cancel landing page.
func HandleBillingCancel(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Checkout cancelled"})
}
