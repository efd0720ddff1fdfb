package billing

import (
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v81"
	bpsession "github.com/stripe/stripe-go/v81/billingportal/session"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/env"
)

// SetupStripe configures the global Stripe client key from the environment.
func SetupStripe() {
	stripe.Key = env.GetEnv("STRIPE_SECRET_KEY", "")
}

// EnsureCustomer creates a Stripe customer for the user if none is linked yet
// and returns the customer id. The user record is not touched here; the
// caller links the id through Service.AttachCustomer so it survives the
// request.
func EnsureCustomer(user *models.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Name:  stripe.String(user.Name),
	}
	cus, err := customer.New(params)
	if err != nil {
		return "", err
	}
	return cus.ID, nil
}

// CreateCheckoutSession builds a Stripe Checkout session for the given
// license type and returns its redirect URL. The license type travels in the
// session metadata so the webhook can provision the right license.
func CreateCheckoutSession(customerID, licenseType string) (string, error) {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/")

	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(customerID),
		SuccessURL: stripe.String(base + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(base + "/billing/cancel"),
	}
	params.AddMetadata("type", licenseType)

	switch licenseType {
	case models.LICENSE_TYPE_SUBSCRIPTION:
		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(env.GetEnv("STRIPE_PRICE_SUBSCRIPTION", "")),
			Quantity: stripe.Int64(1),
		}}
	case models.LICENSE_TYPE_LIFETIME:
		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(env.GetEnv("STRIPE_PRICE_LIFETIME", "")),
			Quantity: stripe.Int64(1),
		}}
	default:
		return "", errors.New("unknown license type: " + licenseType)
	}

	sess, err := session.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// CreatePortalSession returns a Stripe billing portal URL for the customer.
func CreatePortalSession(customerID string) (string, error) {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/")

	sess, err := bpsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(base + "/dashboard"),
	})
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// VerifyWebhookSignature validates the Stripe-Signature header against the
// webhook signing secret and returns the parsed event.
func VerifyWebhookSignature(payload []byte, signatureHeader string) (stripe.Event, error) {
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	if secret == "" {
		return stripe.Event{}, errors.New("stripe webhook secret not configured")
	}
	return webhook.ConstructEvent(payload, signatureHeader, secret)
}
