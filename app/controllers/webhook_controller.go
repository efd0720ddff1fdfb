package controllers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v81"

	"github.com/FlorianSchwab/GuildKeeper/app/repository"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/billing"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/database"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/licensing"
)

// HandleStripeWebhook verifies, records and processes incoming Stripe events.
// Replays of an already recorded event are acknowledged without reprocessing.
func HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()

	event, err := billing.VerifyWebhookSignature(payload, c.Get("Stripe-Signature"))
	if err != nil {
		log.Warnf("[Webhook] signature verification failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid signature"})
	}

	svc := billingService()

	created, record, err := svc.RecordWebhookEvent(billing.WebhookEventInput{
		StripeEventID:  event.ID,
		EventType:      string(event.Type),
		PayloadJSON:    string(payload),
		SignatureValid: true,
	})
	if err != nil {
		log.Errorf("[Webhook] record event %s failed: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not record event"})
	}
	if !created {
		return c.JSON(fiber.Map{"message": "event already processed"})
	}

	processErr := dispatchStripeEvent(svc, event)

	if err := svc.MarkWebhookProcessed(record.ID, processErr); err != nil {
		log.Errorf("[Webhook] mark event %s processed failed: %v", event.ID, err)
	}

	if processErr != nil {
		// A 5xx makes Stripe retry the delivery later.
		log.Errorf("[Webhook] processing event %s (%s) failed: %v", event.ID, event.Type, processErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event processing failed"})
	}

	return c.JSON(fiber.Map{"message": "ok"})
}

func dispatchStripeEvent(svc *billing.Service, event stripe.Event) error {
	switch event.Type {
	case "customer.subscription.created":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return err
		}
		customerID := ""
		if sub.Customer != nil {
			customerID = sub.Customer.ID
		}
		_, err := svc.HandleSubscriptionCreated(customerID, sub.ID)
		return err

	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return err
		}
		customerID := ""
		if sess.Customer != nil {
			customerID = sess.Customer.ID
		}
		paymentIntentID := ""
		if sess.PaymentIntent != nil {
			paymentIntentID = sess.PaymentIntent.ID
		}
		_, err := svc.HandleCheckoutCompleted(customerID, paymentIntentID, sess.Metadata["type"])
		return err

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return err
		}
		return svc.HandleSubscriptionDeleted(sub.ID)

	default:
		log.Infof("[Webhook] ignoring event type %s", event.Type)
		return nil
	}
}

func billingService() *billing.Service {
	db := database.GetDB()
	return billing.NewService(
		billing.NewRepository(db),
		repository.GetGlobalRepositories().User,
		licensing.NewServiceFromDB(db),
	)
}
