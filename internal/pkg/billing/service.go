package billing

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/licensing"
)

// LicenseService is the slice of the licensing service the billing layer
// drives: provisioning parked licenses on purchase and parking them on
// cancellation.
type LicenseService interface {
	CreateParked(userID uint, licenseType, stripeID string) (*models.License, error)
	Park(license *models.License) error
	FindByStripeID(stripeID string) (*models.License, error)
}

// UserStore resolves Stripe customers to local accounts and persists the
// customer linkage.
type UserStore interface {
	GetByStripeCustomerID(customerID string) (*models.User, error)
	Update(user *models.User) error
}

// Service connects Stripe billing events to the license lifecycle.
type Service struct {
	repo     Repository
	users    UserStore
	licenses LicenseService
}

// NewService creates a billing service from injected collaborators.
func NewService(repo Repository, users UserStore, licenses LicenseService) *Service {
	return &Service{repo: repo, users: users, licenses: licenses}
}

// AttachCustomer stores a newly issued Stripe customer id on the user. The
// webhook handlers resolve customers through this linkage, so a checkout
// must not proceed with an id that only lives in request memory.
func (s *Service) AttachCustomer(user *models.User, customerID string) error {
	if customerID == "" {
		return errors.New("customer id is required")
	}
	if user.StripeCustomerID == customerID {
		return nil
	}
	user.StripeCustomerID = customerID
	return s.users.Update(user)
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	StripeEventID  string
	EventType      string
	PayloadJSON    string
	SignatureValid bool
}

// RecordWebhookEvent persists webhook payloads idempotently. The returned
// bool is false when the event was already recorded and must not be
// processed again.
func (s *Service) RecordWebhookEvent(in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	eventID := strings.TrimSpace(in.StripeEventID)
	if eventID == "" {
		return false, nil, errors.New("stripe_event_id is required")
	}

	event := &models.BillingWebhookEvent{
		StripeEventID:  eventID,
		EventType:      strings.TrimSpace(in.EventType),
		PayloadJSON:    in.PayloadJSON,
		SignatureValid: in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(webhookEventID uint, processingErr error) error {
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// HandleSubscriptionCreated provisions a parked subscription license for the
// Stripe customer. Unknown customers are skipped, not failed: the webhook can
// arrive before the local account linkage exists.
func (s *Service) HandleSubscriptionCreated(customerID, subscriptionID string) (*models.License, error) {
	user, err := s.users.GetByStripeCustomerID(customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Billing] subscription %s for unknown customer %s, skipping", subscriptionID, customerID)
			return nil, nil
		}
		return nil, err
	}

	return s.licenses.CreateParked(user.ID, models.LICENSE_TYPE_SUBSCRIPTION, subscriptionID)
}

// HandleCheckoutCompleted provisions a parked lifetime license when a
// checkout session completes. Subscription checkouts are ignored here: the
// subscription-created event already covers them.
func (s *Service) HandleCheckoutCompleted(customerID, paymentIntentID, licenseType string) (*models.License, error) {
	if licenseType != models.LICENSE_TYPE_LIFETIME {
		return nil, nil
	}

	user, err := s.users.GetByStripeCustomerID(customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Billing] checkout for unknown customer %s, skipping", customerID)
			return nil, nil
		}
		return nil, err
	}

	return s.licenses.CreateParked(user.ID, models.LICENSE_TYPE_LIFETIME, paymentIntentID)
}

// HandleSubscriptionDeleted parks the license backing a cancelled
// subscription so the guild loses its entitlement.
func (s *Service) HandleSubscriptionDeleted(subscriptionID string) error {
	license, err := s.licenses.FindByStripeID(subscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Billing] cancelled subscription %s has no license, skipping", subscriptionID)
			return nil
		}
		return err
	}

	if err := s.licenses.Park(license); err != nil && !errors.Is(err, licensing.ErrAlreadyParked) {
		return err
	}
	return nil
}
