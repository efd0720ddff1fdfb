package billing

import (
	"testing"

	"gorm.io/gorm"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/licensing"
)

type fakeRepo struct {
	events map[string]*models.BillingWebhookEvent
	nextID uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{events: make(map[string]*models.BillingWebhookEvent)}
}

func (f *fakeRepo) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	if stored, ok := f.events[event.StripeEventID]; ok {
		return false, stored, nil
	}
	f.nextID++
	event.ID = f.nextID
	f.events[event.StripeEventID] = event
	return true, event, nil
}

func (f *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range f.events {
		if e.ID == id {
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeUsers struct {
	byCustomer map[string]*models.User
	updated    []*models.User
}

func (f *fakeUsers) GetByStripeCustomerID(customerID string) (*models.User, error) {
	if u, ok := f.byCustomer[customerID]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) Update(user *models.User) error {
	f.updated = append(f.updated, user)
	if user.StripeCustomerID != "" {
		f.byCustomer[user.StripeCustomerID] = user
	}
	return nil
}

type fakeLicenses struct {
	created  []*models.License
	byStripe map[string]*models.License
	parked   []uint
}

func newFakeLicenses() *fakeLicenses {
	return &fakeLicenses{byStripe: make(map[string]*models.License)}
}

func (f *fakeLicenses) CreateParked(userID uint, licenseType, stripeID string) (*models.License, error) {
	l := models.NewParkedLicense(userID, licenseType, stripeID)
	l.ID = uint(len(f.created) + 1)
	f.created = append(f.created, l)
	f.byStripe[stripeID] = l
	return l, nil
}

func (f *fakeLicenses) Park(license *models.License) error {
	if license.IsParked() {
		return licensing.ErrAlreadyParked
	}
	license.Status = models.LICENSE_STATUS_PARKED
	license.AssignedGuildID = nil
	f.parked = append(f.parked, license.ID)
	return nil
}

func (f *fakeLicenses) FindByStripeID(stripeID string) (*models.License, error) {
	if l, ok := f.byStripe[stripeID]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestService() (*Service, *fakeUsers, *fakeLicenses) {
	users := &fakeUsers{byCustomer: map[string]*models.User{
		"cus_123": {ID: 7, Email: "owner@example.com"},
	}}
	licenses := newFakeLicenses()
	return NewService(newFakeRepo(), users, licenses), users, licenses
}

func TestRecordWebhookEventDeduplicates(t *testing.T) {
	svc, _, _ := newTestService()

	in := WebhookEventInput{StripeEventID: "evt_1", EventType: "customer.subscription.created", PayloadJSON: "{}", SignatureValid: true}

	created, event, err := svc.RecordWebhookEvent(in)
	if err != nil {
		t.Fatalf("RecordWebhookEvent: %v", err)
	}
	if !created || event == nil {
		t.Fatal("first delivery must be recorded as new")
	}

	created, _, err = svc.RecordWebhookEvent(in)
	if err != nil {
		t.Fatalf("RecordWebhookEvent: %v", err)
	}
	if created {
		t.Fatal("replayed delivery must not be recorded as new")
	}
}

func TestRecordWebhookEventRequiresID(t *testing.T) {
	svc, _, _ := newTestService()

	if _, _, err := svc.RecordWebhookEvent(WebhookEventInput{}); err == nil {
		t.Fatal("expected error for missing event id")
	}
}

func TestHandleSubscriptionCreated(t *testing.T) {
	svc, _, licenses := newTestService()

	license, err := svc.HandleSubscriptionCreated("cus_123", "sub_abc")
	if err != nil {
		t.Fatalf("HandleSubscriptionCreated: %v", err)
	}
	if license == nil {
		t.Fatal("expected a license to be provisioned")
	}
	if license.UserID != 7 || license.Type != models.LICENSE_TYPE_SUBSCRIPTION || !license.IsParked() {
		t.Fatalf("license = %+v, want parked subscription for user 7", license)
	}
	if len(licenses.created) != 1 {
		t.Fatalf("created %d licenses, want 1", len(licenses.created))
	}
}

func TestHandleSubscriptionCreatedUnknownCustomer(t *testing.T) {
	svc, _, licenses := newTestService()

	license, err := svc.HandleSubscriptionCreated("cus_unknown", "sub_abc")
	if err != nil {
		t.Fatalf("HandleSubscriptionCreated: %v", err)
	}
	if license != nil || len(licenses.created) != 0 {
		t.Fatal("unknown customer must not provision a license")
	}
}

func TestHandleCheckoutCompletedLifetimeOnly(t *testing.T) {
	svc, _, licenses := newTestService()

	license, err := svc.HandleCheckoutCompleted("cus_123", "pi_abc", models.LICENSE_TYPE_SUBSCRIPTION)
	if err != nil {
		t.Fatalf("HandleCheckoutCompleted: %v", err)
	}
	if license != nil {
		t.Fatal("subscription checkouts are handled by the subscription event")
	}

	license, err = svc.HandleCheckoutCompleted("cus_123", "pi_abc", models.LICENSE_TYPE_LIFETIME)
	if err != nil {
		t.Fatalf("HandleCheckoutCompleted: %v", err)
	}
	if license == nil || license.Type != models.LICENSE_TYPE_LIFETIME {
		t.Fatalf("license = %+v, want parked lifetime license", license)
	}
	if len(licenses.created) != 1 {
		t.Fatalf("created %d licenses, want 1", len(licenses.created))
	}
}

func TestHandleSubscriptionDeletedParksLicense(t *testing.T) {
	svc, _, licenses := newTestService()

	license, err := svc.HandleSubscriptionCreated("cus_123", "sub_abc")
	if err != nil {
		t.Fatalf("HandleSubscriptionCreated: %v", err)
	}
	guildID := uint(3)
	license.Status = models.LICENSE_STATUS_ACTIVE
	license.AssignedGuildID = &guildID

	if err := svc.HandleSubscriptionDeleted("sub_abc"); err != nil {
		t.Fatalf("HandleSubscriptionDeleted: %v", err)
	}
	if !license.IsParked() {
		t.Fatal("cancelled subscription license must be parked")
	}
	if len(licenses.parked) != 1 {
		t.Fatalf("parked %d licenses, want 1", len(licenses.parked))
	}

	// Already parked and unknown subscriptions are tolerated.
	if err := svc.HandleSubscriptionDeleted("sub_abc"); err != nil {
		t.Fatalf("HandleSubscriptionDeleted (already parked): %v", err)
	}
	if err := svc.HandleSubscriptionDeleted("sub_missing"); err != nil {
		t.Fatalf("HandleSubscriptionDeleted (missing): %v", err)
	}
}

func TestAttachCustomerPersistsNewID(t *testing.T) {
	svc, users, _ := newTestService()
	user := &models.User{ID: 9, Email: "buyer@example.com"}

	if err := svc.AttachCustomer(user, "cus_new"); err != nil {
		t.Fatalf("AttachCustomer: %v", err)
	}
	if user.StripeCustomerID != "cus_new" {
		t.Fatalf("StripeCustomerID = %q, want cus_new", user.StripeCustomerID)
	}
	if len(users.updated) != 1 {
		t.Fatalf("updated %d users, want 1", len(users.updated))
	}

	// The linkage is what the webhook resolves the purchaser through.
	license, err := svc.HandleSubscriptionCreated("cus_new", "sub_new")
	if err != nil {
		t.Fatalf("HandleSubscriptionCreated: %v", err)
	}
	if license == nil || license.UserID != 9 {
		t.Fatalf("license = %+v, want parked license for user 9", license)
	}
}

func TestAttachCustomerSkipsUnchangedID(t *testing.T) {
	svc, users, _ := newTestService()
	user := &models.User{ID: 9, StripeCustomerID: "cus_existing"}

	if err := svc.AttachCustomer(user, "cus_existing"); err != nil {
		t.Fatalf("AttachCustomer: %v", err)
	}
	if len(users.updated) != 0 {
		t.Fatalf("updated %d users, want 0", len(users.updated))
	}

	if err := svc.AttachCustomer(user, ""); err == nil {
		t.Fatal("expected error for empty customer id")
	}
}
