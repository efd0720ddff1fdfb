package licensing

import (
	"errors"

	"gorm.io/gorm"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
)

// Expected negative outcomes of lifecycle transitions. Callers must treat
// these as client-correctable failures, not exceptional conditions.
var (
	ErrTransferCooldown     = errors.New("licensing: transfer cooldown has not elapsed")
	ErrGuildAlreadyLicensed = errors.New("licensing: guild already has an active license")
	ErrAlreadyParked        = errors.New("licensing: license is already parked")
)

// Service owns the license lifecycle state machine. Licenses are created
// parked and move between parked and active only through Assign and Park.
type Service struct {
	repo  Repository
	clock Clock
	sink  EventSink
}

// NewService creates a licensing service. A nil clock defaults to the system
// clock, a nil sink to the log sink.
func NewService(repo Repository, clock Clock, sink EventSink) *Service {
	if clock == nil {
		clock = SystemClock()
	}
	if sink == nil {
		sink = LogSink{}
	}
	return &Service{repo: repo, clock: clock, sink: sink}
}

// NewServiceFromDB creates a licensing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), nil, nil)
}

// Repository exposes the backing repository for read paths.
func (s *Service) Repository() Repository {
	return s.repo
}

// CreateParked creates an unassigned license for the purchasing user. This is
// the entry point used by the billing layer on checkout completion and
// subscription creation.
func (s *Service) CreateParked(userID uint, licenseType, stripeID string) (*models.License, error) {
	license := models.NewParkedLicense(userID, licenseType, stripeID)
	if err := s.repo.CreateLicense(license); err != nil {
		return nil, err
	}
	return license, nil
}

// FindByStripeID resolves a license by its Stripe reference, used by the
// billing layer when subscription events arrive.
func (s *Service) FindByStripeID(stripeID string) (*models.License, error) {
	return s.repo.GetLicenseByStripeID(stripeID)
}

// CanBeTransferred reports cooldown eligibility against the same clock the
// lifecycle decisions run on.
func (s *Service) CanBeTransferred(license *models.License) bool {
	return license.CanBeTransferred(s.clock.Now())
}

// Assign binds the license to the given guild, transferring it if it is
// currently active elsewhere. It fails with ErrTransferCooldown when the
// 30-day cooldown has not elapsed and with ErrGuildAlreadyLicensed when the
// target guild already holds another active license. The exclusivity check is
// re-evaluated atomically with the write by the repository, so the pre-check
// here only short-circuits the common case.
func (s *Service) Assign(license *models.License, guild *models.Guild) error {
	now := s.clock.Now()
	if !license.CanBeTransferred(now) {
		return ErrTransferCooldown
	}

	// Re-assigning to the guild the license is already active in is rejected:
	// that guild's active license set is not empty.
	if license.IsActive() && license.AssignedGuildID != nil && *license.AssignedGuildID == guild.ID {
		return ErrGuildAlreadyLicensed
	}

	taken, err := s.repo.GuildHasActiveLicense(guild.ID, license.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrGuildAlreadyLicensed
	}

	wasParked := license.IsParked()
	previousGuild := s.previousGuild(license)

	if err := s.repo.Assign(license, guild.ID, now); err != nil {
		return err
	}

	if wasParked {
		s.sink.Publish(LicenseAssigned{License: license, Guild: guild})
	} else {
		s.sink.Publish(LicenseTransferred{License: license, NewGuild: guild, PreviousGuild: previousGuild})
	}
	return nil
}

// Park unassigns the license from its guild, returning it to the available
// pool. Parking an already-parked license fails with ErrAlreadyParked and
// does not mutate state.
func (s *Service) Park(license *models.License) error {
	if license.IsParked() {
		return ErrAlreadyParked
	}

	previousGuild := s.previousGuild(license)

	if err := s.repo.Park(license); err != nil {
		return err
	}

	s.sink.Publish(LicenseParked{License: license, PreviousGuild: previousGuild})
	return nil
}

// Delete removes the license permanently. Lifecycle-wise this is terminal
// removal; authorization is the caller's concern.
func (s *Service) Delete(license *models.License) error {
	return s.repo.DeleteLicense(license.ID)
}

func (s *Service) previousGuild(license *models.License) *models.Guild {
	if license.AssignedGuildID == nil {
		return nil
	}
	guild, err := s.repo.GetGuild(*license.AssignedGuildID)
	if err != nil {
		// A dangling guild reference is not a reason to block the
		// transition; the event just carries no previous guild.
		return nil
	}
	return guild
}
