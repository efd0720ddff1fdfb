package licensing

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
)

// Reconciler re-validates every active license against the guild membership
// roster: licenses whose guild is gone, or whose owner lost admin rights,
// are force-parked. It acts as a system-level actor and bypasses the policy.
type Reconciler struct {
	repo Repository
	svc  *Service
}

// NewReconciler creates a reconciler over the given service.
func NewReconciler(svc *Service) *Reconciler {
	return &Reconciler{repo: svc.Repository(), svc: svc}
}

// ReconcileResult summarizes one sweep.
type ReconcileResult struct {
	Verified int
	Parked   int
	Failed   int
}

// Run performs one sweep. Individual license failures are logged and do not
// abort the sweep. Running it again on consistent data performs no mutations.
func (r *Reconciler) Run(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	licenses, err := r.repo.ListActiveLicenses()
	if err != nil {
		return result, err
	}

	for i := range licenses {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		license := &licenses[i]
		parked, err := r.reconcileOne(license)
		if err != nil {
			result.Failed++
			log.Errorf("[Licensing] reconcile license %d failed: %v", license.ID, err)
			continue
		}
		if parked {
			result.Parked++
		} else {
			result.Verified++
		}
	}

	return result, nil
}

func (r *Reconciler) reconcileOne(license *models.License) (bool, error) {
	if license.AssignedGuildID == nil {
		// Active without a guild violates the invariant; park to repair.
		log.Warnf("[Licensing] license %d active without guild, parking", license.ID)
		return true, r.parkIgnoringAlreadyParked(license)
	}

	if _, err := r.repo.GetGuild(*license.AssignedGuildID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Licensing] license %d references missing guild %d, parking", license.ID, *license.AssignedGuildID)
			return true, r.parkIgnoringAlreadyParked(license)
		}
		return false, err
	}

	admin, err := r.repo.IsGuildAdmin(license.UserID, *license.AssignedGuildID)
	if err != nil {
		return false, err
	}
	if !admin {
		log.Warnf("[Licensing] user %d no longer admin of guild %d, parking license %d",
			license.UserID, *license.AssignedGuildID, license.ID)
		return true, r.parkIgnoringAlreadyParked(license)
	}

	return false, nil
}

func (r *Reconciler) parkIgnoringAlreadyParked(license *models.License) error {
	if err := r.svc.Park(license); err != nil && !errors.Is(err, ErrAlreadyParked) {
		return err
	}
	return nil
}

// Start runs the sweep on a ticker until the context is cancelled.
func (r *Reconciler) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				result, err := r.Run(ctx)
				if err != nil {
					log.Errorf("[Licensing] reconcile sweep failed: %v", err)
					continue
				}
				if result.Parked > 0 || result.Failed > 0 {
					log.Infof("[Licensing] reconcile sweep: verified=%d parked=%d failed=%d",
						result.Verified, result.Parked, result.Failed)
				}
			}
		}
	}()
}
