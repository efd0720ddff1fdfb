package licensing

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
)

// Repository provides the persistence operations the licensing service and
// policy need. Keeping it an interface keeps the lifecycle rules testable
// without a database.
type Repository interface {
	CreateLicense(license *models.License) error
	GetLicense(id uint) (*models.License, error)
	GetLicenseByStripeID(stripeID string) (*models.License, error)
	ListLicensesByUser(userID uint) ([]models.License, error)
	ListActiveLicenses() ([]models.License, error)
	DeleteLicense(id uint) error

	GetGuild(id uint) (*models.Guild, error)
	// GuildHasActiveLicense reports whether any active license other than
	// excludeLicenseID is assigned to the guild. Pass 0 to exclude none.
	GuildHasActiveLicense(guildID, excludeLicenseID uint) (bool, error)
	IsGuildAdmin(userID, guildID uint) (bool, error)
	ListAvailableGuilds(userID uint) ([]models.Guild, error)

	// Assign re-checks guild exclusivity and writes the assignment inside a
	// single atomic unit, so two concurrent assignments to the same guild
	// cannot both commit. On success the license fields are updated in place.
	Assign(license *models.License, guildID uint, assignedAt time.Time) error
	// Park clears the assignment and updates the license in place.
	Park(license *models.License) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a licensing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateLicense(license *models.License) error {
	return r.db.Create(license).Error
}

func (r *gormRepository) GetLicense(id uint) (*models.License, error) {
	var license models.License
	if err := r.db.First(&license, id).Error; err != nil {
		return nil, err
	}
	return &license, nil
}

func (r *gormRepository) GetLicenseByStripeID(stripeID string) (*models.License, error) {
	var license models.License
	if err := r.db.Where("stripe_id = ?", stripeID).First(&license).Error; err != nil {
		return nil, err
	}
	return &license, nil
}

func (r *gormRepository) ListLicensesByUser(userID uint) ([]models.License, error) {
	var licenses []models.License
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&licenses).Error
	return licenses, err
}

func (r *gormRepository) ListActiveLicenses() ([]models.License, error) {
	var licenses []models.License
	err := r.db.Where("status = ?", models.LICENSE_STATUS_ACTIVE).Find(&licenses).Error
	return licenses, err
}

func (r *gormRepository) DeleteLicense(id uint) error {
	return r.db.Delete(&models.License{}, id).Error
}

func (r *gormRepository) GetGuild(id uint) (*models.Guild, error) {
	var guild models.Guild
	if err := r.db.First(&guild, id).Error; err != nil {
		return nil, err
	}
	return &guild, nil
}

func (r *gormRepository) GuildHasActiveLicense(guildID, excludeLicenseID uint) (bool, error) {
	var count int64
	query := r.db.Model(&models.License{}).
		Where("assigned_guild_id = ? AND status = ?", guildID, models.LICENSE_STATUS_ACTIVE)
	if excludeLicenseID > 0 {
		query = query.Where("id <> ?", excludeLicenseID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormRepository) IsGuildAdmin(userID, guildID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.GuildUser{}).
		Where("user_id = ? AND guild_id = ? AND is_admin = ?", userID, guildID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormRepository) ListAvailableGuilds(userID uint) ([]models.Guild, error) {
	var guilds []models.Guild
	err := r.db.
		Joins("JOIN guild_users ON guild_users.guild_id = guilds.id").
		Where("guild_users.user_id = ? AND guild_users.is_admin = ?", userID, true).
		Where("guilds.id NOT IN (?)", r.db.Model(&models.License{}).
			Select("assigned_guild_id").
			Where("status = ? AND assigned_guild_id IS NOT NULL", models.LICENSE_STATUS_ACTIVE)).
		Order("guilds.name ASC").
		Find(&guilds).Error
	return guilds, err
}

func (r *gormRepository) Assign(license *models.License, guildID uint, assignedAt time.Time) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Lock the guild row so concurrent assignments to the same guild
		// serialize here, then re-check exclusivity before writing.
		var guild models.Guild
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&guild, guildID).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.License{}).
			Where("assigned_guild_id = ? AND status = ? AND id <> ?",
				guildID, models.LICENSE_STATUS_ACTIVE, license.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrGuildAlreadyLicensed
		}

		return tx.Model(&models.License{}).
			Where("id = ?", license.ID).
			Updates(map[string]interface{}{
				"status":            models.LICENSE_STATUS_ACTIVE,
				"assigned_guild_id": guildID,
				"last_assigned_at":  assignedAt,
			}).Error
	})
	if err != nil {
		return err
	}

	license.Status = models.LICENSE_STATUS_ACTIVE
	license.AssignedGuildID = &guildID
	license.LastAssignedAt = &assignedAt
	return nil
}

func (r *gormRepository) Park(license *models.License) error {
	err := r.db.Model(&models.License{}).
		Where("id = ?", license.ID).
		Updates(map[string]interface{}{
			"status":            models.LICENSE_STATUS_PARKED,
			"assigned_guild_id": nil,
		}).Error
	if err != nil {
		return err
	}

	license.Status = models.LICENSE_STATUS_PARKED
	license.AssignedGuildID = nil
	return nil
}
