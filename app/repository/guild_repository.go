package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
)

// guildRepository implements the GuildRepository interface
type guildRepository struct {
	db *gorm.DB
}

// NewGuildRepository creates a new guild repository instance
func NewGuildRepository(db *gorm.DB) GuildRepository {
	return &guildRepository{db: db}
}

// GetByID retrieves a guild by its ID
func (r *guildRepository) GetByID(id uint) (*models.Guild, error) {
	var guild models.Guild
	err := r.db.First(&guild, id).Error
	if err != nil {
		return nil, err
	}
	return &guild, nil
}

// GetByDiscordID retrieves a guild by its Discord snowflake id
func (r *guildRepository) GetByDiscordID(discordID string) (*models.Guild, error) {
	var guild models.Guild
	err := r.db.Where("discord_id = ?", discordID).First(&guild).Error
	if err != nil {
		return nil, err
	}
	return &guild, nil
}

// Upsert creates or refreshes a guild keyed by its Discord id
func (r *guildRepository) Upsert(guild *models.Guild) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "discord_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"icon_url",
			"updated_at",
		}),
	}).Create(guild).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("discord_id = ?", guild.DiscordID).First(guild).Error
}

// UpsertMembership creates or refreshes a user's membership row for a guild
func (r *guildRepository) UpsertMembership(membership *models.GuildUser) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "guild_id"},
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_admin",
			"updated_at",
		}),
	}).Create(membership).Error
}

// PruneMemberships removes membership rows not present in the latest roster sync
func (r *guildRepository) PruneMemberships(userID uint, keepGuildIDs []uint) error {
	query := r.db.Where("user_id = ?", userID)
	if len(keepGuildIDs) > 0 {
		query = query.Where("guild_id NOT IN (?)", keepGuildIDs)
	}
	return query.Delete(&models.GuildUser{}).Error
}

// ListForUser retrieves all guilds the user is a member of
func (r *guildRepository) ListForUser(userID uint) ([]models.Guild, error) {
	var guilds []models.Guild
	err := r.db.
		Joins("JOIN guild_users ON guild_users.guild_id = guilds.id").
		Where("guild_users.user_id = ?", userID).
		Order("guilds.name ASC").
		Find(&guilds).Error
	return guilds, err
}

// IsAdmin reports whether the user is an admin member of the guild
func (r *guildRepository) IsAdmin(userID, guildID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.GuildUser{}).
		Where("user_id = ? AND guild_id = ? AND is_admin = ?", userID, guildID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
