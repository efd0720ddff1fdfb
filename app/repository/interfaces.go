package repository

import (
	"github.com/FlorianSchwab/GuildKeeper/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByDiscordID(discordID string) (*models.User, error)
	GetByStripeCustomerID(customerID string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	Count() (int64, error)
}

// GuildRepository defines the interface for guild and membership operations
type GuildRepository interface {
	GetByID(id uint) (*models.Guild, error)
	GetByDiscordID(discordID string) (*models.Guild, error)
	Upsert(guild *models.Guild) error
	UpsertMembership(membership *models.GuildUser) error
	// PruneMemberships removes membership rows for the user that are not in
	// keepGuildIDs, used after a roster sync.
	PruneMemberships(userID uint, keepGuildIDs []uint) error
	ListForUser(userID uint) ([]models.Guild, error)
	IsAdmin(userID, guildID uint) (bool, error)
}
