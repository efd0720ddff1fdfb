package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LICENSE_TYPE_SUBSCRIPTION = "subscription"
	LICENSE_TYPE_LIFETIME     = "lifetime"

	LICENSE_STATUS_ACTIVE = "active"
	LICENSE_STATUS_PARKED = "parked"
)

// TransferCooldown is the minimum interval between successive assignments
// of the same license.
const TransferCooldown = 30 * 24 * time.Hour

// License is a billing entitlement granting bot access to one guild at a time.
// A license is created parked by the billing layer and only ever mutated
// through the licensing service's Assign and Park operations. The owner never
// changes after creation.
type License struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UUID            string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"uuid"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	Type            string     `gorm:"type:varchar(20);not null" json:"type"`
	Status          string     `gorm:"type:varchar(20);not null;default:'parked';index" json:"status"`
	AssignedGuildID *uint      `gorm:"default:null;index" json:"assigned_guild_id"`
	LastAssignedAt  *time.Time `gorm:"type:timestamp;default:null" json:"last_assigned_at"`
	StripeID        string     `gorm:"type:varchar(191);not null;index" json:"-"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewParkedLicense builds an unassigned license owned by the purchasing user.
func NewParkedLicense(userID uint, licenseType, stripeID string) *License {
	return &License{
		UUID:     uuid.NewString(),
		UserID:   userID,
		Type:     licenseType,
		Status:   LICENSE_STATUS_PARKED,
		StripeID: stripeID,
	}
}

func (l *License) BeforeCreate(tx *gorm.DB) error {
	if l.UUID == "" {
		l.UUID = uuid.NewString()
	}
	return nil
}

// IsActive reports whether the license is assigned to a guild.
func (l *License) IsActive() bool {
	return l.Status == LICENSE_STATUS_ACTIVE
}

// IsParked reports whether the license sits in the available pool.
func (l *License) IsParked() bool {
	return l.Status == LICENSE_STATUS_PARKED
}

// CanBeTransferred reports whether the transfer cooldown has elapsed at the
// given instant. A license that has never been assigned is always eligible.
// Exactly at the 30 day mark the cooldown is still in effect.
func (l *License) CanBeTransferred(now time.Time) bool {
	if l.LastAssignedAt == nil {
		return true
	}
	return now.After(l.LastAssignedAt.Add(TransferCooldown))
}

// TransferAvailableAt returns when the license becomes transferable again,
// or nil if it has never been assigned.
func (l *License) TransferAvailableAt() *time.Time {
	if l.LastAssignedAt == nil {
		return nil
	}
	t := l.LastAssignedAt.Add(TransferCooldown)
	return &t
}
