package models

import "time"

// GuildUser is the explicit membership record between a user and a guild.
// Admin status lives on the pivot so the license rules never have to walk
// Discord's roster at decision time; the sync layer keeps it current.
type GuildUser struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GuildID   uint      `gorm:"not null;index:ux_guild_users_guild_user,unique,priority:1" json:"guild_id"`
	UserID    uint      `gorm:"not null;index:ux_guild_users_guild_user,unique,priority:2;index" json:"user_id"`
	IsAdmin   bool      `gorm:"not null;default:false;index" json:"is_admin"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
