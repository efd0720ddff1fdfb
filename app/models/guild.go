package models

import "time"

// Guild mirrors a Discord server the bot can be licensed for.
type Guild struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DiscordID string    `gorm:"type:varchar(32);not null;uniqueIndex" json:"discord_id"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	IconURL   string    `gorm:"type:varchar(255);default:null" json:"icon_url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
