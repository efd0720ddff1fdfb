package discord

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
	"github.com/FlorianSchwab/GuildKeeper/app/repository"
)

// SyncUserGuilds refreshes the local guild roster for a user from Discord.
// The membership pivot rows written here are the ground truth the licensing
// policy and the reconciliation sweep read from.
func SyncUserGuilds(ctx context.Context, client *Client, repo repository.GuildRepository, userID uint, accessToken string) error {
	guilds, err := client.FetchUserGuilds(ctx, accessToken)
	if err != nil {
		return err
	}

	keep := make([]uint, 0, len(guilds))
	for _, g := range guilds {
		guild := &models.Guild{
			DiscordID: g.ID,
			Name:      g.Name,
			IconURL:   g.IconURL(),
		}
		if err := repo.Upsert(guild); err != nil {
			log.Errorf("[Discord] upsert guild %s failed: %v", g.ID, err)
			continue
		}

		membership := &models.GuildUser{
			GuildID: guild.ID,
			UserID:  userID,
			IsAdmin: g.IsAdmin(),
		}
		if err := repo.UpsertMembership(membership); err != nil {
			log.Errorf("[Discord] upsert membership guild=%d user=%d failed: %v", guild.ID, userID, err)
			continue
		}
		keep = append(keep, guild.ID)
	}

	if err := repo.PruneMemberships(userID, keep); err != nil {
		return err
	}
	return nil
}
