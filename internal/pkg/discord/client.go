package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const defaultAPIBaseURL = "https://discord.com/api/v10"

// Permission bits from the Discord permissions bitfield that qualify a member
// as a guild admin for licensing purposes.
const (
	PermissionAdministrator = 1 << 3
	PermissionManageGuild   = 1 << 5
)

// Client talks to the Discord REST API on behalf of an OAuth-authenticated
// user.
type Client struct {
	APIBaseURL string
	HTTPClient *http.Client
}

// NewClient creates a Discord API client with sane timeouts.
func NewClient() *Client {
	return &Client{
		APIBaseURL: defaultAPIBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// UserGuild is one entry of the authenticated user's guild list.
type UserGuild struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Owner       bool   `json:"owner"`
	Permissions string `json:"permissions"`
}

// IsAdmin reports whether the member may manage the guild: owners and members
// holding ADMINISTRATOR or MANAGE_GUILD qualify.
func (g UserGuild) IsAdmin() bool {
	if g.Owner {
		return true
	}
	perms, err := strconv.ParseUint(g.Permissions, 10, 64)
	if err != nil {
		return false
	}
	return perms&PermissionAdministrator != 0 || perms&PermissionManageGuild != 0
}

// IconURL returns the CDN URL of the guild icon, or empty if it has none.
func (g UserGuild) IconURL() string {
	if g.Icon == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/icons/%s/%s.png", g.ID, g.Icon)
}

// FetchUserGuilds lists the guilds of the user the access token belongs to.
func (c *Client) FetchUserGuilds(ctx context.Context, accessToken string) ([]UserGuild, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBaseURL+"/users/@me/guilds", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord guilds request failed: status %d: %s", resp.StatusCode, string(body))
	}

	var guilds []UserGuild
	if err := json.Unmarshal(body, &guilds); err != nil {
		return nil, fmt.Errorf("discord guilds response invalid: %w", err)
	}
	return guilds, nil
}
