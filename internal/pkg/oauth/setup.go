package oauth

import (
	"net"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/middleware/session"
	redisstorage "github.com/gofiber/storage/redis"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/cache"
	"github.com/FlorianSchwab/GuildKeeper/internal/pkg/env"
)

// Setup initializes the Discord Goth provider and session store based on
// environment variables. It is safe to call multiple times; the provider will
// just be re-registered. The guilds scope is required to read the roster for
// admin checks.
func Setup() {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}

	goth.UseProviders(
		discord.New(
			env.GetEnv("DISCORD_KEY", ""),
			env.GetEnv("DISCORD_SECRET", ""),
			base+"/auth/discord/callback",
			discord.ScopeIdentify, discord.ScopeEmail, discord.ScopeGuilds,
		),
	)

	// OAuth state via Redis, using same connection as app sessions (separate DB)
	cacheClient := cache.GetClient()
	host, port := "127.0.0.1", 6379
	if opts := cacheClient.Options(); opts != nil && opts.Addr != "" {
		if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
			host = h
			if parsed, e := strconv.Atoi(p); e == nil {
				port = parsed
			}
		}
	}

	storage := redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		Database: 2, // separate DB for OAuth state
	})

	gothfiber.SessionStore = session.New(session.Config{
		Storage:        storage,
		KeyLookup:      "cookie:oauth_session",
		CookieHTTPOnly: true,
	})
}
