package discord

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserGuildIsAdmin(t *testing.T) {
	tests := []struct {
		name  string
		guild UserGuild
		want  bool
	}{
		{name: "owner", guild: UserGuild{Owner: true, Permissions: "0"}, want: true},
		{name: "administrator bit", guild: UserGuild{Permissions: "8"}, want: true},
		{name: "manage guild bit", guild: UserGuild{Permissions: "32"}, want: true},
		{name: "combined bits", guild: UserGuild{Permissions: "2147483647"}, want: true},
		{name: "plain member", guild: UserGuild{Permissions: "104324673"}, want: false},
		{name: "no permissions", guild: UserGuild{Permissions: "0"}, want: false},
		{name: "garbage permissions", guild: UserGuild{Permissions: "not-a-number"}, want: false},
	}

	for _, tt := range tests {
		if got := tt.guild.IsAdmin(); got != tt.want {
			t.Fatalf("%s: IsAdmin = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestUserGuildIconURL(t *testing.T) {
	g := UserGuild{ID: "123", Icon: "abc"}
	assert.Equal(t, "https://cdn.discordapp.com/icons/123/abc.png", g.IconURL())

	g.Icon = ""
	assert.Empty(t, g.IconURL())
}

func TestFetchUserGuilds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/@me/guilds", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"42","name":"Test Guild","icon":"xyz","owner":true,"permissions":"8"}]`))
	}))
	defer server.Close()

	client := NewClient()
	client.APIBaseURL = server.URL

	guilds, err := client.FetchUserGuilds(context.Background(), "token-123")
	assert.NoError(t, err)
	assert.Len(t, guilds, 1)
	assert.Equal(t, "42", guilds[0].ID)
	assert.True(t, guilds[0].IsAdmin())
}

func TestFetchUserGuildsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"401: Unauthorized"}`))
	}))
	defer server.Close()

	client := NewClient()
	client.APIBaseURL = server.URL

	_, err := client.FetchUserGuilds(context.Background(), "bad-token")
	assert.Error(t, err)
}
