package provider

import (
	"golang.org/x/oauth2"

	"github.com/mcoot/idgateway/internal/config"
)

var discordEndpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

const discordProfileURL = "https://discord.com/api/users/@me"

// DiscordPolicy links the principal to a stored record found or created by email
var DiscordPolicy = Policy{
	Identity:    IdentityEmail,
	Link:        true,
	FailurePath: "/",
}

type discordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

// NewDiscord creates the Discord adapter
func NewDiscord(opts Options) Strategy {
	return newOAuthStrategy(config.ProviderDiscord, DiscordPolicy, opts,
		discordEndpoint, discordProfileURL,
		[]string{"identify", "email"},
		func(body []byte) (*Profile, error) {
			u, err := decode[discordUser](body)
			if err != nil {
				return nil, err
			}
			p := &Profile{ProviderUserID: u.ID, Username: u.Username}
			if u.Email != "" && u.Verified {
				p.Emails = []string{u.Email}
			}
			return p, nil
		})
}
