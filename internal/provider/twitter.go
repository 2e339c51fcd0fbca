package provider

import (
	"golang.org/x/oauth2"

	"github.com/mcoot/idgateway/internal/config"
)

var twitterEndpoint = oauth2.Endpoint{
	AuthURL:   "https://twitter.com/i/oauth2/authorize",
	TokenURL:  "https://api.twitter.com/2/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

const twitterProfileURL = "https://api.twitter.com/2/users/me"

// TwitterPolicy keys the principal on username and never touches the user store
var TwitterPolicy = Policy{
	Identity:          IdentityUsername,
	EchoParam:         "username",
	FailureToFrontend: true,
}

type twitterUser struct {
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

// NewTwitter creates the Twitter/X OAuth 2.0 adapter
func NewTwitter(opts Options) Strategy {
	return newOAuthStrategy(config.ProviderTwitter, TwitterPolicy, opts,
		twitterEndpoint, twitterProfileURL,
		[]string{"users.read", "tweet.read"},
		func(body []byte) (*Profile, error) {
			u, err := decode[twitterUser](body)
			if err != nil {
				return nil, err
			}
			return &Profile{ProviderUserID: u.Data.ID, Username: u.Data.Username}, nil
		})
}
