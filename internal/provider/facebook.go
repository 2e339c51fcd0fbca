package provider

import (
	"golang.org/x/oauth2/facebook"

	"github.com/mcoot/idgateway/internal/config"
)

const facebookProfileURL = "https://graph.facebook.com/me?fields=id,name,email"

// FacebookPolicy links the principal to a stored record found or created by email
var FacebookPolicy = Policy{
	Identity:    IdentityEmail,
	Link:        true,
	FailurePath: "/login",
}

type facebookUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewFacebook creates the Facebook adapter.
// The Graph API only returns confirmed emails, so any email present counts as verified.
func NewFacebook(opts Options) Strategy {
	return newOAuthStrategy(config.ProviderFacebook, FacebookPolicy, opts,
		facebook.Endpoint, facebookProfileURL,
		[]string{"email"},
		func(body []byte) (*Profile, error) {
			u, err := decode[facebookUser](body)
			if err != nil {
				return nil, err
			}
			p := &Profile{ProviderUserID: u.ID}
			if u.Email != "" {
				p.Emails = []string{u.Email}
			}
			return p, nil
		})
}
