package provider

import (
	"golang.org/x/oauth2/google"

	"github.com/mcoot/idgateway/internal/config"
)

const googleProfileURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GooglePolicy keys the principal on email without storing it
var GooglePolicy = Policy{
	Identity:    IdentityEmail,
	EchoParam:   "email",
	FailurePath: "/",
}

type googleUser struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// NewGoogle creates the Google adapter
func NewGoogle(opts Options) Strategy {
	return newOAuthStrategy(config.ProviderGoogle, GooglePolicy, opts,
		google.Endpoint, googleProfileURL,
		[]string{"profile", "email"},
		func(body []byte) (*Profile, error) {
			u, err := decode[googleUser](body)
			if err != nil {
				return nil, err
			}
			p := &Profile{ProviderUserID: u.Sub, Username: u.Name}
			if u.Email != "" && u.EmailVerified {
				p.Emails = []string{u.Email}
			}
			return p, nil
		})
}
