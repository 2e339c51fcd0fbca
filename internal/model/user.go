package model

import "time"

// UserID identifies a stored user record
type UserID string

// UserRecord is a persisted user document.
// Every identity field is optional and none of them is unique at the storage layer.
type UserRecord struct {
	ID        UserID    `json:"id" bson:"-"`
	Username  string    `json:"username,omitempty" bson:"username,omitempty"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty"`
	Password  string    `json:"-" bson:"password,omitempty"` // bcrypt hash
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
}

// Principal is the authenticated identity held in a session after a provider callback
type Principal struct {
	Provider string `json:"provider"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	UserID   UserID `json:"user_id,omitempty"` // set when the provider links to a stored record
}

// PrincipalFromRecord builds a principal for a record found or created during a callback
func PrincipalFromRecord(provider string, rec *UserRecord) *Principal {
	return &Principal{
		Provider: provider,
		Username: rec.Username,
		Email:    rec.Email,
		UserID:   rec.ID,
	}
}

// DisplayName returns the username carried by the principal, or "" when the provider only supplied an email
func (p *Principal) DisplayName() string {
	if p == nil {
		return ""
	}
	return p.Username
}
