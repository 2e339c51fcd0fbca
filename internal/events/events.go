// Package events publishes notifications about user records to a message bus.
package events

import (
	"context"
	"time"

	"github.com/mcoot/idgateway/internal/model"
)

// Sources of user creation from the write routes, carried in the event payload.
// Records linked during a provider callback carry the provider name instead.
const (
	SourceStore        = "store"
	SourceAddEmail     = "addemail"
	SourceSaveUserData = "save-user-data"
)

// UserCreatedEvent is the payload published when a user record is inserted
type UserCreatedEvent struct {
	ID        model.UserID `json:"id"`
	Email     string       `json:"email,omitempty"`
	Username  string       `json:"username,omitempty"`
	Source    string       `json:"source"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewUserCreatedEvent builds the payload for a freshly stored record
func NewUserCreatedEvent(rec *model.UserRecord, source string) UserCreatedEvent {
	return UserCreatedEvent{
		ID:        rec.ID,
		Email:     rec.Email,
		Username:  rec.Username,
		Source:    source,
		CreatedAt: rec.CreatedAt,
	}
}

// Publisher delivers user lifecycle events
type Publisher interface {
	UserCreated(ctx context.Context, rec *model.UserRecord, source string) error
	Close()
}

// Nop discards all events
type Nop struct{}

// UserCreated does nothing
func (Nop) UserCreated(context.Context, *model.UserRecord, string) error {
	return nil
}

// Close does nothing
func (Nop) Close() {}

var _ Publisher = Nop{}
