package storage

import (
	"context"
	"time"

	"github.com/mcoot/idgateway/internal/model"
)

// UserStore persists user records.
// No field is unique: SaveUser always inserts a new record.
type UserStore interface {
	// SaveUser inserts a new record, assigning its ID and CreatedAt if unset
	SaveUser(ctx context.Context, user *model.UserRecord) error
	GetUser(ctx context.Context, id model.UserID) (*model.UserRecord, error)
	// FindUserByEmail returns the earliest inserted record with the given email
	FindUserByEmail(ctx context.Context, email string) (*model.UserRecord, error)
	CountUsersByEmail(ctx context.Context, email string) (int, error)
}

// SessionStore persists sessions and in-flight OAuth authorizations
type SessionStore interface {
	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	DeleteSession(ctx context.Context, id model.SessionID) error

	// Pending authorization operations
	SavePendingAuth(ctx context.Context, pending *model.PendingAuth) error
	// TakePendingAuth returns and removes the pending authorization for a state value
	TakePendingAuth(ctx context.Context, state string) (*model.PendingAuth, error)

	// DeleteExpired removes sessions and pending authorizations expired at now,
	// returning the number removed
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
