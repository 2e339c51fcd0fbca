package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/idgateway/internal/model"
	"github.com/mcoot/idgateway/internal/storage"
)

// Storage is an in-memory implementation of the user and session stores
type Storage struct {
	mu sync.RWMutex

	users        []*model.UserRecord
	sessions     map[model.SessionID]*model.Session
	pendingAuths map[string]*model.PendingAuth
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions:     make(map[model.SessionID]*model.Session),
		pendingAuths: make(map[string]*model.PendingAuth),
	}
}

// Ensure Storage implements the interfaces
var (
	_ storage.UserStore    = (*Storage)(nil)
	_ storage.SessionStore = (*Storage)(nil)
)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = model.UserID(uuid.NewString())
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	stored := *user
	s.users = append(s.users, &stored)
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			found := *u
			return &found, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (s *Storage) FindUserByEmail(ctx context.Context, email string) (*model.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (s *Storage) CountUsersByEmail(ctx context.Context, email string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if u.Email == email {
			n++
		}
	}
	return n, nil
}

// Users returns a copy of every stored record in insertion order
func (s *Storage) Users() []model.UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]model.UserRecord, len(s.users))
	for i, u := range s.users {
		result[i] = *u
	}
	return result
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Pending authorization operations

func (s *Storage) SavePendingAuth(ctx context.Context, pending *model.PendingAuth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingAuths[pending.State] = pending
	return nil
}

func (s *Storage) TakePendingAuth(ctx context.Context, state string) (*model.PendingAuth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.pendingAuths[state]
	if !ok {
		return nil, model.ErrPendingAuthNotFound
	}
	delete(s.pendingAuths, state)
	return pending, nil
}

func (s *Storage) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	for state, pending := range s.pendingAuths {
		if pending.Expired(now) {
			delete(s.pendingAuths, state)
			removed++
		}
	}
	return removed, nil
}
