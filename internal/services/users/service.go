package users

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/idgateway/internal/events"
	"github.com/mcoot/idgateway/internal/model"
	"github.com/mcoot/idgateway/internal/storage"
)

// Config holds configuration for the users service
type Config struct {
	// DedupeByEmail makes every write path reuse the earliest record with the same email
	// instead of inserting another one
	DedupeByEmail bool

	BcryptCost int
}

// DefaultConfig returns default users configuration
func DefaultConfig() Config {
	return Config{
		DedupeByEmail: false,
		BcryptCost:    bcrypt.DefaultCost,
	}
}

// StoreInput is the body accepted by Store
type StoreInput struct {
	Username string
	Email    string
	Password string
}

// Service writes user records and announces new ones
type Service struct {
	store     storage.UserStore
	publisher events.Publisher
	logger    *slog.Logger
	cfg       Config

	// serializes find-or-create within this process
	linkMu sync.Mutex
}

// New creates a new users Service
func New(store storage.UserStore, publisher events.Publisher, logger *slog.Logger, cfg Config) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultConfig().BcryptCost
	}
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
	}
}

// Store persists a full record. A non-empty password is stored as a bcrypt hash.
func (s *Service) Store(ctx context.Context, in StoreInput) (*model.UserRecord, error) {
	rec := &model.UserRecord{
		Username: in.Username,
		Email:    in.Email,
	}

	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
		if err != nil {
			return nil, err
		}
		rec.Password = string(hash)
	}

	return s.write(ctx, rec, events.SourceStore)
}

// AddEmail persists an email-only record, rejecting an absent or empty email
func (s *Service) AddEmail(ctx context.Context, email string) (*model.UserRecord, error) {
	if email == "" {
		return nil, model.ErrEmailRequired
	}
	return s.write(ctx, &model.UserRecord{Email: email}, events.SourceAddEmail)
}

// SaveUserData persists an email-only record without validating it
func (s *Service) SaveUserData(ctx context.Context, email string) (*model.UserRecord, error) {
	return s.write(ctx, &model.UserRecord{Email: email}, events.SourceSaveUserData)
}

// FindOrCreateByEmail returns the earliest record with the email, creating one
// with the given username when none exists. created reports whether a record was inserted.
func (s *Service) FindOrCreateByEmail(ctx context.Context, email, username, source string) (rec *model.UserRecord, created bool, err error) {
	if email == "" {
		return nil, false, model.ErrEmailRequired
	}
	return s.findOrCreate(ctx, &model.UserRecord{Email: email, Username: username}, source)
}

func (s *Service) write(ctx context.Context, rec *model.UserRecord, source string) (*model.UserRecord, error) {
	if s.cfg.DedupeByEmail && rec.Email != "" {
		existing, _, err := s.findOrCreate(ctx, rec, source)
		return existing, err
	}
	if err := s.insert(ctx, rec, source); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) findOrCreate(ctx context.Context, rec *model.UserRecord, source string) (*model.UserRecord, bool, error) {
	s.linkMu.Lock()
	defer s.linkMu.Unlock()

	existing, err := s.store.FindUserByEmail(ctx, rec.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, false, err
	}

	if err := s.insert(ctx, rec, source); err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (s *Service) insert(ctx context.Context, rec *model.UserRecord, source string) error {
	if err := s.store.SaveUser(ctx, rec); err != nil {
		s.logger.Error("failed to save user",
			slog.String("source", source),
			slog.String("error", err.Error()))
		return err
	}

	s.logger.Info("user stored",
		slog.String("user_id", string(rec.ID)),
		slog.String("source", source))

	if err := s.publisher.UserCreated(ctx, rec, source); err != nil {
		s.logger.Warn("failed to publish user created event",
			slog.String("user_id", string(rec.ID)),
			slog.String("error", err.Error()))
	}
	return nil
}
