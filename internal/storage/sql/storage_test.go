package sql

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/idgateway/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	// Shared-cache in-memory database, unique per test
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"

	storage, err := Open(Config{Driver: DriverSQLite, DSN: dsn})
	s.Require().NoError(err)

	s.storage = storage
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *StorageSuite) TestOpenRejectsUnknownDriver() {
	_, err := Open(Config{Driver: "oracle", DSN: "x"})
	s.Error(err)
}

func (s *StorageSuite) TestSaveUserAssignsIDAndCreatedAt() {
	user := &model.UserRecord{Username: "alice", Password: "hash"}

	err := s.storage.SaveUser(s.ctx, user)

	s.Require().NoError(err)
	s.NotEmpty(user.ID)
	s.False(user.CreatedAt.IsZero())
}

func (s *StorageSuite) TestSaveAndGetUser() {
	user := &model.UserRecord{Username: "alice", Email: "alice@x.com", Password: "hash"}
	s.Require().NoError(s.storage.SaveUser(s.ctx, user))

	retrieved, err := s.storage.GetUser(s.ctx, user.ID)

	s.Require().NoError(err)
	s.Equal("alice", retrieved.Username)
	s.Equal("alice@x.com", retrieved.Email)
	s.Equal("hash", retrieved.Password)
}

func (s *StorageSuite) TestGetUserNotFound() {
	_, err := s.storage.GetUser(s.ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestDuplicateEmailsAreKept() {
	s.Require().NoError(s.storage.SaveUser(s.ctx, &model.UserRecord{Email: "bob@x.com"}))
	s.Require().NoError(s.storage.SaveUser(s.ctx, &model.UserRecord{Email: "bob@x.com"}))

	n, err := s.storage.CountUsersByEmail(s.ctx, "bob@x.com")

	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *StorageSuite) TestFindUserByEmailReturnsEarliest() {
	first := &model.UserRecord{Username: "first", Email: "bob@x.com"}
	second := &model.UserRecord{Username: "second", Email: "bob@x.com"}
	s.Require().NoError(s.storage.SaveUser(s.ctx, first))
	s.Require().NoError(s.storage.SaveUser(s.ctx, second))

	found, err := s.storage.FindUserByEmail(s.ctx, "bob@x.com")

	s.Require().NoError(err)
	s.Equal(first.ID, found.ID)
}

func (s *StorageSuite) TestFindUserByEmailNotFound() {
	_, err := s.storage.FindUserByEmail(s.ctx, "nobody@x.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}
