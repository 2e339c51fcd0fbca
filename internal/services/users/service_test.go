package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/idgateway/internal/config"
	"github.com/mcoot/idgateway/internal/events"
	"github.com/mcoot/idgateway/internal/model"
	"github.com/mcoot/idgateway/internal/storage/memory"
	"github.com/mcoot/idgateway/internal/testutil"
)

type recordingPublisher struct {
	sources []string
	err     error
}

func (p *recordingPublisher) UserCreated(_ context.Context, _ *model.UserRecord, source string) error {
	p.sources = append(p.sources, source)
	return p.err
}

func (p *recordingPublisher) Close() {}

type failingStore struct {
	*memory.Storage
	err error
}

func (f *failingStore) SaveUser(context.Context, *model.UserRecord) error {
	return f.err
}

type ServiceSuite struct {
	suite.Suite
	storage   *memory.Storage
	publisher *recordingPublisher
	service   *Service
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.publisher = &recordingPublisher{}
	s.service = s.newService(Config{BcryptCost: bcrypt.MinCost})
	s.ctx = context.Background()
}

func (s *ServiceSuite) newService(cfg Config) *Service {
	return New(s.storage, s.publisher, testutil.NopLogger(), cfg)
}

// Store tests

func (s *ServiceSuite) TestStorePersistsFields() {
	rec, err := s.service.Store(s.ctx, StoreInput{Username: "bob", Email: "bob@x.com", Password: "pw"})
	s.Require().NoError(err)

	stored, err := s.storage.GetUser(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal("bob", stored.Username)
	s.Equal("bob@x.com", stored.Email)
}

func (s *ServiceSuite) TestStoreHashesPassword() {
	rec, _ := s.service.Store(s.ctx, StoreInput{Username: "bob", Password: "pw"})

	stored, _ := s.storage.GetUser(s.ctx, rec.ID)
	s.NotEqual("pw", stored.Password)
	s.True(verifyPassword(stored, "pw"))
	s.False(verifyPassword(stored, "wrong"))
}

func (s *ServiceSuite) TestStoreWithoutPasswordLeavesItEmpty() {
	rec, _ := s.service.Store(s.ctx, StoreInput{Username: "bob"})

	stored, _ := s.storage.GetUser(s.ctx, rec.ID)
	s.Empty(stored.Password)
	s.False(verifyPassword(stored, ""))
}

func (s *ServiceSuite) TestStorePublishesEvent() {
	_, _ = s.service.Store(s.ctx, StoreInput{Username: "bob"})
	s.Equal([]string{events.SourceStore}, s.publisher.sources)
}

func (s *ServiceSuite) TestPublishFailureDoesNotFailWrite() {
	s.publisher.err = errors.New("bus down")

	_, err := s.service.Store(s.ctx, StoreInput{Username: "bob"})

	s.NoError(err)
	s.Len(s.storage.Users(), 1)
}

func (s *ServiceSuite) TestStorageFailureIsReturned() {
	storeErr := errors.New("db down")
	svc := New(&failingStore{Storage: s.storage, err: storeErr}, s.publisher, nil, Config{BcryptCost: bcrypt.MinCost})

	_, err := svc.Store(s.ctx, StoreInput{Username: "bob"})

	s.ErrorIs(err, storeErr)
	s.Empty(s.publisher.sources)
}

// AddEmail tests

func (s *ServiceSuite) TestAddEmailRequiresEmail() {
	_, err := s.service.AddEmail(s.ctx, "")
	s.ErrorIs(err, model.ErrEmailRequired)
	s.Empty(s.storage.Users())
}

func (s *ServiceSuite) TestAddEmailKeepsWhitespaceEmail() {
	rec, err := s.service.AddEmail(s.ctx, "   ")
	s.Require().NoError(err)

	s.Equal("   ", rec.Email)
	s.Len(s.storage.Users(), 1)
}

func (s *ServiceSuite) TestAddEmailStoresEmailOnly() {
	rec, err := s.service.AddEmail(s.ctx, "bob@x.com")
	s.Require().NoError(err)

	s.Equal("bob@x.com", rec.Email)
	s.Empty(rec.Username)
	s.Equal([]string{events.SourceAddEmail}, s.publisher.sources)
}

// SaveUserData tests

func (s *ServiceSuite) TestSaveUserDataDoesNotValidate() {
	_, err := s.service.SaveUserData(s.ctx, "")
	s.NoError(err)
	s.Len(s.storage.Users(), 1)
}

func (s *ServiceSuite) TestWritePathsKeepDuplicatesByDefault() {
	_, _ = s.service.Store(s.ctx, StoreInput{Username: "bob", Email: "bob@x.com", Password: "pw"})
	_, _ = s.service.AddEmail(s.ctx, "bob@x.com")
	_, _ = s.service.SaveUserData(s.ctx, "bob@x.com")

	n, err := s.storage.CountUsersByEmail(s.ctx, "bob@x.com")
	s.Require().NoError(err)
	s.Equal(3, n)
}

func (s *ServiceSuite) TestDedupeByEmailReusesRecord() {
	svc := s.newService(Config{DedupeByEmail: true, BcryptCost: bcrypt.MinCost})

	first, err := svc.Store(s.ctx, StoreInput{Username: "bob", Email: "bob@x.com"})
	s.Require().NoError(err)
	second, err := svc.AddEmail(s.ctx, "bob@x.com")
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Len(s.storage.Users(), 1)
	s.Len(s.publisher.sources, 1)
}

func (s *ServiceSuite) TestDedupeIgnoresRecordsWithoutEmail() {
	svc := s.newService(Config{DedupeByEmail: true, BcryptCost: bcrypt.MinCost})

	_, _ = svc.Store(s.ctx, StoreInput{Username: "bob"})
	_, _ = svc.Store(s.ctx, StoreInput{Username: "bob"})

	s.Len(s.storage.Users(), 2)
}

// FindOrCreateByEmail tests

func (s *ServiceSuite) TestFindOrCreateCreatesWhenAbsent() {
	rec, created, err := s.service.FindOrCreateByEmail(s.ctx, "carol@x.com", "carol", config.ProviderDiscord)
	s.Require().NoError(err)

	s.True(created)
	s.Equal("carol", rec.Username)
	s.Len(s.storage.Users(), 1)
	s.Equal([]string{config.ProviderDiscord}, s.publisher.sources)
}

func (s *ServiceSuite) TestFindOrCreateReturnsExisting() {
	existing, _ := s.service.AddEmail(s.ctx, "carol@x.com")

	rec, created, err := s.service.FindOrCreateByEmail(s.ctx, "carol@x.com", "carol", config.ProviderFacebook)
	s.Require().NoError(err)

	s.False(created)
	s.Equal(existing.ID, rec.ID)
	s.Len(s.storage.Users(), 1)
}

func (s *ServiceSuite) TestFindOrCreateRequiresEmail() {
	_, _, err := s.service.FindOrCreateByEmail(s.ctx, "", "carol", config.ProviderDiscord)
	s.ErrorIs(err, model.ErrEmailRequired)
}

func verifyPassword(rec *model.UserRecord, password string) bool {
	if rec.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(rec.Password), []byte(password)) == nil
}
