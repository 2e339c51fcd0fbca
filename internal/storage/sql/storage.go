package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mcoot/idgateway/internal/model"
	"github.com/mcoot/idgateway/internal/storage"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds SQL connection settings
type Config struct {
	Driver string
	DSN    string
}

// userRow is the persisted shape of a user record.
// Seq preserves insertion order, which FindUserByEmail depends on.
type userRow struct {
	Seq       uint   `gorm:"primaryKey;autoIncrement"`
	ID        string `gorm:"uniqueIndex;not null"`
	Username  string
	Email     string `gorm:"index"`
	Password  string
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (userRow) TableName() string {
	return "users"
}

func (r *userRow) toRecord() *model.UserRecord {
	return &model.UserRecord{
		ID:        model.UserID(r.ID),
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		CreatedAt: r.CreatedAt,
	}
}

// Storage is a gorm-backed user store
type Storage struct {
	db *gorm.DB
}

// Open connects using the configured driver and migrates the users table
func Open(cfg Config) (*Storage, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return New(db)
}

// New wraps an existing gorm handle and migrates the users table
func New(db *gorm.DB) (*Storage, error) {
	if err := db.AutoMigrate(&userRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the underlying connection pool
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure Storage implements the interface
var _ storage.UserStore = (*Storage)(nil)

func (s *Storage) SaveUser(ctx context.Context, user *model.UserRecord) error {
	row := userRow{
		ID:       uuid.NewString(),
		Username: user.Username,
		Email:    user.Email,
		Password: user.Password,
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	user.ID = model.UserID(row.ID)
	user.CreatedAt = row.CreatedAt
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.UserRecord, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where("id = ?", string(id)).First(&row).Error
	if err != nil {
		return nil, translateError(err)
	}
	return row.toRecord(), nil
}

func (s *Storage) FindUserByEmail(ctx context.Context, email string) (*model.UserRecord, error) {
	var row userRow
	// First orders by primary key, i.e. insertion order
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		return nil, translateError(err)
	}
	return row.toRecord(), nil
}

func (s *Storage) CountUsersByEmail(ctx context.Context, email string) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&userRow{}).Where("email = ?", email).Count(&n).Error
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ErrUserNotFound
	}
	return err
}
