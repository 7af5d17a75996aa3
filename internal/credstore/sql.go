package credstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// credentialRecord is one row per account. Payload holds the encoded, and
// optionally sealed, TokenSet so both backends share one record format.
type credentialRecord struct {
	Email     string `gorm:"primaryKey"`
	Payload   []byte `gorm:"not null"`
	Expiry    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (credentialRecord) TableName() string {
	return "credentials"
}

// SQLStore keeps credentials in a SQLite database.
type SQLStore struct {
	db     *gorm.DB
	cipher *Cipher
}

var _ Store = (*SQLStore)(nil)

// OpenSQLStore opens (or creates) the SQLite database at path and migrates
// the schema. The database file is forced to mode 0600.
func OpenSQLStore(path string, opts ...Option) (*SQLStore, error) {
	if isFilePath(path) {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, fileMode)
		if err != nil {
			return nil, fmt.Errorf("failed to create credential database: %w", err)
		}
		_ = f.Close()
		if err := os.Chmod(path, fileMode); err != nil {
			return nil, fmt.Errorf("failed to set credential database mode: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open credential database: %w", err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access credential database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return NewSQLStore(db, opts...)
}

// NewSQLStore wraps an existing gorm connection.
func NewSQLStore(db *gorm.DB, opts ...Option) (*SQLStore, error) {
	if err := db.AutoMigrate(&credentialRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate credential database: %w", err)
	}
	o := buildOptions(opts)
	return &SQLStore{db: db, cipher: o.cipher}, nil
}

func (s *SQLStore) Load(ctx context.Context, email string) (*TokenSet, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	var rec credentialRecord
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	return decode(email, rec.Payload, s.cipher)
}

// Save upserts the record inside a transaction.
func (s *SQLStore) Save(ctx context.Context, email string, ts *TokenSet) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	payload, err := encode(ts, s.cipher)
	if err != nil {
		return err
	}

	rec := credentialRecord{Email: email, Payload: payload, Expiry: ts.Expiry}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "expiry", "updated_at"}),
		}).Create(&rec).Error
		if err != nil {
			return fmt.Errorf("failed to save credential: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) Delete(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Where("email = ?", email).Delete(&credentialRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	var emails []string
	err := s.db.WithContext(ctx).Model(&credentialRecord{}).Order("email").Pluck("email", &emails).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	return emails, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isFilePath(path string) bool {
	return path != "" && path != ":memory:" && !strings.HasPrefix(path, "file:")
}
