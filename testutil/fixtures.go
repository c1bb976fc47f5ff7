// Package testutil provides database and fixture helpers shared by package tests.
package testutil

import (
	"testing"

	"chat-core/config"
	"chat-core/models"
	"chat-core/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewDB opens a migrated in-memory SQLite database that is closed when the
// test ends.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := repository.Open("sqlite", "file::memory:", false)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = repository.Close(db) })
	return db
}

// Config returns a configuration suitable for tests.
func Config() *config.Config {
	return &config.Config{
		Port:             "0",
		JWTSecret:        "test-secret",
		JWTExpiry:        1,
		LogLevel:         "error",
		MaxMessageLength: 200,
		DBDriver:         "sqlite",
		DBDSN:            "file::memory:",
		PasswordHasher:   "sha256",
		SessionBackend:   "db",
	}
}

// Fixtures inserts rows directly, bypassing service validation.
type Fixtures struct {
	db *gorm.DB
	t  *testing.T
}

func NewFixtures(t *testing.T, db *gorm.DB) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// CreateUser inserts a user with a placeholder credential hash.
func (f *Fixtures) CreateUser(username string) models.User {
	f.t.Helper()

	u := models.User{
		ID:             uuid.NewString(),
		Username:       username,
		CredentialHash: "fixture",
	}
	if err := f.db.Create(&u).Error; err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CountRows returns the number of rows in model's table.
func (f *Fixtures) CountRows(model any) int64 {
	f.t.Helper()

	var n int64
	if err := f.db.Model(model).Count(&n).Error; err != nil {
		f.t.Fatalf("failed to count rows: %v", err)
	}
	return n
}
