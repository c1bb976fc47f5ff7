package repository

import (
	"context"
	"testing"
	"time"

	"chat-core/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open("sqlite", "file::memory:", false)
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, Migrate(db), "failed to migrate test database")
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()

	u := models.User{
		ID:             uuid.NewString(),
		Username:       username,
		CredentialHash: "hash-" + username,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func createRoom(t *testing.T, repo *GormChatRepo, name string, members ...string) *models.ChatRoom {
	t.Helper()

	room := &models.ChatRoom{ID: uuid.NewString(), Name: name, MemberKey: uuid.NewString()}
	got, created, err := repo.FindOrCreateByMembers(context.Background(), room, members)
	require.NoError(t, err)
	require.True(t, created)
	return got
}

func newMessage(roomID, senderID, content string) *models.Message {
	return &models.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
