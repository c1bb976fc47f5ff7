package repository

import (
	"context"
	"testing"
	"time"

	"chat-core/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormChatRepo_FindOrCreateByMembers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormChatRepo(db)
	ctx := context.Background()

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")

	room := &models.ChatRoom{ID: uuid.NewString(), Name: "first", MemberKey: "k-ab"}
	got, created, err := repo.FindOrCreateByMembers(ctx, room, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, got.MemberCount)

	again := &models.ChatRoom{ID: uuid.NewString(), Name: "second", MemberKey: "k-ab"}
	got2, created, err := repo.FindOrCreateByMembers(ctx, again, []string{b.ID, a.ID})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, room.ID, got2.ID)
	assert.Equal(t, "first", got2.Name)

	var rooms, members int64
	require.NoError(t, db.Model(&models.ChatRoom{}).Count(&rooms).Error)
	require.NoError(t, db.Model(&models.RoomMembership{}).Count(&members).Error)
	assert.EqualValues(t, 1, rooms)
	assert.EqualValues(t, 2, members)
}

func TestGormChatRepo_DuplicateKeyRollsBack(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormChatRepo(db)
	ctx := context.Background()

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	c := createUser(t, db, "c")

	createRoom(t, repo, "ab", a.ID, b.ID)
	var existing models.ChatRoom
	require.NoError(t, db.First(&existing).Error)

	// Same key, different set: the unique index rejects it and no membership
	// rows are left behind.
	clash := &models.ChatRoom{ID: uuid.NewString(), MemberKey: existing.MemberKey}
	_, _, err := repo.FindOrCreateByMembers(ctx, clash, []string{a.ID, c.ID})
	assert.ErrorIs(t, err, ErrDuplicate)

	var members int64
	require.NoError(t, db.Model(&models.RoomMembership{}).Where("room_id = ?", clash.ID).Count(&members).Error)
	assert.Zero(t, members)
}

func TestGormChatRepo_FindByMembersIsExact(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormChatRepo(db)
	ctx := context.Background()

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	c := createUser(t, db, "c")

	ab := createRoom(t, repo, "ab", a.ID, b.ID)
	abc := createRoom(t, repo, "abc", a.ID, b.ID, c.ID)

	tests := []struct {
		name    string
		members []string
		want    string
	}{
		{name: "pair", members: []string{a.ID, b.ID}, want: ab.ID},
		{name: "pair reversed", members: []string{b.ID, a.ID}, want: ab.ID},
		{name: "triple", members: []string{c.ID, a.ID, b.ID}, want: abc.ID},
		{name: "subset of triple", members: []string{a.ID, c.ID}},
		{name: "single", members: []string{a.ID}},
		{name: "superset", members: []string{a.ID, b.ID, c.ID, "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindByMembers(ctx, tt.members)
			if tt.want == "" {
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestGormChatRepo_ListForUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormChatRepo(db)
	ctx := context.Background()

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	c := createUser(t, db, "c")

	older := createRoom(t, repo, "older", a.ID, b.ID)
	require.NoError(t, db.Model(&models.ChatRoom{}).Where("id = ?", older.ID).
		Update("created_at", time.Now().UTC().Add(-time.Hour)).Error)
	newer := createRoom(t, repo, "newer", a.ID, c.ID)
	createRoom(t, repo, "other", b.ID, c.ID)

	got, err := repo.ListForUser(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].RoomID)
	assert.Equal(t, "newer", got[0].RoomName)
	assert.Equal(t, older.ID, got[1].RoomID)

	none, err := repo.ListForUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormMembershipRepo(t *testing.T) {
	db := setupTestDB(t)
	chats := NewGormChatRepo(db)
	repo := NewGormMembershipRepo(db)
	ctx := context.Background()

	a := createUser(t, db, "zed")
	b := createUser(t, db, "amy")
	c := createUser(t, db, "max")
	room := createRoom(t, chats, "r", a.ID, b.ID, c.ID)

	ok, err := repo.IsUserMember(ctx, room.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsUserMember(ctx, room.ID, "stranger")
	require.NoError(t, err)
	assert.False(t, ok)

	names, err := repo.GetMemberUsernames(ctx, room.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"amy", "max"}, names)

	names, err = repo.GetMemberUsernames(ctx, room.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"amy", "max", "zed"}, names)
}
