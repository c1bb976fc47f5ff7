package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"chat-core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormMessageRepo_AppendAssignsSequence(t *testing.T) {
	db := setupTestDB(t)
	chats := NewGormChatRepo(db)
	repo := NewGormMessageRepo(db)
	ctx := context.Background()

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	room := createRoom(t, chats, "ab", a.ID, b.ID)

	first := newMessage(room.ID, a.ID, "hi")
	require.NoError(t, repo.Append(ctx, first))
	assert.EqualValues(t, 1, first.Seq)

	// A clock that went backwards must not reorder the room's timestamps.
	second := newMessage(room.ID, b.ID, "hello")
	second.CreatedAt = first.CreatedAt.Add(-time.Minute)
	require.NoError(t, repo.Append(ctx, second))
	assert.EqualValues(t, 2, second.Seq)
	assert.False(t, second.CreatedAt.Before(first.CreatedAt))
}

func TestGormMessageRepo_AppendRejects(t *testing.T) {
	db := setupTestDB(t)
	chats := NewGormChatRepo(db)
	repo := NewGormMessageRepo(db)
	ctx := context.Background()

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	outsider := createUser(t, db, "outsider")
	room := createRoom(t, chats, "ab", a.ID, b.ID)

	err := repo.Append(ctx, newMessage(room.ID, outsider.ID, "let me in"))
	assert.ErrorIs(t, err, ErrNotMember)

	err = repo.Append(ctx, newMessage("no-such-room", a.ID, "hi"))
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Message{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGormMessageRepo_FetchAndMarkRead(t *testing.T) {
	db := setupTestDB(t)
	chats := NewGormChatRepo(db)
	repo := NewGormMessageRepo(db)
	ctx := context.Background()

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	room := createRoom(t, chats, "ab", a.ID, b.ID)

	for _, content := range []string{"A", "B", "C"} {
		require.NoError(t, repo.Append(ctx, newMessage(room.ID, a.ID, content)))
	}

	convs, err := chats.ListForUser(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.EqualValues(t, 3, convs[0].Unread)

	msgs, err := repo.FetchAndMarkRead(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, want := range []string{"A", "B", "C"} {
		assert.Equal(t, want, msgs[i].Content)
		assert.False(t, msgs[i].IsRead, "returned flags reflect the state before marking")
	}

	convs, err = chats.ListForUser(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, convs[0].Unread)

	again, err := repo.FetchAndMarkRead(ctx, room.ID)
	require.NoError(t, err)
	for _, m := range again {
		assert.True(t, m.IsRead)
	}

	empty, err := repo.FetchAndMarkRead(ctx, "empty-room")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGormMessageRepo_ConcurrentAppends(t *testing.T) {
	db := setupTestDB(t)
	chats := NewGormChatRepo(db)
	repo := NewGormMessageRepo(db)
	ctx := context.Background()

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	room := createRoom(t, chats, "ab", a.ID, b.ID)

	const perSender = 20
	var wg sync.WaitGroup
	for _, sender := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func(sender string) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				assert.NoError(t, repo.Append(ctx, newMessage(room.ID, sender, fmt.Sprintf("%s-%d", sender, i))))
			}
		}(sender)
	}
	wg.Wait()

	msgs, err := repo.FetchAndMarkRead(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2*perSender)
	for i, m := range msgs {
		assert.EqualValues(t, i+1, m.Seq)
		if i > 0 {
			assert.False(t, m.CreatedAt.Before(msgs[i-1].CreatedAt))
		}
	}
}
