package repository

import (
	"context"
	"errors"
	"time"

	"chat-core/models"

	"gorm.io/gorm"
)

type ChatRepository interface {
	FindByMembers(ctx context.Context, memberIDs []string) (*models.ChatRoom, error)
	FindOrCreateByMembers(ctx context.Context, room *models.ChatRoom, memberIDs []string) (*models.ChatRoom, bool, error)
	FindByID(ctx context.Context, id string) (*models.ChatRoom, error)
	ListForUser(ctx context.Context, userID string) ([]models.Conversation, error)
}

type GormChatRepo struct {
	db *gorm.DB
}

func NewGormChatRepo(db *gorm.DB) *GormChatRepo {
	return &GormChatRepo{db: db}
}

// exactMembers selects ids of rooms whose membership is exactly memberIDs:
// the room has as many members as requested and every requested id is one of
// them. memberIDs must be de-duplicated.
func exactMembers(tx *gorm.DB, memberIDs []string) *gorm.DB {
	n := len(memberIDs)
	return tx.Model(&models.RoomMembership{}).
		Select("room_id").
		Group("room_id").
		Having("COUNT(*) = ? AND SUM(CASE WHEN user_id IN ? THEN 1 ELSE 0 END) = ?", n, memberIDs, n)
}

func findByMembers(tx *gorm.DB, memberIDs []string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := tx.Where("id IN (?)", exactMembers(tx.Session(&gorm.Session{NewDB: true}), memberIDs)).
		Order("created_at DESC").
		Order("id DESC").
		First(&room).Error
	if err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

// FindByMembers returns the most recently created room whose membership set
// equals memberIDs.
func (r *GormChatRepo) FindByMembers(ctx context.Context, memberIDs []string) (*models.ChatRoom, error) {
	if len(memberIDs) == 0 {
		return nil, ErrNotFound
	}
	return findByMembers(r.db.WithContext(ctx), memberIDs)
}

// FindOrCreateByMembers looks up the room for memberIDs and, when there is
// none, inserts room together with its membership rows in the same
// transaction. The boolean reports whether room was created. A concurrent
// creator holding the same member key surfaces as ErrDuplicate.
func (r *GormChatRepo) FindOrCreateByMembers(ctx context.Context, room *models.ChatRoom, memberIDs []string) (*models.ChatRoom, bool, error) {
	if len(memberIDs) == 0 {
		return nil, false, errors.New("room needs at least one member")
	}

	var (
		out     *models.ChatRoom
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findByMembers(tx, memberIDs)
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		room.MemberCount = len(memberIDs)
		if err := tx.Create(room).Error; err != nil {
			return translate(err)
		}

		now := time.Now().UTC()
		rows := make([]models.RoomMembership, 0, len(memberIDs))
		for _, id := range memberIDs {
			rows = append(rows, models.RoomMembership{RoomID: room.ID, UserID: id, JoinedAt: now})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return translate(err)
		}
		out, created = room, true
		return nil
	})
	if err != nil {
		return nil, false, translate(err)
	}
	return out, created, nil
}

func (r *GormChatRepo) FindByID(ctx context.Context, id string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

// ListForUser returns the rooms userID belongs to, newest room first, with
// the number of messages not yet read in each.
func (r *GormChatRepo) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	out := make([]models.Conversation, 0)
	err := r.db.WithContext(ctx).
		Table("rooms").
		Select("rooms.id AS room_id, rooms.name AS room_name, rooms.created_at AS created_at, "+
			"(SELECT COUNT(*) FROM messages WHERE messages.room_id = rooms.id AND messages.is_read = ?) AS unread", false).
		Joins("JOIN room_members ON room_members.room_id = rooms.id").
		Where("room_members.user_id = ?", userID).
		Order("rooms.created_at DESC").
		Order("rooms.id DESC").
		Scan(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}
