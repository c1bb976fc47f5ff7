package repository

import (
	"context"
	"errors"

	"chat-core/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository interface {
	Append(ctx context.Context, msg *models.Message) error
	FetchAndMarkRead(ctx context.Context, roomID string) ([]models.Message, error)
}

type GormMessageRepo struct {
	db *gorm.DB
}

func NewGormMessageRepo(db *gorm.DB) *GormMessageRepo {
	return &GormMessageRepo{db: db}
}

// Append stores msg as the next entry of its room. The room row is locked for
// the duration of the transaction so that Seq follows commit order and
// CreatedAt never runs backwards within a room. The sender must be a member.
func (r *GormMessageRepo) Append(ctx context.Context, msg *models.Message) error {
	if msg == nil {
		return errors.New("nil message")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room models.ChatRoom
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, "id = ?", msg.RoomID).Error; err != nil {
			return translate(err)
		}

		ok, err := isUserMember(tx, msg.RoomID, msg.SenderID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotMember
		}

		var last models.Message
		res := tx.Where("room_id = ?", msg.RoomID).Order("seq DESC").Limit(1).Find(&last)
		if res.Error != nil {
			return translate(res.Error)
		}
		msg.Seq = 1
		if res.RowsAffected > 0 {
			msg.Seq = last.Seq + 1
			if msg.CreatedAt.Before(last.CreatedAt) {
				msg.CreatedAt = last.CreatedAt
			}
		}
		msg.IsRead = false

		return translate(tx.Create(msg).Error)
	})
	return translate(err)
}

// FetchAndMarkRead returns the room's history in append order and marks the
// returned messages read. The returned IsRead flags are the values before
// marking. Messages appended after the read are left untouched.
func (r *GormMessageRepo) FetchAndMarkRead(ctx context.Context, roomID string) ([]models.Message, error) {
	msgs := make([]models.Message, 0)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Order("seq ASC").Find(&msgs).Error; err != nil {
			return translate(err)
		}
		if len(msgs) == 0 {
			return nil
		}
		maxSeq := msgs[len(msgs)-1].Seq
		return translate(tx.Model(&models.Message{}).
			Where("room_id = ? AND seq <= ? AND is_read = ?", roomID, maxSeq, false).
			Update("is_read", true).Error)
	})
	if err != nil {
		return nil, translate(err)
	}
	return msgs, nil
}
