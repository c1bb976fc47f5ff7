package repository

import (
	"context"

	"chat-core/models"

	"gorm.io/gorm"
)

type MembershipRepository interface {
	IsUserMember(ctx context.Context, roomID, userID string) (bool, error)
	GetMemberUsernames(ctx context.Context, roomID, excludeUserID string) ([]string, error)
}

type GormMembershipRepo struct {
	db *gorm.DB
}

func NewGormMembershipRepo(db *gorm.DB) *GormMembershipRepo {
	return &GormMembershipRepo{db: db}
}

func isUserMember(tx *gorm.DB, roomID, userID string) (bool, error) {
	var count int64
	err := tx.Model(&models.RoomMembership{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *GormMembershipRepo) IsUserMember(ctx context.Context, roomID, userID string) (bool, error) {
	return isUserMember(r.db.WithContext(ctx), roomID, userID)
}

// GetMemberUsernames returns the usernames of roomID's members ordered
// alphabetically. An empty excludeUserID excludes nobody.
func (r *GormMembershipRepo) GetMemberUsernames(ctx context.Context, roomID, excludeUserID string) ([]string, error) {
	names := make([]string, 0)
	q := r.db.WithContext(ctx).
		Table("users").
		Joins("JOIN room_members ON room_members.user_id = users.id").
		Where("room_members.room_id = ?", roomID)
	if excludeUserID != "" {
		q = q.Where("users.id <> ?", excludeUserID)
	}
	if err := q.Order("users.username").Pluck("users.username", &names).Error; err != nil {
		return nil, translate(err)
	}
	return names, nil
}
