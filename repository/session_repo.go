package repository

import (
	"context"
	"time"

	"chat-core/models"

	"gorm.io/gorm"
)

// SessionRepository persists login sessions so that logout takes effect for
// every holder of a token.
type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	FindActive(ctx context.Context, id string) (*models.Session, error)
	Revoke(ctx context.Context, id string) error
}

type GormSessionRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormSessionRepo(db *gorm.DB) *GormSessionRepo {
	return &GormSessionRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *GormSessionRepo) Create(ctx context.Context, s *models.Session) error {
	return translate(r.db.WithContext(ctx).Create(s).Error)
}

// FindActive returns ErrNotFound for unknown, revoked and expired sessions alike.
func (r *GormSessionRepo) FindActive(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	if !s.Active(r.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

// Revoke marks the session revoked. Revoking twice keeps the first timestamp.
func (r *GormSessionRepo) Revoke(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", r.now())
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Session{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return translate(err)
		}
		if count == 0 {
			return ErrNotFound
		}
	}
	return nil
}
