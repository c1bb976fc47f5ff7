package models

import "time"

type User struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Username       string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	CredentialHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// UserSummary is the directory view of a user: id and display name only.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
