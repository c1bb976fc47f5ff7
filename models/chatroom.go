package models

import "time"

type ChatRoom struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:255" json:"name"`
	MemberKey   string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	MemberCount int       `gorm:"not null" json:"member_count"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (ChatRoom) TableName() string { return "rooms" }

type RoomMembership struct {
	RoomID   string    `gorm:"primaryKey;size:36" json:"room_id"`
	UserID   string    `gorm:"primaryKey;size:36;index" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

func (RoomMembership) TableName() string { return "room_members" }

// Conversation is one entry of a user's conversation index.
type Conversation struct {
	RoomID    string    `json:"room_id"`
	RoomName  string    `json:"room_name"`
	CreatedAt time.Time `json:"created_at"`
	Unread    int64     `json:"unread"`
}
