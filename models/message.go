package models

import "time"

type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	RoomID    string    `gorm:"size:36;not null;uniqueIndex:idx_messages_room_seq,priority:1" json:"room_id"`
	Seq       int64     `gorm:"not null;uniqueIndex:idx_messages_room_seq,priority:2" json:"seq"`
	SenderID  string    `gorm:"size:36;not null" json:"sender_id"`
	Username  string    `gorm:"-" json:"username,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (Message) TableName() string { return "messages" }
