package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"chat-core/config"
	"chat-core/models"
	"chat-core/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageBroadcaster interface to avoid import cycles
type MessageBroadcaster interface {
	BroadcastMessage(msg models.Message, username string)
}

type MessageService struct {
	msgs        repository.MessageRepository
	chats       repository.ChatRepository
	users       repository.UserRepository
	memberships repository.MembershipRepository
	hub         MessageBroadcaster
	config      *config.Config
	log         *zap.Logger
}

func NewMessageService(mr repository.MessageRepository, cr repository.ChatRepository, ur repository.UserRepository, memRepo repository.MembershipRepository, hub MessageBroadcaster, cfg *config.Config, log *zap.Logger) *MessageService {
	return &MessageService{msgs: mr, chats: cr, users: ur, memberships: memRepo, hub: hub, config: cfg, log: log}
}

// Append stores content as the next message of roomID and pushes it to live
// subscribers of the room.
func (s *MessageService) Append(ctx context.Context, roomID, senderID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > s.config.MaxMessageLength {
		return nil, fmt.Errorf("%w: max %d characters", ErrMessageTooLong, s.config.MaxMessageLength)
	}

	msg := &models.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.msgs.Append(ctx, msg); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrNotMember):
			return nil, ErrNotAMember
		}
		return nil, storeError("append message", err)
	}

	msg.Username = "Unknown User"
	if u, err := s.users.FindByID(ctx, senderID); err == nil {
		msg.Username = u.Username
	} else {
		s.log.Warn("sender lookup failed", zap.String("user_id", senderID), zap.Error(err))
	}

	if s.hub != nil {
		s.hub.BroadcastMessage(*msg, msg.Username)
	}
	return msg, nil
}

// Fetch returns the room's history in append order and marks it read. The
// IsRead flag of each returned message is its value before this call.
func (s *MessageService) Fetch(ctx context.Context, roomID, readerID string) ([]models.Message, error) {
	if _, err := s.chats.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeError("load room", err)
	}
	ok, err := s.memberships.IsUserMember(ctx, roomID, readerID)
	if err != nil {
		return nil, storeError("check membership", err)
	}
	if !ok {
		return nil, ErrNotAMember
	}

	msgs, err := s.msgs.FetchAndMarkRead(ctx, roomID)
	if err != nil {
		return nil, storeError("fetch messages", err)
	}

	// Populate username for each message
	senders := make([]string, 0)
	seen := make(map[string]bool)
	for _, m := range msgs {
		if !seen[m.SenderID] {
			seen[m.SenderID] = true
			senders = append(senders, m.SenderID)
		}
	}
	users, err := s.users.FindByIDs(ctx, senders)
	if err != nil {
		return nil, storeError("load senders", err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	for i := range msgs {
		if name, ok := names[msgs[i].SenderID]; ok {
			msgs[i].Username = name
		} else {
			msgs[i].Username = "Unknown User"
		}
	}
	return msgs, nil
}
