package services

import (
	"context"
	"errors"
	"strings"

	"chat-core/models"
	"chat-core/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ChatService resolves rooms from membership sets and serves the per-user
// conversation index.
type ChatService struct {
	chats       repository.ChatRepository
	users       repository.UserRepository
	memberships repository.MembershipRepository
	log         *zap.Logger

	// collapses concurrent resolves of the same member key in this process;
	// the unique member_key index covers other processes.
	inflight singleflight.Group
}

func NewChatService(cr repository.ChatRepository, ur repository.UserRepository, memRepo repository.MembershipRepository, log *zap.Logger) *ChatService {
	return &ChatService{chats: cr, users: ur, memberships: memRepo, log: log}
}

// ResolveOrCreate returns the room whose membership is exactly creatorID plus
// memberIDs, creating it when none exists. proposedName only applies to a
// newly created room; when empty a name is derived from the members.
func (s *ChatService) ResolveOrCreate(ctx context.Context, creatorID string, memberIDs []string, proposedName string) (*models.ChatRoom, error) {
	if strings.TrimSpace(creatorID) == "" {
		return nil, ErrNoMembers
	}
	ids := NormalizeMembers(append([]string{creatorID}, memberIDs...))

	members, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeError("load room members", err)
	}
	if len(members) != len(ids) {
		return nil, ErrNotFound
	}

	name := strings.TrimSpace(proposedName)
	if name == "" {
		name = DefaultRoomName(creatorID, members)
	}

	key := MemberKey(ids)
	v, err, _ := s.inflight.Do(key, func() (any, error) {
		return s.resolve(context.WithoutCancel(ctx), key, ids, name)
	})
	if err != nil {
		return nil, err
	}
	room := *v.(*models.ChatRoom)
	return &room, nil
}

func (s *ChatService) resolve(ctx context.Context, key string, ids []string, name string) (*models.ChatRoom, error) {
	room, err := s.chats.FindByMembers(ctx, ids)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrBusy) {
		return nil, storeError("resolve room", err)
	}

	// One retry: the loser of a creation race sees the winner's room on the
	// second lookup. A lock timeout is retried the same way.
	for attempt := 0; attempt < 2; attempt++ {
		candidate := &models.ChatRoom{ID: uuid.NewString(), Name: name, MemberKey: key}
		room, created, err := s.chats.FindOrCreateByMembers(ctx, candidate, ids)
		switch {
		case err == nil:
			if created {
				s.log.Info("room created", zap.String("room_id", room.ID), zap.Int("members", room.MemberCount))
			}
			return room, nil
		case errors.Is(err, repository.ErrDuplicate), errors.Is(err, repository.ErrBusy):
			s.log.Debug("room creation raced, retrying lookup", zap.String("member_key", key), zap.Error(err))
		default:
			return nil, storeError("resolve room", err)
		}
	}
	return nil, ErrConcurrentCreateConflict
}

// ListUsersExcept is the directory of candidate members, ordered by username.
func (s *ChatService) ListUsersExcept(ctx context.Context, userID string) ([]models.UserSummary, error) {
	users, err := s.users.ListExcept(ctx, userID)
	if err != nil {
		return nil, storeError("list users", err)
	}
	return users, nil
}

// MembersOf returns the sorted usernames of the room's members other than
// excludeUserID, or the NoOtherUsers placeholder when none remain.
func (s *ChatService) MembersOf(ctx context.Context, roomID, excludeUserID string) ([]string, error) {
	if _, err := s.findRoom(ctx, roomID); err != nil {
		return nil, err
	}
	names, err := s.memberships.GetMemberUsernames(ctx, roomID, excludeUserID)
	if err != nil {
		return nil, storeError("list room members", err)
	}
	if len(names) == 0 {
		return []string{NoOtherUsers}, nil
	}
	return names, nil
}

// RoomFor returns the room if userID is one of its members.
func (s *ChatService) RoomFor(ctx context.Context, roomID, userID string) (*models.ChatRoom, error) {
	room, err := s.findRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	ok, err := s.memberships.IsUserMember(ctx, roomID, userID)
	if err != nil {
		return nil, storeError("check membership", err)
	}
	if !ok {
		return nil, ErrNotAMember
	}
	return room, nil
}

// ConversationsFor lists the user's rooms, most recently created first.
func (s *ChatService) ConversationsFor(ctx context.Context, userID string) ([]models.Conversation, error) {
	convs, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, storeError("list conversations", err)
	}
	return convs, nil
}

func (s *ChatService) findRoom(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	room, err := s.chats.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeError("load room", err)
	}
	return room, nil
}
