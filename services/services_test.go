package services

import (
	"sync"
	"testing"

	"chat-core/models"
	"chat-core/repository"
	"chat-core/testutil"

	"go.uber.org/zap"
)

type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []models.Message
}

func (b *recordingBroadcaster) BroadcastMessage(msg models.Message, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs)
}

type testEnv struct {
	fx       *testutil.Fixtures
	auth     *AuthService
	sessions *SessionService
	chats    *ChatService
	messages *MessageService
	hub      *recordingBroadcaster
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	cfg := testutil.Config()
	log := zap.NewNop()

	userRepo := repository.NewGormUserRepo(db)
	chatRepo := repository.NewGormChatRepo(db)
	memberRepo := repository.NewGormMembershipRepo(db)
	msgRepo := repository.NewGormMessageRepo(db)
	sessionRepo := repository.NewGormSessionRepo(db)

	hub := &recordingBroadcaster{}
	auth := NewAuthService(userRepo, SHA256Hasher{}, log)
	return &testEnv{
		fx:       testutil.NewFixtures(t, db),
		auth:     auth,
		sessions: NewSessionService(auth, sessionRepo, userRepo, cfg, log),
		chats:    NewChatService(chatRepo, userRepo, memberRepo, log),
		messages: NewMessageService(msgRepo, chatRepo, userRepo, memberRepo, hub, cfg, log),
		hub:      hub,
	}
}
