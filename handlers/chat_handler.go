package handlers

import (
	"net/http"

	"chat-core/services"
	"chat-core/ws"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ChatHandler struct {
	hub      *ws.Hub
	chats    *services.ChatService
	messages *services.MessageService
	sessions *services.SessionService
	log      *zap.Logger
}

func NewChatHandler(h *ws.Hub, c *services.ChatService, m *services.MessageService, s *services.SessionService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{hub: h, chats: c, messages: m, sessions: s, log: log}
}

// Users lists everyone the caller could start a chat with.
func (h *ChatHandler) Users(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r)
	users, err := h.chats.ListUsersExcept(r.Context(), u.ID)
	if err != nil {
		respondWithServiceError(w, h.log, "list users", err)
		return
	}
	respondWithSuccess(w, users)
}

// Rooms is the caller's conversation index.
func (h *ChatHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r)
	convs, err := h.chats.ConversationsFor(r.Context(), u.ID)
	if err != nil {
		respondWithServiceError(w, h.log, "list rooms", err)
		return
	}
	respondWithSuccess(w, convs)
}

// Create returns the room for the caller plus member_ids, creating it on
// first use. name only applies when the room is new.
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberIDs []string `json:"member_ids"`
		Name      string   `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	u, _ := CurrentUser(r)
	room, err := h.chats.ResolveOrCreate(r.Context(), u.ID, req.MemberIDs, req.Name)
	if err != nil {
		respondWithServiceError(w, h.log, "resolve room", err)
		return
	}
	respondWithSuccess(w, room)
}

func (h *ChatHandler) Members(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r)
	roomID := chi.URLParam(r, "roomID")
	if _, err := h.chats.RoomFor(r.Context(), roomID, u.ID); err != nil {
		respondWithServiceError(w, h.log, "load room", err)
		return
	}

	names, err := h.chats.MembersOf(r.Context(), roomID, u.ID)
	if err != nil {
		respondWithServiceError(w, h.log, "list members", err)
		return
	}
	respondWithSuccess(w, names)
}

// WS attaches a websocket to a room: /ws?roomId=<id>&token=<token>.
func (h *ChatHandler) WS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")
	if roomID == "" {
		respondWithError(w, "Missing parameter", "roomId query parameter is required", http.StatusBadRequest)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = tokenFromRequest(r)
	}
	if token == "" {
		respondWithError(w, "Missing parameter", "token query parameter is required", http.StatusBadRequest)
		return
	}

	u, err := h.sessions.CurrentUser(r.Context(), token)
	if err != nil {
		respondWithServiceError(w, h.log, "resolve session", err)
		return
	}
	if _, err := h.chats.RoomFor(r.Context(), roomID, u.ID); err != nil {
		respondWithServiceError(w, h.log, "load room", err)
		return
	}

	h.hub.ServeWS(w, r, roomID, u, h.messages)
}
