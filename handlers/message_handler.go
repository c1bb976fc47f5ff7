package handlers

import (
	"net/http"

	"chat-core/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type MessageHandler struct {
	svc *services.MessageService
	log *zap.Logger
}

func NewMessageHandler(s *services.MessageService, log *zap.Logger) *MessageHandler {
	return &MessageHandler{svc: s, log: log}
}

// ListMessages returns the room history and marks it read.
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r)
	msgs, err := h.svc.Fetch(r.Context(), chi.URLParam(r, "roomID"), u.ID)
	if err != nil {
		respondWithServiceError(w, h.log, "fetch messages", err)
		return
	}
	respondWithSuccess(w, msgs)
}

func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	u, _ := CurrentUser(r)
	msg, err := h.svc.Append(r.Context(), chi.URLParam(r, "roomID"), u.ID, req.Content)
	if err != nil {
		respondWithServiceError(w, h.log, "append message", err)
		return
	}
	respondWithStatus(w, http.StatusCreated, msg)
}
