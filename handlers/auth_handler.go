package handlers

import (
	"net/http"
	"strings"

	"chat-core/services"

	"go.uber.org/zap"
)

type AuthHandler struct {
	auth     *services.AuthService
	sessions *services.SessionService
	log      *zap.Logger
}

func NewAuthHandler(a *services.AuthService, s *services.SessionService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: a, sessions: s, log: log}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c credentials) complete() bool {
	return strings.TrimSpace(c.Username) != "" && c.Password != ""
}

// Register creates the account and signs the new user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.complete() {
		respondWithError(w, "Missing fields", "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		respondWithServiceError(w, h.log, "register", err)
		return
	}

	sess, err := h.sessions.Start(r.Context(), user)
	if err != nil {
		respondWithServiceError(w, h.log, "start session", err)
		return
	}
	respondWithStatus(w, http.StatusCreated, sess)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.complete() {
		respondWithError(w, "Missing fields", "Username and password are required", http.StatusBadRequest)
		return
	}

	sess, err := h.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondWithServiceError(w, h.log, "login", err)
		return
	}
	respondWithSuccess(w, sess)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), tokenFromRequest(r)); err != nil {
		respondWithServiceError(w, h.log, "logout", err)
		return
	}
	respondWithSuccess(w, map[string]bool{"logged_out": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r)
	respondWithSuccess(w, u)
}
