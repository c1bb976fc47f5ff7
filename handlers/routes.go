package handlers

import (
	"context"
	"net/http"
	"time"

	"chat-core/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable.
type Pinger func(ctx context.Context) error

// NewRouter mounts the JSON API, the websocket endpoint and the health check.
func NewRouter(log *zap.Logger, sessions *services.SessionService, authH *AuthHandler, chatH *ChatHandler, msgH *MessageHandler, ping Pinger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(WithCORS)
	r.Use(RequestLogger(log))

	r.Get("/health", Health(ping))

	r.Route("/api", func(api chi.Router) {
		api.Post("/register", authH.Register)
		api.Post("/login", authH.Login)
		api.Post("/logout", authH.Logout)

		api.Group(func(pr chi.Router) {
			pr.Use(WithAuth(sessions, log))
			pr.Get("/me", authH.Me)
			pr.Get("/users", chatH.Users)
			pr.Get("/rooms", chatH.Rooms)
			pr.Post("/rooms", chatH.Create)
			pr.Get("/rooms/{roomID}/members", chatH.Members)
			pr.Get("/rooms/{roomID}/messages", msgH.ListMessages)
			pr.Post("/rooms/{roomID}/messages", msgH.SendMessage)
		})
	})

	// WS ?roomId=<id>&token=<token>
	r.Get("/ws", chatH.WS)

	return r
}

func Health(ping Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := ping(ctx); err != nil {
			respondWithError(w, "Unavailable", "database unreachable", http.StatusServiceUnavailable)
			return
		}
		respondWithSuccess(w, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
