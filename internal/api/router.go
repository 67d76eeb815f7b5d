package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sinispace-backend/internal/config"
	"sinispace-backend/internal/handlers"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler   *handlers.AuthHandler
	ChatHandler   *handlers.ChatHandlers
	StreamHandler *handlers.StreamHandlers
	UploadHandler *handlers.UploadHandlers
	Config        *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173", "https://*.vercel.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Public Routes (No JWT Required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/v1/auth", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Post("/signup", deps.AuthHandler.HandleSignup)
		r.Post("/login", deps.AuthHandler.HandleLogin)
	})

	// Uploaded attachments are public by randomly generated name.
	uploadsFS := http.StripPrefix(deps.Config.UploadURLPath, http.FileServer(http.Dir(deps.Config.UploadDir)))
	r.Get(deps.Config.UploadURLPath+"*", uploadsFS.ServeHTTP)

	// --- Authenticated Routes (JWT Required) ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(JwtAuthMiddleware(deps.Config.JWTSecret))

		r.Route("/chats", func(r chi.Router) {
			// The stream endpoint holds its connection open for the whole
			// provider generation, so it stays outside the request timeout.
			r.Post("/{chatID}/stream", deps.StreamHandler.HandleStreamChat)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(60 * time.Second))
				r.Post("/", deps.ChatHandler.HandleCreateChat)
				r.Get("/", deps.ChatHandler.HandleListChats)
				r.Get("/{chatID}", deps.ChatHandler.HandleGetChatByID)
				r.Patch("/{chatID}", deps.ChatHandler.HandleUpdateChat)
				r.Delete("/{chatID}", deps.ChatHandler.HandleDeleteChat)
				r.Get("/{chatID}/messages", deps.ChatHandler.HandleListMessages)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Post("/uploads", deps.UploadHandler.HandleUpload)
		})
	})

	return r
}
