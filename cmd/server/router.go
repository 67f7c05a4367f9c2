package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/mindset-api/internal/api"
	apiMiddleware "github.com/phrazzld/mindset-api/internal/api/middleware"
	"github.com/phrazzld/mindset-api/internal/api/shared"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// Create API handlers using the application's services
	authHandler := api.NewAuthHandler(app.userStore, app.jwtService, app.passwordVerifier)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	playerHandler := api.NewPlayerHandler(app.sessions, app.library)
	contentHandler := api.NewContentHandler(app.library)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Book content (public, read-only)
		r.Get("/books", contentHandler.ListBooks)
		r.Get("/books/{bookID}", contentHandler.GetBook)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Player profile and progression
			r.Get("/profile", playerHandler.GetProfile)
			r.Post("/profile/answer", playerHandler.SubmitAnswer)
			r.Post("/profile/lesson-complete", playerHandler.CompleteLesson)
			r.Post("/profile/token/spend", playerHandler.SpendToken)
			r.Patch("/profile/settings", playerHandler.UpdateSettings)
			r.Post("/profile/reset", playerHandler.ResetProgress)

			// Review queue
			r.Get("/review/next", playerHandler.NextReview)

			// AI coach
			if app.coachService != nil {
				coachHandler := api.NewCoachHandler(app.sessions, app.coachService)
				r.Post("/coach/chat", coachHandler.Chat)
			} else {
				r.Post("/coach/chat", coachUnavailable)
			}
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}

// coachUnavailable answers coach requests when no LLM API key is configured.
func coachUnavailable(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithError(w, r, http.StatusServiceUnavailable, "The coach is not available")
}
