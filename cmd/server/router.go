package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dotdapp/dotd-api/internal/api"
	apimiddleware "github.com/dotdapp/dotd-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.userService, app.jwtService)
	creationHandler := api.NewCreationHandler(app.creationService, app.userService)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Public feed endpoints. Optional auth personalizes the is_liked
		// flag for signed-in callers.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.OptionalAuthenticate)
			r.Get("/creations/feed", creationHandler.Feed)
			r.Get("/creations/picked", creationHandler.Picked)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Generation pipeline
			r.Post("/create_task", creationHandler.CreateTask)
			r.Get("/task_status/{taskID}", creationHandler.TaskStatus)

			// Authenticated user surface
			r.Get("/users/me", authHandler.Me)
			r.Get("/users/me/quota", creationHandler.Quota)
			r.Get("/users/me/creations", creationHandler.MyCreations)

			// Creation management
			r.Delete("/creations/{creationID}", creationHandler.Delete)
			r.Post("/creations/{creationID}/like", creationHandler.Like)
			r.Delete("/creations/{creationID}/like", creationHandler.Unlike)

			// Admin endpoints
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireAdmin)
				r.Put("/admin/creations/{creationID}/pick", creationHandler.SetAdminPick)
			})
		})
	})

	// Generated media is served straight off disk under the public prefix.
	prefix := app.config.Media.PublicPrefix
	fileServer := http.StripPrefix(prefix, http.FileServer(http.Dir(app.config.Media.UploadDir)))
	r.Get(prefix+"/*", fileServer.ServeHTTP)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
