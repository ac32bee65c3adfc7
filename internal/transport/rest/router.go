package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gleeworld/gleeworld/internal/auth"
	"github.com/gleeworld/gleeworld/internal/module"
	"github.com/gleeworld/gleeworld/internal/notification"
	"github.com/gleeworld/gleeworld/internal/permission"
	"github.com/gleeworld/gleeworld/internal/realtime"
	"github.com/gleeworld/gleeworld/internal/task"
	"github.com/gleeworld/gleeworld/internal/transport/middleware"
	"github.com/gleeworld/gleeworld/internal/transport/swagger"
	"github.com/gleeworld/gleeworld/internal/user"
	"github.com/go-chi/chi"
	"github.com/go-redis/redis/v8"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth         *auth.Handler
	Guard        *auth.ModuleGuard
	User         *user.Handler
	Module       *module.Handler
	Permission   *permission.Handler
	Notification *notification.Handler
	Task         *task.Handler
	WebSocket    *realtime.WebSocketHandler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, redisClient *redis.Client, h Handlers, allowedOrigins []string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, redisClient)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	// Websocket auth rides in the query string, not the Authorization header
	if h.WebSocket != nil {
		router.Get("/ws", h.WebSocket.Serve)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})
		}

		if h.Auth == nil {
			return
		}

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.Me)
				pr.Get("/users", h.User.Directory)
				pr.Get("/users/exec-board", h.User.ExecBoard)
			}

			if h.Module != nil {
				pr.Get("/modules", h.Module.ListActive)

				pr.Group(func(mr chi.Router) {
					mr.Use(h.Guard.RequireManage("permissions"))
					mr.Get("/modules/all", h.Module.ListAll)
					mr.Patch("/modules/{name}", h.Module.SetActive)
				})
			}

			if h.Permission != nil {
				pr.Get("/permissions/my-access", h.Permission.MyAccess)

				// The grant matrix is gated behind manage on the
				// permissions module itself.
				pr.Group(func(gr chi.Router) {
					gr.Use(h.Guard.RequireManage("permissions"))
					gr.Get("/permissions/grants", h.Permission.ListGrants)
					gr.Post("/permissions/toggle", h.Permission.Toggle)
					gr.Put("/permissions/grants", h.Permission.Upsert)
					gr.Delete("/permissions/grants", h.Permission.Delete)
				})
			}

			if h.Notification != nil {
				pr.Route("/notifications", func(nr chi.Router) {
					nr.Get("/", h.Notification.List)
					nr.Get("/unread-count", h.Notification.UnreadCount)
					nr.Patch("/{id}/read", h.Notification.MarkRead)
					nr.Post("/read-all", h.Notification.MarkAllRead)
					nr.Delete("/{id}", h.Notification.Delete)

					nr.Group(func(mr chi.Router) {
						mr.Use(h.Guard.RequireManage("messaging"))
						mr.Post("/", h.Notification.Send)
					})
				})
			}

			if h.Task != nil {
				pr.Route("/tasks", func(tr chi.Router) {
					tr.Get("/", h.Task.List)
					tr.Get("/{id}", h.Task.Get)
					tr.Patch("/{id}/status", h.Task.UpdateStatus)

					tr.Group(func(mr chi.Router) {
						mr.Use(h.Guard.RequireManage("tasks"))
						mr.Post("/", h.Task.Create)
					})
				})
			}
		})
	})
}
