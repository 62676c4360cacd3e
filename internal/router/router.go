package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-trash-bin/internal/config"
	"go-trash-bin/internal/handler"
	"go-trash-bin/internal/middleware"
	"go-trash-bin/internal/websocket"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	trashHandler *handler.TrashHandler,
	auditHandler *handler.AuditHandler,
	hub *websocket.Hub,
	health http.HandlerFunc,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.MutateRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", health)

	// Kept outside /api: the timeout handler cannot hijack connections.
	r.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).
		Get("/ws/events", func(w http.ResponseWriter, req *http.Request) {
			websocket.ServeWS(hub, w, req)
		})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))
		api.Use(authMiddleware.RequireAuth)
		api.Use(authMiddleware.RequireRoles("admin"))

		api.Get("/trash", trashHandler.List)
		api.Post("/trash", trashHandler.Create)
		api.Post("/trash/put-back", trashHandler.PutBack)
		api.Post("/trash/empty", trashHandler.Empty)
		api.Get("/trash/{trash_id}", trashHandler.Get)
		api.Post("/trash/{trash_id}/retry", trashHandler.Retry)
		api.Get("/audit", auditHandler.List)
	})

	return r
}
