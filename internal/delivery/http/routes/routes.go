package routes

import (
	"log"

	"rental-scout/internal/database"
	"rental-scout/internal/delivery/http/handler"
	"rental-scout/internal/delivery/http/middleware"
	"rental-scout/internal/domain/user"
	"rental-scout/internal/infrastructure/cache"
	"rental-scout/internal/pkg/jwt"
	"rental-scout/internal/scheduler"
	"rental-scout/internal/usecase"
	"rental-scout/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Deps struct {
	Logger *log.Logger

	DB    database.DB
	Cache *cache.Redis
	JWT   jwt.Service

	Users user.Repository

	AuthUC  usecase.AuthUsecase
	UserUC  usecase.UserUsecase
	MatchUC usecase.MatchUsecase
	SyncUC  usecase.SyncUsecase

	Scheduler *scheduler.Scheduler
	Hub       *ws.Hub
}

type Registry struct {
	deps Deps
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	errMw := middleware.NewErrorMiddleware(r.deps.Logger)
	accessMw := middleware.NewAccessLogMiddleware(r.deps.Logger)
	app.Use(errMw.Middleware())
	app.Use(accessMw.Middleware())

	handler.NewHealthHandler(r.deps.DB, r.deps.Cache).RegisterRoutes(app)

	wsHandler := ws.NewHandler(r.deps.Hub, r.deps.JWT, r.deps.Logger)
	app.Get("/ws", wsHandler.HandleMatchesWS)

	api := app.Group("/api")
	r.registerV1(api.Group("/v1"))
}

func (r *Registry) registerV1(v1 fiber.Router) {
	authMw := middleware.NewAuthMiddleware(r.deps.JWT)

	handler.NewAuthHandler(r.deps.AuthUC).RegisterRoutes(v1.Group("/auth"))

	protected := v1.Group("", authMw.Middleware())
	handler.NewProfileHandler(r.deps.UserUC).RegisterRoutes(protected.Group("/profile"))
	handler.NewMatchHandler(r.deps.MatchUC).RegisterRoutes(protected.Group("/matches"))
	handler.NewListingHandler(r.deps.SyncUC, r.deps.MatchUC, r.deps.Users).RegisterRoutes(protected.Group("/listings"))
	handler.NewSchedulerHandler(r.deps.Scheduler).RegisterRoutes(protected.Group("/scheduler"))
}
