package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"rental-scout/internal/config"
	"rental-scout/internal/database"
	"rental-scout/internal/database/migration"
	dbpostgres "rental-scout/internal/database/postgres"
	"rental-scout/internal/infrastructure/cache"
	"rental-scout/internal/pkg/jwt"
	"rental-scout/internal/repository"
	"rental-scout/internal/scheduler"
	"rental-scout/internal/source"
	"rental-scout/internal/source/portal"
	"rental-scout/internal/source/rentcast"
	"rental-scout/internal/usecase"
	"rental-scout/internal/ws"
)

// Container wires every long-lived dependency once, at startup. Handlers
// receive what they need from here instead of constructing it themselves.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB    database.DB
	Cache *cache.Redis

	Users    *repository.PostgresUserRepository
	Listings *repository.PostgresListingRepository
	Matches  *repository.PostgresMatchRepository

	Sources []source.Source

	JWT jwt.Service

	AuthUC  usecase.AuthUsecase
	UserUC  usecase.UserUsecase
	MatchUC usecase.MatchUsecase
	SyncUC  usecase.SyncUsecase

	Scheduler *scheduler.Scheduler
	Hub       *ws.Hub
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := (migration.Runner{Dir: "migrations"}).Run(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisCache := cache.NewRedis(cfg.Redis, logger)

	users := repository.NewPostgresUserRepository(db)
	listings := repository.NewPostgresListingRepository(db)
	matches := repository.NewPostgresMatchRepository(db)

	sources := buildSources(cfg.Sources, logger)

	syncUC := usecase.NewSyncUsecase(users, listings, matches, sources, redisCache, logger)

	times, err := scheduler.ParseTimes(cfg.Sync.Times)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("parse sync times: %w", err)
	}
	sched := scheduler.New(syncUC, times, cfg.Sync.PollInterval, logger)

	hub := ws.NewHub(logger)
	ws.SetDefaultHub(hub)

	jwtSvc := jwt.NewHMACService(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiresIn,
		cfg.JWT.RefreshExpiresIn,
	)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Cache:     redisCache,
		Users:     users,
		Listings:  listings,
		Matches:   matches,
		Sources:   sources,
		JWT:       jwtSvc,
		AuthUC:    usecase.NewAuthUsecase(users, jwtSvc),
		UserUC:    usecase.NewUserUsecase(users),
		MatchUC:   usecase.NewMatchUsecase(matches, listings, redisCache, logger),
		SyncUC:    syncUC,
		Scheduler: sched,
		Hub:       hub,
	}, nil
}

func buildSources(cfg config.SourcesConfig, logger *log.Logger) []source.Source {
	out := []source.Source{
		rentcast.NewClient(cfg.RentCastBaseURL, cfg.RentCastAPIKey, logger),
	}
	if adapter := portal.NewAdapter(cfg.PortalBaseURL, logger); adapter != nil {
		out = append(out, adapter)
	}
	return out
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
