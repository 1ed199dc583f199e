package app

import (
	"fmt"
	"log"
	"strings"

	"rental-scout/internal/config"
	"rental-scout/internal/delivery/http/routes"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// Bootstrap builds the container, starts the websocket hub and the sync
// scheduler, and returns the configured HTTP app with its cleanup func.
func Bootstrap(cfg config.Config, logger *log.Logger) (*App, func() error, error) {
	if logger == nil {
		logger = log.Default()
	}

	c, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	go c.Hub.Run()
	c.Scheduler.Start()

	f := fiber.New(fiber.Config{AppName: cfg.App.AppName})
	routes.NewRegistry(routesDeps(c)).Register(f)

	cleanup := func() error {
		c.Scheduler.Stop()
		return c.Close()
	}

	return &App{Fiber: f, Container: c}, cleanup, nil
}

func routesDeps(c *Container) routes.Deps {
	return routes.Deps{
		Logger:    c.Logger,
		DB:        c.DB,
		Cache:     c.Cache,
		JWT:       c.JWT,
		Users:     c.Users,
		AuthUC:    c.AuthUC,
		UserUC:    c.UserUC,
		MatchUC:   c.MatchUC,
		SyncUC:    c.SyncUC,
		Scheduler: c.Scheduler,
		Hub:       c.Hub,
	}
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
