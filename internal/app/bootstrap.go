package app

import (
	"context"
	"fmt"
	"strings"

	"travel-search/internal/config"
	"travel-search/internal/delivery/http/handler"
	"travel-search/internal/delivery/http/middleware"
	"travel-search/internal/delivery/http/routes"
	v1 "travel-search/internal/delivery/http/routes/v1"
	"travel-search/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func New(c *Container) *App {
	// Immutable: ids and params outlive the request in the registry.
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName, Immutable: true})

	registerGlobalMiddleware(f, c.Config, c.Logger)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

// Bootstrap builds the container, starts its background work and returns
// the HTTP app with a cleanup that stops everything in reverse order.
func Bootstrap(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return New(c), c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, cfg config.Config, logger zerolog.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewErrorMiddleware(logger).Middleware())
	app.Use(middleware.NewAccessLogMiddleware(logger).Middleware())

	corsCfg := cors.Config{}
	if origin := strings.TrimSpace(cfg.App.FrontendURL); origin != "" {
		corsCfg.AllowOrigins = []string{origin}
	}
	app.Use(cors.New(corsCfg))
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil || c == nil {
		return
	}

	// A nil *Pool must not reach the handler as a non-nil interface.
	var db handler.Pinger
	if c.DB != nil {
		db = c.DB
	}

	handlers := &v1.Handlers{
		Health:  handler.NewHealthHandler(c.Cache, db, c.Scheduler),
		Search:  handler.NewSearchHandler(c.SearchUC),
		Catalog: handler.NewCatalogHandler(c.CatalogUC),
		Tracker: handler.NewTrackerHandler(c.TrackerUC),
		Admin:   handler.NewAdminHandler(c.CatalogUC, c.CacheAdminUC),
	}
	if c.JWT != nil {
		handlers.AdminAuth = middleware.NewAdminMiddleware(c.JWT).Middleware()
	}

	var origins []string
	if o := strings.TrimSpace(c.Config.App.FrontendURL); o != "" {
		origins = append(origins, o)
	}
	wsHandler := ws.NewHandler(c.Hub, origins)

	metricsHandler := promhttp.HandlerFor(c.Prom, promhttp.HandlerOpts{})

	routes.NewRegistry(handlers, wsHandler, metricsHandler).Register(app)
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
