package app

import (
	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP application is built from.
type Deps struct {
	Products *services.ProductService
	Database handlers.Pinger
	Cache    handlers.Pinger
	Logger   *zap.Logger
}

// New builds the Fiber application with its middleware and routes.
func New(deps Deps) *fiber.App {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "catalog",
		DisableStartupMessage: true,
		ErrorHandler:          handlers.ErrorHandler(logger),
	})

	app.Use(middleware.RequestID(), middleware.RequestContext())
	app.Use(middleware.AccessLog(logger))
	app.Use(recover.New())

	handlers.NewHealthHandler(deps.Database, deps.Cache, logger).RegisterRoutes(app)
	handlers.NewProductHandler(deps.Products).RegisterRoutes(app)

	return app
}
