// Package app wires configuration, storage, services and HTTP routes into a
// runnable Fiber application.
package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/session"
	"storefront/internal/views"
	"storefront/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// App is a fully wired storefront.
type App struct {
	Fiber    *fiber.App
	DB       *gorm.DB
	Auth     *services.AuthService
	Products *services.ProductService
	Metrics  *metrics.Metrics

	mqClient *rabbitmq.Client
}

// Options tweaks construction, mostly for tests.
type Options struct {
	// DisableRequestLog turns off the per-request access log.
	DisableRequestLog bool
}

// New opens the database, runs the first-run bootstrap and builds the routes.
func New(cfg *config.Config, opts Options) (*App, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &App{DB: db, Metrics: metrics.New()}

	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		a.mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			_ = database.Close(db)
			return nil, err
		}
		publisher = a.mqClient
	} else {
		log.Println("RABBITMQ_URL is not set, catalog events are disabled")
	}

	sessions := session.NewManager(cfg.Session.Secret, cfg.Session.TTL)
	a.Auth = services.NewAuthService(repositories.NewGORMUserRepository(db), sessions, a.Metrics)
	a.Products = services.NewProductService(repositories.NewGORMProductRepository(db), publisher, a.Metrics)

	if err := a.bootstrap(cfg); err != nil {
		a.Close()
		return nil, err
	}

	a.Fiber = a.routes(cfg, opts)
	return a, nil
}

func (a *App) bootstrap(cfg *config.Config) error {
	if cfg.Bootstrap.Enabled {
		if _, err := a.Auth.EnsureAdmin(cfg.Bootstrap.Username, cfg.Bootstrap.Password); err != nil {
			return fmt.Errorf("failed to bootstrap admin: %w", err)
		}
	} else {
		log.Println("Admin bootstrap disabled")
	}

	if cfg.SeedDemoProducts {
		if err := a.Products.SeedDemoProducts(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) routes(cfg *config.Config, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        views.New(),
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	if !opts.DisableRequestLog {
		app.Use(logger.New())
	}
	app.Use(middleware.Metrics(a.Metrics))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"events": a.mqClient != nil,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(a.Metrics.Handler()))

	cookie := middleware.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure}

	authHandler := handlers.NewAuthHandler(a.Auth, cookie)
	authHandler.RegisterRoutes(app)

	var writeGates []fiber.Handler
	if cfg.RestrictWritesToAdmin {
		writeGates = append(writeGates, middleware.AdminRequired(a.Auth, cookie))
	}
	productHandler := handlers.NewProductHandler(a.Products, a.Auth, cookie)
	productHandler.RegisterRoutes(app, middleware.SessionRequired(a.Auth, cookie), writeGates...)

	return app
}

// StartEventAudit consumes catalog events and logs them. It is a no-op when
// events are disabled.
func (a *App) StartEventAudit() error {
	if a.mqClient == nil {
		return nil
	}
	log.Println("Starting RabbitMQ consumer for catalog events...")
	return a.mqClient.ConsumeCatalogEvents(rabbitmq.LogCatalogEvent)
}

// Close releases the broker connection and the database pool.
func (a *App) Close() {
	if a.mqClient != nil {
		if err := a.mqClient.Close(); err != nil {
			log.Printf("Error closing RabbitMQ client: %v", err)
		}
	}
	if err := database.Close(a.DB); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}

// errorHandler renders a generic error page. Internal details are logged,
// never shown.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Something went wrong. Please try again later."

	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		code = fe.Code
		message = fe.Message
	} else {
		log.Printf("Error handling %s %s: %v", c.Method(), c.Path(), err)
	}

	page := views.Page{Status: code, Message: message}
	if sess := middleware.CurrentSession(c); sess != nil {
		page.Username = sess.Username
	}
	if renderErr := c.Status(code).Render("error", page); renderErr != nil {
		log.Printf("Error rendering error page: %v", renderErr)
		return c.Status(code).SendString(message)
	}
	return nil
}
