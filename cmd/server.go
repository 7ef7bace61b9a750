package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/karua/hostcore/pkg/asyncx"
	"github.com/karua/hostcore/pkg/config"
	"github.com/karua/hostcore/pkg/httpx"
	"github.com/karua/hostcore/pkg/logx"
	"github.com/karua/hostcore/pkg/telemetry"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 30 * time.Second
	healthTimeout   = 3 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the job workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := telemetry.NewProvider(ctx, cfg.Tracing, cfg.App.Version)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logx.WithError(err).Warn("failed to flush traces")
			}
		}()

		container, err := NewContainer(ctx, cfg)
		if err != nil {
			return err
		}
		defer container.Cleanup()

		app := newApp(cfg, container.HealthChecks, container.Modules()...)
		container.StartBackgroundServices(ctx)
		return listen(ctx, app, cfg.Server.Port)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// routeModule is implemented by every handler set.
type routeModule interface {
	RegisterRoutes(app fiber.Router)
}

// Modules lists the handler sets in mount order.
func (c *Container) Modules() []routeModule {
	return []routeModule{
		c.IAM.AuthHandlers,
		c.IAM.UserHandlers,
		c.HostHandlers,
		c.LodgingHandlers,
		c.CustomerHandlers,
	}
}

func newApp(cfg *config.Config, checks func() []asyncx.Task[string], modules ...routeModule) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ErrorHandler:          httpx.ErrorHandler(cfg.App.Debug),
		BodyLimit:             cfg.Server.BodyLimit,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.App.Debug}))
	app.Use(requestid.New(requestid.Config{
		Header:    httpx.RequestIDHeader,
		Generator: uuid.NewString,
	}))
	origins := cfg.Server.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		AllowCredentials: !strings.Contains(origins, "*"),
		ExposeHeaders:    httpx.RequestIDHeader,
	}))
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${locals:requestid}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Get("/health", healthHandler(cfg, checks))
	app.Get("/", infoHandler(cfg))

	for _, m := range modules {
		m.RegisterRoutes(app)
	}

	app.Use(httpx.NotFound)
	return app
}

// healthHandler runs every check concurrently and answers 503 when any of
// them fails.
func healthHandler(cfg *config.Config, checks func() []asyncx.Task[string]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		health := fiber.Map{
			"status":  "healthy",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
		}
		for _, r := range asyncx.AllSettled(ctx, checks()...) {
			if r.OK() {
				health[r.Name] = "healthy"
				continue
			}
			health[r.Name] = "unhealthy"
			health[r.Name+"_error"] = r.Err.Error()
			health["status"] = "degraded"
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

func infoHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":     cfg.App.Name,
			"version":     cfg.App.Version,
			"environment": cfg.App.Env,
			"endpoints": fiber.Map{
				"health":    "/health",
				"auth":      "/auth",
				"users":     "/users",
				"host":      "/hosts/current",
				"lodging":   []string{"/accommodation-types", "/accommodations", "/accommodation-pricing-schedules"},
				"customers": []string{"/customers", "/nationalities"},
				"platform":  []string{"/admin/hosts", "/admin/hosts/:hostId/users"},
			},
		})
	}
}

// listen serves until ctx is cancelled, then shuts down gracefully.
func listen(ctx context.Context, app *fiber.App, port string) error {
	errc := make(chan error, 1)
	go func() {
		logx.Infof("server listening on port %s", port)
		errc <- app.Listen(":" + port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logx.Info("shutting down gracefully")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logx.WithError(err).Error("server forced to shutdown")
		return err
	}
	logx.Info("server stopped")
	return nil
}
