package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docdash/docs"
	"docdash/internal/auth"
	"docdash/internal/config"
	"docdash/internal/database"
	"docdash/internal/database/migration"
	"docdash/internal/dbx"
	handlers "docdash/internal/http/handler"
	"docdash/internal/http/middleware"
	"docdash/internal/logging"
	tracing "docdash/internal/otel"
	"docdash/internal/repository/postgres"
	"docdash/internal/service"
	"docdash/internal/storage"
)

// @title docdash API
// @version 1.0
// @description Accounts and documents backend for the docdash dashboard.
// @BasePath /
func main() {
	cfg := config.Load()
	loc := cfg.Location()
	log := logging.New(os.Stdout, cfg.Log, loc)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("api_exit", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "docdash-api", log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return err
	}

	objStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err != nil {
		return err
	}

	repos := postgres.NewManager()
	tx := dbx.NewTxRunner(db)
	authSvc := service.NewAuthService(db, tx, repos, tokens)
	docSvc := service.NewDocumentService(db, tx, repos, objStore, service.DocumentOptions{
		MaxUploadBytes: cfg.MaxUploadBytes,
		PresignTTL:     time.Duration(cfg.Storage.PresignTTLSec) * time.Second,
		Logger:         log,
	})

	prom, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// base64 inflates payloads by 4/3; leave room for the JSON envelope.
		BodyLimit:             int(cfg.MaxUploadBytes*4/3) + 64<<10,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(prom.Handler())
	app.Use(middleware.Logger(cfg.Location()))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:           db,
		Auth:         authSvc,
		Documents:    docSvc,
		LoginLimiter: middleware.NewRateLimiter(cfg.Auth.LoginRatePerMin),
	})

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.ShutdownWithContext(sctx)
	}()

	log.Info("api_listening", "component", "http", "port", cfg.Port, "storage_driver", cfg.Storage.Driver)
	return app.Listen(":" + cfg.Port)
}
