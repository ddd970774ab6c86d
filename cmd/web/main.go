package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/session"
	_ "github.com/joho/godotenv/autoload"

	"docdash/internal/client"
	"docdash/internal/config"
	"docdash/internal/dashboard"
	"docdash/internal/http/middleware"
	"docdash/internal/i18n"
	"docdash/internal/logging"
	tracing "docdash/internal/otel"
	localsession "docdash/internal/session"
	"docdash/internal/web"
)

func main() {
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.Log, cfg.Location())
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("web_exit", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "docdash-web", log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	api, err := client.New(cfg.Web.APIBaseURL, time.Duration(cfg.Web.APITimeoutSec)*time.Second)
	if err != nil {
		return err
	}

	tr, err := i18n.New(log)
	if err != nil {
		return err
	}

	sessCfg := session.Config{
		Expiration:     time.Duration(cfg.Web.SessionTTLHours) * time.Hour,
		CookieSecure:   cfg.Web.CookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	}
	if cfg.Web.SessionStore != "" {
		storage, err := localsession.OpenBoltStorage(cfg.Web.SessionStore)
		if err != nil {
			return err
		}
		defer storage.Close()
		sessCfg.Storage = storage
	}

	app, err := web.New(web.Options{
		Dashboard:      dashboard.New(api, log),
		Translator:     tr,
		Sessions:       session.New(sessCfg),
		LoginLimiter:   middleware.NewRateLimiter(cfg.Auth.LoginRatePerMin),
		Logger:         log,
		Location:       cfg.Location(),
		BodyLimit:      int(cfg.MaxUploadBytes) + 64<<10,
		CookieSecure:   cfg.Web.CookieSecure,
		CSRFExpiration: time.Duration(cfg.Web.SessionTTLHours) * time.Hour,
	})
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.ShutdownWithContext(sctx)
	}()

	log.Info("web_listening", "component", "http", "port", cfg.Web.Port, "api", cfg.Web.APIBaseURL)
	return app.Listen(":" + cfg.Web.Port)
}
