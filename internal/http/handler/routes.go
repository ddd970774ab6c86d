package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"docdash/internal/database"
	"docdash/internal/http/middleware"
	"docdash/internal/service"
)

// Deps are the collaborators the API routes need.
type Deps struct {
	DB           database.Pinger
	Auth         service.AuthService
	Documents    service.DocumentService
	LoginLimiter Limiter
}

// RegisterRoutes attaches the API routes to app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodDelete, fiber.MethodOptions}, ","),
		AllowHeaders: "Content-Type, " + middleware.AuthTokenHeader,
		MaxAge:       86400,
	}))

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	app.Post("/auth", AuthAction(d.Auth, d.LoginLimiter))

	docs := app.Group("/documents", middleware.Auth(d.Auth))
	docs.Get("/", ListDocuments(d.Documents))
	docs.Post("/", UploadDocument(d.Documents))
	docs.Delete("/", DeleteDocument(d.Documents))
	docs.Get("/:id", GetDocument(d.Documents))
	docs.Get("/:id/download", DownloadDocument(d.Documents))
	docs.Delete("/:id", DeleteDocument(d.Documents))
}
