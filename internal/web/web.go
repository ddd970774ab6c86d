// Package web serves the server-rendered dashboard.
package web

import (
	"embed"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"

	"docdash/internal/dashboard"
	"docdash/internal/http/middleware"
	"docdash/internal/i18n"
)

//go:embed templates
var templateFS embed.FS

// Options wires the web app.
type Options struct {
	Dashboard    *dashboard.Service
	Translator   *i18n.Translator
	Sessions     *fibersession.Store
	LoginLimiter *middleware.RateLimiter
	Logger       *slog.Logger
	Location     *time.Location
	// AccessLog receives request logs; nil means stdout.
	AccessLog io.Writer
	// BodyLimit caps request bodies; zero keeps fiber's default.
	BodyLimit int
	// CookieSecure marks the CSRF cookie Secure, like the session cookie.
	CookieSecure bool
	// CSRFExpiration bounds how long a rendered form stays valid.
	CSRFExpiration time.Duration
}

const (
	csrfFormField  = "_csrf"
	csrfContextKey = "csrf"
)

// Server holds the handlers' dependencies.
type Server struct {
	dash     *dashboard.Service
	tr       *i18n.Translator
	sessions *fibersession.Store
	log      *slog.Logger
}

// New builds the fiber app with templates, middlewares and routes.
func New(opts Options) (*fiber.App, error) {
	if opts.Dashboard == nil || opts.Translator == nil {
		return nil, errors.New("web: dashboard and translator are required")
	}
	if opts.Sessions == nil {
		opts.Sessions = fibersession.New()
	}
	if opts.LoginLimiter == nil {
		opts.LoginLimiter = middleware.NewRateLimiter(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.AccessLog == nil {
		opts.AccessLog = os.Stdout
	}
	if opts.CSRFExpiration <= 0 {
		opts.CSRFExpiration = 24 * time.Hour
	}

	s := &Server{
		dash:     opts.Dashboard,
		tr:       opts.Translator,
		sessions: opts.Sessions,
		log:      opts.Logger.With("component", "web"),
	}

	engine, err := newEngine(opts.Translator, opts.Location)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		Views:                 engine,
		ViewsLayout:           "layouts/main",
		ErrorHandler:          s.errorHandler,
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.LoggerWithWriter(opts.AccessLog, opts.Location))
	app.Use(compress.New())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:;",
	}))
	app.Use(opts.Translator.Middleware())
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:" + csrfFormField,
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   opts.CookieSecure,
		CookieHTTPOnly: true,
		Expiration:     opts.CSRFExpiration,
		ContextKey:     csrfContextKey,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/login", s.showLogin)
	app.Post("/login", opts.LoginLimiter.Handler(), s.handleLogin)
	app.Get("/register", s.showRegister)
	app.Post("/register", s.handleRegister)
	app.Post("/logout", s.handleLogout)

	app.Get("/", s.showDashboard)
	app.Post("/documents/upload", s.handleUpload)
	app.Post("/documents/:id/delete", s.handleDelete)
	app.Post("/settings/:name/toggle", s.handleToggle("/?tab=settings"))

	app.Get("/index", s.showIndex)
	app.Post("/index/profile", s.handleProfile)
	app.Post("/index/settings/:name/toggle", s.handleToggle("/index?tab=settings"))

	return app, nil
}

func newEngine(tr *i18n.Translator, loc *time.Location) (*html.Engine, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")

	engine.AddFunc("t", func(l *goi18n.Localizer, id string) string {
		return tr.T(l, id)
	})
	engine.AddFunc("tPlural", func(l *goi18n.Localizer, id string, n int) string {
		return tr.TPlural(l, id, n)
	})
	engine.AddFunc("tWithData", func(l *goi18n.Localizer, id string, data map[string]any) string {
		return tr.TWithData(l, id, data)
	})
	engine.AddFunc("dict", func(kv ...any) map[string]any {
		m := make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			if k, ok := kv[i].(string); ok {
				m[k] = kv[i+1]
			}
		}
		return m
	})
	engine.AddFunc("formatSize", dashboard.FormatFileSize)
	engine.AddFunc("formatDate", func(t time.Time) string {
		return t.In(loc).Format("02.01.2006 15:04")
	})

	return engine, engine.Load()
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msgID := "error_internal"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	switch {
	case code == fiber.StatusNotFound:
		msgID = "error_not_found"
	case code == fiber.StatusTooManyRequests:
		msgID = "toast_too_many_attempts"
	case code >= 500:
		s.log.ErrorContext(c.UserContext(), "request_failed",
			"request_id", middleware.RequestIDFrom(c),
			"path", c.Path(),
			"error", err,
		)
	default:
		msgID = "error_title"
	}

	c.Status(code)
	return c.Render("error", fiber.Map{
		"L":       s.tr.LocalizerFrom(c),
		"Lang":    c.Locals(i18n.LangKey),
		"Code":    code,
		"Message": msgID,
	})
}
