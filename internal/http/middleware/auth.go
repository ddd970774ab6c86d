package middleware

import (
	"github.com/gofiber/fiber/v2"

	"docdash/internal/auth"
	"docdash/internal/service"
)

const (
	// AuthTokenHeader carries the bearer token issued by POST /auth.
	AuthTokenHeader = "X-Auth-Token"
	// PrincipalLocalKey is where Auth stores the service.Principal.
	PrincipalLocalKey = "principal"
)

// Authenticator validates an API token.
type Authenticator interface {
	Authenticate(token string) (*auth.Claims, error)
}

// Auth requires a valid X-Auth-Token and stores the caller as a
// service.Principal in locals. Failures are 401 fiber errors whose message
// is the client-facing text.
func Auth(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(AuthTokenHeader)
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
		}

		// Expired and malformed tokens look the same here; only
		// action=verify tells them apart.
		claims, err := a.Authenticate(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		c.Locals(PrincipalLocalKey, service.Principal{UserID: claims.UserID, Role: claims.Role})
		return c.Next()
	}
}

// PrincipalFrom returns the caller stored by Auth.
func PrincipalFrom(c *fiber.Ctx) (service.Principal, bool) {
	p, ok := c.Locals(PrincipalLocalKey).(service.Principal)
	return p, ok
}
