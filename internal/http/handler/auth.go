package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docdash/internal/auth"
	"docdash/internal/model"
	"docdash/internal/service"
)

// Limiter throttles a key, typically the client IP.
type Limiter interface {
	Allow(key string) bool
}

type authRequest struct {
	Action   string `json:"action" example:"login"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Token    string `json:"token,omitempty"`
}

type verifyResponse struct {
	Valid bool        `json:"valid"`
	User  *model.User `json:"user"`
}

// AuthAction dispatches register, login and verify on the "action" field.
// Login attempts go through limiter when it is not nil.
//
// @Summary Register, log in or verify a token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body authRequest true "action is one of register, login, verify"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 429 {object} errorPayload
// @Router /auth [post]
func AuthAction(svc service.AuthService, limiter Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req authRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		}

		switch req.Action {
		case "register":
			res, err := svc.Register(c.UserContext(), service.RegisterInput{
				Email:    req.Email,
				Password: req.Password,
				FullName: req.FullName,
			})
			switch {
			case errors.Is(err, service.ErrRegisterFieldsRequired):
				return writeError(c, fiber.StatusBadRequest, "FIELDS_REQUIRED", "Email, password and full_name required")
			case errors.Is(err, service.ErrUserExists):
				return writeError(c, fiber.StatusBadRequest, "USER_EXISTS", "User already exists")
			case err != nil:
				return internalError(c)
			}
			return c.JSON(res)

		case "login":
			if limiter != nil && !limiter.Allow(c.IP()) {
				return writeError(c, fiber.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many login attempts")
			}
			res, err := svc.Login(c.UserContext(), req.Email, req.Password)
			switch {
			case errors.Is(err, service.ErrLoginFieldsRequired):
				return writeError(c, fiber.StatusBadRequest, "FIELDS_REQUIRED", "Email and password required")
			case errors.Is(err, service.ErrInvalidCredentials):
				return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
			case err != nil:
				return internalError(c)
			}
			return c.JSON(res)

		case "verify":
			u, err := svc.Verify(c.UserContext(), req.Token)
			switch {
			case errors.Is(err, service.ErrTokenRequired):
				return writeError(c, fiber.StatusBadRequest, "TOKEN_REQUIRED", "Token required")
			case errors.Is(err, auth.ErrTokenExpired):
				return writeError(c, fiber.StatusUnauthorized, "TOKEN_EXPIRED", "Token expired")
			case errors.Is(err, auth.ErrTokenInvalid):
				return writeError(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "Invalid token")
			case err != nil:
				return internalError(c)
			}
			return c.JSON(verifyResponse{Valid: true, User: u})

		default:
			return writeError(c, fiber.StatusBadRequest, "INVALID_ACTION", "Invalid action")
		}
	}
}
