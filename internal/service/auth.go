package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"docdash/internal/auth"
	"docdash/internal/dbx"
	"docdash/internal/model"
	"docdash/internal/repository"
)

var (
	ErrRegisterFieldsRequired = errors.New("email, password and full_name required")
	ErrLoginFieldsRequired    = errors.New("email and password required")
	ErrUserExists             = errors.New("user already exists")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrTokenRequired          = errors.New("token required")
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// AuthService defines account use cases.
type AuthService interface {
	// Register creates a user with role "user" and returns a token for it.
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)

	// Login checks credentials of an active user and returns a token.
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	// Verify validates a token and returns the active user it belongs to.
	Verify(ctx context.Context, token string) (*model.User, error)

	// Authenticate validates a token without touching the database.
	Authenticate(token string) (*auth.Claims, error)
}

type authService struct {
	db     dbx.DBTX
	tx     dbx.TxRunner
	repos  repository.Manager
	tokens *auth.TokenManager
}

// NewAuthService constructs an AuthService.
func NewAuthService(db dbx.DBTX, tx dbx.TxRunner, repos repository.Manager, tokens *auth.TokenManager) AuthService {
	return &authService{db: db, tx: tx, repos: repos, tokens: tokens}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if in.Email == "" || in.Password == "" || in.FullName == "" {
		return nil, ErrRegisterFieldsRequired
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var created *model.User
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repos.Users(tx)
		exists, err := users.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return ErrUserExists
		}
		created, err = users.Create(ctx, &model.User{
			Email:        in.Email,
			PasswordHash: hash,
			FullName:     in.FullName,
			Role:         model.RoleUser,
		})
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrUserExists
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.issue(created)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrLoginFieldsRequired
	}

	u, err := s.repos.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}

	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.issue(u)
}

func (s *authService) Verify(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrTokenRequired
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	u, err := s.repos.Users(s.db).FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrTokenInvalid
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !u.IsActive {
		return nil, auth.ErrTokenInvalid
	}
	return u, nil
}

func (s *authService) Authenticate(token string) (*auth.Claims, error) {
	if token == "" {
		return nil, ErrTokenRequired
	}
	return s.tokens.Parse(token)
}

func (s *authService) issue(u *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, User: u}, nil
}
