// Package repository declares the persistence contracts. Implementations live
// in subpackages (postgres) and contain no business rules.
package repository

import (
	"context"
	"errors"

	"docdash/internal/dbx"
	"docdash/internal/model"
)

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// Manager vends repositories bound to a database handle or transaction.
type Manager interface {
	Users(db dbx.DBTX) UserRepository
	Documents(db dbx.DBTX) DocumentRepository
}

// UserRepository defines data access for user accounts.
type UserRepository interface {
	// Create inserts a user and returns it with its generated ID.
	// A taken email yields ErrDuplicate.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// ExistsByEmail reports whether an account with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// FindByEmail returns the user including its password hash.
	// Missing rows yield sql.ErrNoRows.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID returns the user by ID. Missing rows yield sql.ErrNoRows.
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
