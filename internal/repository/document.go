package repository

import (
	"context"

	"docdash/internal/model"
)

// DocumentFilter scopes a listing.
type DocumentFilter struct {
	// UserID restricts results to one owner when set.
	UserID *int64
	// WithOwner fills Document.UserName from the owner's full name.
	WithOwner bool
}

// DocumentRepository defines data access for documents using SQL queries only.
// Soft-deleted rows are invisible to every read.
type DocumentRepository interface {
	// Create inserts a new document record and returns it with ID and UploadedAt set.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a live document by its ID. Missing rows yield sql.ErrNoRows.
	FindByID(ctx context.Context, id int64) (*model.Document, error)

	// List returns a page of live documents, newest first, and the total count.
	List(ctx context.Context, f DocumentFilter, pq PageQuery) (*PageResult[model.Document], error)

	// SoftDelete marks a document deleted. A missing or already deleted row
	// yields sql.ErrNoRows.
	SoftDelete(ctx context.Context, id int64) error
}
