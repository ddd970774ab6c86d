package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"docdash/internal/dbx"
	"docdash/internal/model"
	"docdash/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db dbx.DBTX
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db dbx.DBTX) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (user_id, file_name, file_size, file_type, storage_path, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, uploaded_at
	`
	out := *doc
	if err := r.db.QueryRowContext(ctx, q,
		doc.UserID,
		doc.FileName,
		doc.FileSize,
		doc.FileType,
		doc.StoragePath,
		doc.Description,
	).Scan(&out.ID, &out.UploadedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single live document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id int64) (*model.Document, error) {
	const q = `
		SELECT id, user_id, file_name, file_size, file_type, storage_path, description, uploaded_at
		FROM documents
		WHERE id = $1 AND deleted_at IS NULL
	`
	var (
		d    model.Document
		desc sql.NullString
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID,
		&d.UserID,
		&d.FileName,
		&d.FileSize,
		&d.FileType,
		&d.StoragePath,
		&desc,
		&d.UploadedAt,
	); err != nil {
		return nil, err
	}
	d.Description = nullableString(desc)
	return &d, nil
}

// List returns live documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, f repository.DocumentFilter, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	where := []string{"d.deleted_at IS NULL"}
	args := make([]any, 0, 3)
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, fmt.Sprintf("d.user_id = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	qCount := `SELECT COUNT(*) FROM documents d WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, err
	}

	qList := fmt.Sprintf(`
		SELECT d.id, d.user_id, d.file_name, d.file_size, d.file_type, d.storage_path,
		       d.description, d.uploaded_at, u.full_name
		FROM documents d
		JOIN users u ON u.id = d.user_id
		WHERE %s
		ORDER BY d.uploaded_at DESC, d.id DESC
		LIMIT $%d OFFSET $%d
	`, cond, len(args)+1, len(args)+2)
	args = append(args, pq.Limit, pq.Offset)

	rows, err := r.db.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		var (
			d     model.Document
			desc  sql.NullString
			owner string
		)
		if err := rows.Scan(
			&d.ID,
			&d.UserID,
			&d.FileName,
			&d.FileSize,
			&d.FileType,
			&d.StoragePath,
			&desc,
			&d.UploadedAt,
			&owner,
		); err != nil {
			return nil, err
		}
		d.Description = nullableString(desc)
		if f.WithOwner {
			d.UserName = &owner
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// SoftDelete marks the row deleted and blanks its description.
func (r *DocumentPostgres) SoftDelete(ctx context.Context, id int64) error {
	const q = `
		UPDATE documents
		SET description = 'Deleted', deleted_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
