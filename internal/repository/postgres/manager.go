package postgres

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"docdash/internal/dbx"
	"docdash/internal/repository"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Manager is the PostgreSQL implementation of repository.Manager.
type Manager struct{}

// NewManager returns a PostgreSQL repository manager.
func NewManager() *Manager { return &Manager{} }

var _ repository.Manager = (*Manager)(nil)

// Users returns a user repository bound to db.
func (m *Manager) Users(db dbx.DBTX) repository.UserRepository {
	return NewUserPostgres(db)
}

// Documents returns a document repository bound to db.
func (m *Manager) Documents(db dbx.DBTX) repository.DocumentRepository {
	return NewDocumentPostgres(db)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
