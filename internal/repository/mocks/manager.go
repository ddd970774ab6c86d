package mocks

import (
	"context"

	"docdash/internal/dbx"
	"docdash/internal/repository"
)

// Manager hands out the same mock repositories regardless of the handle.
type Manager struct {
	UserRepo     *MockUserRepository
	DocumentRepo *MockDocumentRepository
}

func NewManager() *Manager {
	return &Manager{
		UserRepo:     new(MockUserRepository),
		DocumentRepo: new(MockDocumentRepository),
	}
}

func (m *Manager) Users(dbx.DBTX) repository.UserRepository         { return m.UserRepo }
func (m *Manager) Documents(dbx.DBTX) repository.DocumentRepository { return m.DocumentRepo }

// TxRunner runs fn directly with a nil handle and returns its error.
type TxRunner struct{}

func (TxRunner) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}
