package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"docdash/internal/model"
	"docdash/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, p service.Principal, in service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, p service.Principal, q service.ListQuery) (*service.DocumentListResult, error) {
	args := m.Called(ctx, p, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, p service.Principal, id int64) (*model.Document, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, p service.Principal, id int64) (io.ReadCloser, *model.Document, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*model.Document), args.Error(2)
}

func (m *MockDocumentService) Delete(ctx context.Context, p service.Principal, id int64) error {
	args := m.Called(ctx, p, id)
	return args.Error(0)
}
