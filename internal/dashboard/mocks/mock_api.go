package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"docdash/internal/client"
	"docdash/internal/model"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) ListDocuments(ctx context.Context, token string, userID *int64) ([]model.Document, error) {
	args := m.Called(ctx, token, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockAPI) UploadDocument(ctx context.Context, token string, req client.UploadRequest) (*model.Document, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockAPI) DeleteDocument(ctx context.Context, token string, id int64) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

func (m *MockAPI) Login(ctx context.Context, email, password string) (*client.AuthResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.AuthResponse), args.Error(1)
}

func (m *MockAPI) Register(ctx context.Context, email, password, fullName string) (*client.AuthResponse, error) {
	args := m.Called(ctx, email, password, fullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.AuthResponse), args.Error(1)
}

func (m *MockAPI) Verify(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAPI) DownloadDocument(ctx context.Context, token string, id int64) (io.ReadCloser, string, error) {
	args := m.Called(ctx, token, id)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.String(1), args.Error(2)
}
