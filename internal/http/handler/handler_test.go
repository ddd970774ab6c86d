package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docdash/internal/auth"
	"docdash/internal/http/middleware"
	"docdash/internal/model"
	"docdash/internal/service"
	serviceMocks "docdash/internal/service/mocks"
)

var testUser = service.Principal{UserID: 7, Role: model.RoleUser}

// newDocApp mounts h behind a stub that authenticates every request as testUser.
func newDocApp(method, path string, h fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.PrincipalLocalKey, testUser)
		return c.Next()
	})
	app.Add(method, path, h)
	return app
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthAction(t *testing.T) {
	user := &model.User{ID: 1, Email: "a@example.com", FullName: "Ann", Role: model.RoleUser}

	tests := []struct {
		name       string
		body       authRequest
		setupMocks func(m *serviceMocks.MockAuthService)
		wantStatus int
		wantError  string
	}{
		{
			name: "register ok",
			body: authRequest{Action: "register", Email: "a@example.com", Password: "pw", FullName: "Ann"},
			setupMocks: func(m *serviceMocks.MockAuthService) {
				m.On("Register", mock.Anything, service.RegisterInput{Email: "a@example.com", Password: "pw", FullName: "Ann"}).
					Return(&service.AuthResult{Token: "tok", User: user}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "register missing fields",
			body: authRequest{Action: "register", Email: "a@example.com"},
			setupMocks: func(m *serviceMocks.MockAuthService) {
				m.On("Register", mock.Anything, mock.Anything).Return(nil, service.ErrRegisterFieldsRequired)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Email, password and full_name required",
		},
		{
			name: "register duplicate",
			body: authRequest{Action: "register", Email: "a@example.com", Password: "pw", FullName: "Ann"},
			setupMocks: func(m *serviceMocks.MockAuthService) {
				m.On("Register", mock.Anything, mock.Anything).Return(nil, service.ErrUserExists)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "User already exists",
		},
		{
			name: "login bad credentials",
			body: authRequest{Action: "login", Email: "a@example.com", Password: "bad"},
			setupMocks: func(m *serviceMocks.MockAuthService) {
				m.On("Login", mock.Anything, "a@example.com", "bad").Return(nil, service.ErrInvalidCredentials)
			},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid credentials",
		},
		{
			name: "login ok",
			body: authRequest{Action: "login", Email: "a@example.com", Password: "pw"},
			setupMocks: func(m *serviceMocks.MockAuthService) {
				m.On("Login", mock.Anything, "a@example.com", "pw").Return(&service.AuthResult{Token: "tok", User: user}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "verify expired",
			body: authRequest{Action: "verify", Token: "old"},
			setupMocks: func(m *serviceMocks.MockAuthService) {
				m.On("Verify", mock.Anything, "old").Return(nil, auth.ErrTokenExpired)
			},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Token expired",
		},
		{
			name: "verify missing token",
			body: authRequest{Action: "verify"},
			setupMocks: func(m *serviceMocks.MockAuthService) {
				m.On("Verify", mock.Anything, "").Return(nil, service.ErrTokenRequired)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Token required",
		},
		{
			name:       "unknown action",
			body:       authRequest{Action: "reset"},
			setupMocks: func(*serviceMocks.MockAuthService) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid action",
		},
		{
			name: "internal error is not leaked",
			body: authRequest{Action: "login", Email: "a@example.com", Password: "pw"},
			setupMocks: func(m *serviceMocks.MockAuthService) {
				m.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("pq: connection refused"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(serviceMocks.MockAuthService)
			tt.setupMocks(mockSvc)

			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
			app.Post("/auth", AuthAction(mockSvc, nil))

			req := httptest.NewRequest(http.MethodPost, "/auth", jsonBody(t, tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, resp).Error)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestAuthAction_Verify(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	mockSvc.On("Verify", mock.Anything, "tok").Return(&model.User{ID: 2, Email: "b@example.com", Role: model.RoleAdmin}, nil)

	app := fiber.New()
	app.Post("/auth", AuthAction(mockSvc, nil))

	req := httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(`{"action":"verify","token":"tok"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body verifyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Valid)
	assert.Equal(t, model.RoleAdmin, body.User.Role)
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func TestAuthAction_LoginRateLimited(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := fiber.New()
	app.Post("/auth", AuthAction(mockSvc, denyAll{}))

	req := httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(`{"action":"login","email":"a","password":"b"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	mockSvc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newDocApp(http.MethodGet, "/documents", ListDocuments(mockSvc))

	t.Run("success", func(t *testing.T) {
		uid := int64(42)
		expectedRes := &service.DocumentListResult{
			Items: []model.Document{{ID: 1, FileName: "test.pdf"}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, testUser, service.ListQuery{UserID: &uid, Limit: 10}).Return(expectedRes, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents?limit=10&offset=0&user_id=42", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
		assert.Contains(t, raw, "documents")
		assert.JSONEq(t, "1", string(raw["total"]))
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, testUser, service.ListQuery{}).Return(&service.DocumentListResult{}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents", nil))
		body, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"documents":[],"total":0}`, string(body))
	})

	t.Run("invalid limit", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents?limit=abc", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Code)
	})

	t.Run("invalid user_id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents?user_id=-1", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_USER_ID", decodeError(t, resp).Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, testUser, mock.Anything).Return(nil, errors.New("service error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents", nil))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestUploadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newDocApp(http.MethodPost, "/documents", UploadDocument(mockSvc))

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		in := service.UploadInput{FileName: "test.txt", FileData: "aGVsbG8=", FileType: "text/plain"}
		mockSvc.On("Upload", mock.Anything, testUser, in).Return(&model.Document{ID: 9, FileName: "test.txt"}, nil).Once()

		resp := post(`{"file_name":"test.txt","file_data":"aGVsbG8=","file_type":"text/plain"}`)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result documentResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, int64(9), result.Document.ID)
		mockSvc.AssertExpectations(t)
	})

	errCases := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrUploadFieldsRequired, http.StatusBadRequest, "FIELDS_REQUIRED"},
		{service.ErrInvalidFileData, http.StatusBadRequest, "INVALID_FILE_DATA"},
		{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{errors.New("upload failed"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, ec := range errCases {
		t.Run(ec.code, func(t *testing.T) {
			mockSvc.On("Upload", mock.Anything, testUser, mock.Anything).Return(nil, ec.err).Once()

			resp := post(`{"file_name":"a"}`)
			assert.Equal(t, ec.status, resp.StatusCode)
			assert.Equal(t, ec.code, decodeError(t, resp).Code)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		resp := post(`{`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Code)
	})
}

func TestGetDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newDocApp(http.MethodGet, "/documents/:id", GetDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, testUser, int64(5)).Return(&model.Document{ID: 5, FileName: "test.txt"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/5", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result documentResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, int64(5), result.Document.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, testUser, int64(6)).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/6", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Document not found", decodeError(t, resp).Error)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/abc", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Code)
	})

	mockSvc.AssertExpectations(t)
}

func TestDownloadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newDocApp(http.MethodGet, "/documents/:id/download", DownloadDocument(mockSvc))

	mockSvc.On("Download", mock.Anything, testUser, int64(5)).
		Return(io.NopCloser(strings.NewReader("hello")), &model.Document{ID: 5, FileName: "a b.txt", FileType: "text/plain", FileSize: 5}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/5/download", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="a b.txt"`, resp.Header.Get("Content-Disposition"))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "hello", string(body))

	mockSvc.On("Download", mock.Anything, testUser, int64(6)).Return(nil, nil, service.ErrNotFound).Once()
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/documents/6/download", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.PrincipalLocalKey, testUser)
		return c.Next()
	})
	app.Delete("/documents", DeleteDocument(mockSvc))
	app.Delete("/documents/:id", DeleteDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, testUser, int64(5)).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/documents/5", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"success":true}`, string(body))
	})

	t.Run("id from query", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, testUser, int64(8)).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/documents?id=8", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/documents", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Document id required", decodeError(t, resp).Error)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, testUser, int64(6)).Return(service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/documents/6", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, testUser, int64(7)).Return(errors.New("delete error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/documents/7", nil))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	mockSvc.AssertExpectations(t)
}

func TestRouting(t *testing.T) {
	db, _, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	authSvc := new(serviceMocks.MockAuthService)
	docSvc := new(serviceMocks.MockDocumentService)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, Deps{DB: db, Auth: authSvc, Documents: docSvc})

	t.Run("not found route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/health", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Code)
	})

	t.Run("documents require a token", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents", nil))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "Authentication required", body.Error)
		assert.Equal(t, "UNAUTHORIZED", body.Code)
	})

	t.Run("expired token reads as invalid", func(t *testing.T) {
		authSvc.On("Authenticate", "old").Return(nil, auth.ErrTokenExpired).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		req.Header.Set(middleware.AuthTokenHeader, "old")
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid token", decodeError(t, resp).Error)
	})

	t.Run("authenticated list", func(t *testing.T) {
		authSvc.On("Authenticate", "tok").Return(&auth.Claims{UserID: 3, Role: model.RoleAdmin}, nil).Once()
		docSvc.On("List", mock.Anything, service.Principal{UserID: 3, Role: model.RoleAdmin}, service.ListQuery{}).
			Return(&service.DocumentListResult{Items: []model.Document{{ID: 1}}, Total: 1}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		req.Header.Set(middleware.AuthTokenHeader, "tok")
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/documents", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "86400", resp.Header.Get("Access-Control-Max-Age"))
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "X-Auth-Token")
	})

	authSvc.AssertExpectations(t)
	docSvc.AssertExpectations(t)
}
