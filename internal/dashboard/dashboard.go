// Package dashboard is the view model shared by the web dashboard and the
// CLI. It owns the local session, talks to the API and keeps the
// client-only settings and profile.
package dashboard

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"docdash/internal/client"
	"docdash/internal/model"
	"docdash/internal/session"
)

var (
	ErrNoFile         = errors.New("no file selected")
	ErrUnknownSetting = errors.New("unknown setting")
	ErrUnknownField   = errors.New("unknown profile field")
	// ErrSessionExpired means the API rejected the stored token. The local
	// credentials are gone by the time it is returned.
	ErrSessionExpired = fmt.Errorf("%w: token rejected", session.ErrNoSession)
)

// API is the part of the docdash API the dashboard uses.
type API interface {
	ListDocuments(ctx context.Context, token string, userID *int64) ([]model.Document, error)
	UploadDocument(ctx context.Context, token string, req client.UploadRequest) (*model.Document, error)
	DeleteDocument(ctx context.Context, token string, id int64) error
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Register(ctx context.Context, email, password, fullName string) (*client.AuthResponse, error)
	Verify(ctx context.Context, token string) (*model.User, error)
}

// Service is safe for concurrent use; all per-user state lives in the
// session.Store passed to each call.
type Service struct {
	api     API
	log     *slog.Logger
	uploads singleflight.Group
}

// New returns a Service over api.
func New(api API, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{api: api, log: log.With("component", "dashboard")}
}

// View is everything the Dashboard screen renders.
type View struct {
	User      model.User
	Documents []model.Document
	Settings  model.Settings
	Activity  ActivitySummary
}

// ShowOwnerColumn reports whether the documents table has an owner column.
func (v *View) ShowOwnerColumn() bool {
	return v.User.Role.IsAdmin()
}

// Load bootstraps the session and fetches the document list. A failed list
// fetch is logged and leaves the list empty.
func (s *Service) Load(ctx context.Context, store session.Store) (*View, error) {
	sess, err := session.Bootstrap(store)
	if err != nil {
		return nil, err
	}

	settings, err := s.Settings(store)
	if err != nil {
		return nil, err
	}

	docs, err := s.api.ListDocuments(ctx, sess.Token, nil)
	if err != nil {
		if client.IsUnauthorized(err) {
			return nil, s.expire(store)
		}
		s.log.WarnContext(ctx, "list_documents_failed", "user_id", sess.User.ID, "error", err)
		docs = nil
	}
	if docs == nil {
		docs = []model.Document{}
	}

	return &View{
		User:      sess.User,
		Documents: docs,
		Settings:  settings,
		Activity:  Activity(len(docs)),
	}, nil
}

// FileInput is a file picked for upload.
type FileInput struct {
	Name        string
	Type        string
	Description string
	Data        io.Reader
}

// Upload sends the file to the API. Identical uploads running at the same
// time for the same session share one request.
func (s *Service) Upload(ctx context.Context, store session.Store, in FileInput) (*model.Document, error) {
	if in.Data == nil || strings.TrimSpace(in.Name) == "" {
		return nil, ErrNoFile
	}

	sess, err := session.Bootstrap(store)
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(in.Data)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	sum := sha256.Sum256(raw)
	key := sess.Token + "\x00" + in.Name + "\x00" + hex.EncodeToString(sum[:])

	// The shared request ignores the first caller's cancellation so joined
	// callers still get a result; each caller stops waiting on its own ctx.
	ch := s.uploads.DoChan(key, func() (any, error) {
		return s.api.UploadDocument(context.WithoutCancel(ctx), sess.Token, client.UploadRequest{
			FileName:    in.Name,
			FileData:    base64.StdEncoding.EncodeToString(raw),
			FileType:    in.Type,
			Description: in.Description,
		})
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		if client.IsUnauthorized(err) {
			return nil, s.expire(store)
		}
		return nil, err
	}
	if shared {
		s.log.DebugContext(ctx, "upload_deduplicated", "file_name", in.Name)
	}

	doc := v.(*model.Document)
	s.log.InfoContext(ctx, "document_uploaded", "user_id", sess.User.ID, "document_id", doc.ID)
	return doc, nil
}

// Delete removes a document.
func (s *Service) Delete(ctx context.Context, store session.Store, id int64) error {
	sess, err := session.Bootstrap(store)
	if err != nil {
		return err
	}
	if err := s.api.DeleteDocument(ctx, sess.Token, id); err != nil {
		if client.IsUnauthorized(err) {
			return s.expire(store)
		}
		return err
	}
	return nil
}

// Login authenticates and stores the credentials.
func (s *Service) Login(ctx context.Context, store session.Store, email, password string) (*model.User, error) {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := session.Save(store, resp.Token, resp.User); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &resp.User, nil
}

// Register creates an account and stores the credentials.
func (s *Service) Register(ctx context.Context, store session.Store, email, password, fullName string) (*model.User, error) {
	resp, err := s.api.Register(ctx, email, password, fullName)
	if err != nil {
		return nil, err
	}
	if err := session.Save(store, resp.Token, resp.User); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &resp.User, nil
}

// Verify checks the stored token with the API and returns the fresh user.
func (s *Service) Verify(ctx context.Context, store session.Store) (*model.User, error) {
	sess, err := session.Bootstrap(store)
	if err != nil {
		return nil, err
	}
	u, err := s.api.Verify(ctx, sess.Token)
	if err != nil {
		if client.IsUnauthorized(err) {
			return nil, s.expire(store)
		}
		return nil, err
	}
	return u, nil
}

// Logout forgets the credentials.
func (s *Service) Logout(store session.Store) error {
	return session.Clear(store)
}

func (s *Service) expire(store session.Store) error {
	if err := session.Clear(store); err != nil {
		return errors.Join(ErrSessionExpired, err)
	}
	return ErrSessionExpired
}

// FormatFileSize renders a byte count with one decimal for KB and MB.
func FormatFileSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}
