package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"docdash/internal/dbx"
	"docdash/internal/model"
	"docdash/internal/repository"
	"docdash/internal/storage"
)

var (
	ErrUploadFieldsRequired = errors.New("file_name and file_data required")
	ErrInvalidFileData      = errors.New("file_data is not valid base64")
	ErrFileTooLarge         = errors.New("file is too large")
	ErrIDRequired           = errors.New("id is required")
	ErrNotFound             = errors.New("document not found")
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
	defaultFileType  = "application/octet-stream"
)

// Principal is the authenticated caller of a document operation.
type Principal struct {
	UserID int64
	Role   model.Role
}

// ListQuery holds listing parameters. UserID is honoured for admins only.
type ListQuery struct {
	UserID *int64
	Limit  int
	Offset int
}

// UploadInput mirrors the JSON upload request. FileData is base64, with or
// without a data-URL prefix.
type UploadInput struct {
	FileName    string
	FileData    string
	FileType    string
	Description string
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"documents"`
	Total int              `json:"total"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// List returns documents visible to p, newest first.
	List(ctx context.Context, p Principal, q ListQuery) (*DocumentListResult, error)

	// Upload decodes the payload, stores it, and saves its metadata. The
	// stored object is removed again if the metadata insert fails.
	Upload(ctx context.Context, p Principal, in UploadInput) (*model.Document, error)

	// Get returns a single document visible to p.
	Get(ctx context.Context, p Principal, id int64) (*model.Document, error)

	// Download streams the content of a document visible to p.
	Download(ctx context.Context, p Principal, id int64) (io.ReadCloser, *model.Document, error)

	// Delete soft-deletes a document visible to p and removes its object.
	Delete(ctx context.Context, p Principal, id int64) error
}

// DocumentOptions tunes a DocumentService.
type DocumentOptions struct {
	MaxUploadBytes int64
	PresignTTL     time.Duration
	Logger         *slog.Logger
}

type documentService struct {
	db       dbx.DBTX
	tx       dbx.TxRunner
	repos    repository.Manager
	store    storage.Storage
	opts     DocumentOptions
	sanitize *bluemonday.Policy
	log      *slog.Logger
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(db dbx.DBTX, tx dbx.TxRunner, repos repository.Manager, store storage.Storage, opts DocumentOptions) DocumentService {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = 15 * time.Minute
	}
	return &documentService{
		db:       db,
		tx:       tx,
		repos:    repos,
		store:    store,
		opts:     opts,
		sanitize: bluemonday.StrictPolicy(),
		log:      log.With("component", "documents"),
	}
}

func (s *documentService) List(ctx context.Context, p Principal, q ListQuery) (*DocumentListResult, error) {
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	if q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	f := repository.DocumentFilter{}
	if p.Role.IsAdmin() {
		f.UserID = q.UserID
		f.WithOwner = true
	} else {
		uid := p.UserID
		f.UserID = &uid
	}

	res, err := s.repos.Documents(s.db).List(ctx, f, repository.PageQuery{Limit: q.Limit, Offset: q.Offset})
	if err != nil {
		return nil, err
	}
	for i := range res.Items {
		s.fillURL(ctx, &res.Items[i])
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) Upload(ctx context.Context, p Principal, in UploadInput) (*model.Document, error) {
	name := cleanFileName(in.FileName)
	if name == "" || in.FileData == "" {
		return nil, ErrUploadFieldsRequired
	}

	data, err := decodePayload(in.FileData)
	if err != nil {
		return nil, ErrInvalidFileData
	}
	if s.opts.MaxUploadBytes > 0 && int64(len(data)) > s.opts.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}

	fileType := strings.TrimSpace(in.FileType)
	if fileType == "" {
		fileType = http.DetectContentType(data)
	}
	if fileType == "" {
		fileType = defaultFileType
	}

	key := path.Join("documents", fmt.Sprint(p.UserID), uuid.NewString()+path.Ext(name))
	objInfo, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: fileType,
		Metadata: map[string]string{
			"original-filename": name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &model.Document{
		UserID:      p.UserID,
		FileName:    name,
		FileSize:    int64(len(data)),
		FileType:    fileType,
		StoragePath: objInfo.Key,
	}
	if desc := cleanDescription(s.sanitize, in.Description); desc != "" {
		doc.Description = &desc
	}

	stored, err := s.repos.Documents(s.db).Create(ctx, doc)
	if err != nil {
		if delErr := s.store.Delete(ctx, objInfo.Key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.fillURL(ctx, stored)
	s.log.InfoContext(ctx, "document_uploaded",
		"document_id", stored.ID,
		"user_id", p.UserID,
		"file_size", stored.FileSize,
	)
	return stored, nil
}

func (s *documentService) Get(ctx context.Context, p Principal, id int64) (*model.Document, error) {
	doc, err := s.find(ctx, s.db, p, id)
	if err != nil {
		return nil, err
	}
	s.fillURL(ctx, doc)
	return doc, nil
}

func (s *documentService) Download(ctx context.Context, p Principal, id int64) (io.ReadCloser, *model.Document, error) {
	doc, err := s.find(ctx, s.db, p, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("read storage: %w", err)
	}
	return rc, doc, nil
}

func (s *documentService) Delete(ctx context.Context, p Principal, id int64) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		doc, err := s.find(ctx, tx, p, id)
		if err != nil {
			return err
		}
		if err := s.repos.Documents(tx).SoftDelete(ctx, doc.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		// The row change rolls back if the object cannot be removed.
		if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
			return fmt.Errorf("delete storage: %w", err)
		}
		return nil
	})
}

// find loads a document and hides it from non-admins who do not own it.
func (s *documentService) find(ctx context.Context, db dbx.DBTX, p Principal, id int64) (*model.Document, error) {
	if id <= 0 {
		return nil, ErrIDRequired
	}
	doc, err := s.repos.Documents(db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !p.Role.IsAdmin() && doc.UserID != p.UserID {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *documentService) fillURL(ctx context.Context, doc *model.Document) {
	if doc.StoragePath == "" {
		return
	}
	u, err := s.store.PresignGet(ctx, doc.StoragePath, s.opts.PresignTTL, doc.FileName)
	if err != nil {
		s.log.WarnContext(ctx, "presign_failed", "document_id", doc.ID, "error", err.Error())
		return
	}
	doc.FileURL = u
}

// decodePayload accepts plain base64 or a data URL ("data:<type>;base64,<data>").
func decodePayload(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		i := strings.IndexByte(s, ',')
		if i < 0 {
			return nil, ErrInvalidFileData
		}
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// cleanFileName strips any directory part a client may have sent.
// cleanDescription strips markup and returns plain text. The policy output
// is entity-encoded, so it is decoded again before storing.
func cleanDescription(p *bluemonday.Policy, s string) string {
	return strings.TrimSpace(html.UnescapeString(p.Sanitize(s)))
}

func cleanFileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
