package handler

import (
	"errors"
	"mime"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"docdash/internal/http/middleware"
	"docdash/internal/model"
	"docdash/internal/service"
)

type uploadRequest struct {
	FileName    string `json:"file_name" example:"report.pdf"`
	FileData    string `json:"file_data" example:"JVBERi0xLjQK"`
	FileType    string `json:"file_type,omitempty" example:"application/pdf"`
	Description string `json:"description,omitempty"`
}

type documentResponse struct {
	Document *model.Document `json:"document"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func principal(c *fiber.Ctx) (service.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return service.Principal{}, fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
	}
	return p, nil
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ListDocuments returns the caller's documents, or every document for admins.
//
// @Summary List documents
// @Tags documents
// @Produce json
// @Param X-Auth-Token header string true "token from POST /auth"
// @Param user_id query int false "filter by owner (admins only)"
// @Param limit query int false "page size (default 100, max 500)"
// @Param offset query int false "page offset"
// @Success 200 {object} service.DocumentListResult
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Router /documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return err
		}

		limit, err := strconv.Atoi(c.Query("limit", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		q := service.ListQuery{Limit: limit, Offset: offset}
		if raw := c.Query("user_id"); raw != "" {
			uid, ok := parseID(raw)
			if !ok {
				return writeError(c, fiber.StatusBadRequest, "INVALID_USER_ID", "invalid user_id")
			}
			q.UserID = &uid
		}

		res, err := svc.List(c.UserContext(), p, q)
		if err != nil {
			return internalError(c)
		}
		if res.Items == nil {
			res.Items = []model.Document{}
		}
		return c.JSON(res)
	}
}

// UploadDocument stores a base64-encoded file sent as JSON.
//
// @Summary Upload a document
// @Tags documents
// @Accept json
// @Produce json
// @Param X-Auth-Token header string true "token from POST /auth"
// @Param request body uploadRequest true "file payload"
// @Success 201 {object} documentResponse
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Router /documents [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return err
		}

		var req uploadRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		}

		doc, err := svc.Upload(c.UserContext(), p, service.UploadInput{
			FileName:    req.FileName,
			FileData:    req.FileData,
			FileType:    req.FileType,
			Description: req.Description,
		})
		switch {
		case errors.Is(err, service.ErrUploadFieldsRequired):
			return writeError(c, fiber.StatusBadRequest, "FIELDS_REQUIRED", err.Error())
		case errors.Is(err, service.ErrInvalidFileData):
			return writeError(c, fiber.StatusBadRequest, "INVALID_FILE_DATA", err.Error())
		case errors.Is(err, service.ErrFileTooLarge):
			return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
		case err != nil:
			return internalError(c)
		}
		return c.Status(fiber.StatusCreated).JSON(documentResponse{Document: doc})
	}
}

// GetDocument returns one document with a fresh file_url.
//
// @Summary Get a document
// @Tags documents
// @Produce json
// @Param X-Auth-Token header string true "token from POST /auth"
// @Param id path int true "document id"
// @Success 200 {object} documentResponse
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return err
		}
		id, ok := parseID(c.Params("id"))
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		doc, err := svc.Get(c.UserContext(), p, id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Document not found")
			}
			return internalError(c)
		}
		return c.JSON(documentResponse{Document: doc})
	}
}

// DownloadDocument streams the stored bytes through the API.
//
// @Summary Download document content
// @Tags documents
// @Produce octet-stream
// @Param X-Auth-Token header string true "token from POST /auth"
// @Param id path int true "document id"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Router /documents/{id}/download [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return err
		}
		id, ok := parseID(c.Params("id"))
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		rc, doc, err := svc.Download(c.UserContext(), p, id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Document not found")
			}
			return internalError(c)
		}

		c.Set(fiber.HeaderContentType, doc.FileType)
		c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
		// The body stream is closed by fasthttp once written.
		return c.SendStream(rc, int(doc.FileSize))
	}
}

// DeleteDocument soft-deletes a document. The id comes from the path or,
// for older clients, from the "id" query parameter.
//
// @Summary Delete a document
// @Tags documents
// @Produce json
// @Param X-Auth-Token header string true "token from POST /auth"
// @Param id path int true "document id"
// @Success 200 {object} successResponse
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return err
		}

		raw := c.Params("id")
		if raw == "" {
			raw = c.Query("id")
		}
		if raw == "" {
			return writeError(c, fiber.StatusBadRequest, "ID_REQUIRED", "Document id required")
		}
		id, ok := parseID(raw)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		if err := svc.Delete(c.UserContext(), p, id); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Document not found")
			}
			return internalError(c)
		}
		return c.JSON(successResponse{Success: true})
	}
}
