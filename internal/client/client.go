// Package client talks to the docdash JSON API on behalf of the dashboard
// and the CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docdash/internal/model"
)

// AuthTokenHeader is where the API expects the token.
const AuthTokenHeader = "X-Auth-Token"

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// UploadRequest is the JSON body of POST /documents.
type UploadRequest struct {
	FileName    string `json:"file_name"`
	FileData    string `json:"file_data"`
	FileType    string `json:"file_type,omitempty"`
	Description string `json:"description,omitempty"`
}

// AuthResponse is returned by Login and Register.
type AuthResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// listPageSize matches the largest page the API hands out.
const listPageSize = 500

// Client is safe for concurrent use.
type Client struct {
	base     *url.URL
	http     *http.Client
	pageSize int
}

// New returns a Client for baseURL. Requests are traced through otelhttp.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api url %q must be absolute", baseURL)
	}
	return &Client{
		base: u,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		pageSize: listPageSize,
	}, nil
}

// ListDocuments fetches every document visible to token, following the
// API's pages until its total is reached. userID filters by owner and is
// ignored by the API for non-admins.
func (c *Client) ListDocuments(ctx context.Context, token string, userID *int64) ([]model.Document, error) {
	q := url.Values{}
	if userID != nil {
		q.Set("user_id", strconv.FormatInt(*userID, 10))
	}
	q.Set("limit", strconv.Itoa(c.pageSize))

	var docs []model.Document
	for {
		q.Set("offset", strconv.Itoa(len(docs)))
		var page struct {
			Documents []model.Document `json:"documents"`
			Total     int              `json:"total"`
		}
		if err := c.do(ctx, http.MethodGet, "/documents", token, q, nil, &page); err != nil {
			return nil, err
		}
		docs = append(docs, page.Documents...)
		if len(page.Documents) == 0 || len(docs) >= page.Total {
			return docs, nil
		}
	}
}

// UploadDocument posts a base64 payload.
func (c *Client) UploadDocument(ctx context.Context, token string, req UploadRequest) (*model.Document, error) {
	var out struct {
		Document *model.Document `json:"document"`
	}
	if err := c.do(ctx, http.MethodPost, "/documents", token, nil, req, &out); err != nil {
		return nil, err
	}
	if out.Document == nil {
		return nil, errors.New("api: upload response without document")
	}
	return out.Document, nil
}

// DeleteDocument removes a document.
func (c *Client) DeleteDocument(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, "/documents/"+strconv.FormatInt(id, 10), token, nil, nil, nil)
}

// DownloadDocument streams a document's content. The caller closes the reader.
func (c *Client) DownloadDocument(ctx context.Context, token string, id int64) (io.ReadCloser, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/documents/"+strconv.FormatInt(id, 10)+"/download", token, nil, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		return nil, "", decodeError(resp)
	}

	name := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	return resp.Body, name, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth", "", nil, map[string]string{
		"action":   "login",
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth", "", nil, map[string]string{
		"action":    "register",
		"email":     email,
		"password":  password,
		"full_name": fullName,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify returns the user a token belongs to.
func (c *Client) Verify(ctx context.Context, token string) (*model.User, error) {
	var out struct {
		Valid bool        `json:"valid"`
		User  *model.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/auth", "", nil, map[string]string{
		"action": "verify",
		"token":  token,
	}, &out)
	if err != nil {
		return nil, err
	}
	if !out.Valid || out.User == nil {
		return nil, &APIError{Status: http.StatusUnauthorized, Message: "Invalid token"}
	}
	return out.User, nil
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, q url.Values, in any) (*http.Request, error) {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(AuthTokenHeader, token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, q url.Values, in, out any) error {
	req, err := c.newRequest(ctx, method, path, token, q, in)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	}
	return apiErr
}
