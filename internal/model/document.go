package model

import "time"

// Document is an uploaded file record tracked by the backend.
// StoragePath, UserID and DeletedAt are persistence details and are not part
// of the JSON contract; FileURL is filled at read time.
type Document struct {
	ID          int64      `json:"id"`
	FileName    string     `json:"file_name"`
	FileSize    int64      `json:"file_size"`
	FileType    string     `json:"file_type"`
	FileURL     string     `json:"file_url"`
	UploadedAt  time.Time  `json:"uploaded_at"`
	Description *string    `json:"description,omitempty"`
	UserName    *string    `json:"user_name,omitempty"`
	UserID      int64      `json:"-"`
	StoragePath string     `json:"-"`
	DeletedAt   *time.Time `json:"-"`
}
