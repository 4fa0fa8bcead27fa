package types

import "time"

// FileContext is an uploaded document referenced by id in outgoing chat requests.
type FileContext struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserFile is a file row written by the chat backend after a successful upload.
type UserFile struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	SpaceID   string    `json:"space_id" db:"space_id"`
	Filename  string    `json:"filename" db:"filename"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const (
	MIME_PDF         = "application/pdf"
	MIME_DOCX        = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIME_DOC         = "application/msword"
	MIME_GOOGLE_DOC  = "application/vnd.google-apps.document"
	MIME_OCTET       = "application/octet-stream"
	DEFAULT_MAX_FILE = 10 * 1024 * 1024
)

// ChatAttachMimeTypes are accepted for files attached to a single conversation.
var ChatAttachMimeTypes = []string{MIME_PDF}

// SpaceFileMimeTypes are accepted for files attached to a space.
var SpaceFileMimeTypes = []string{MIME_PDF, MIME_DOCX, MIME_DOC}
