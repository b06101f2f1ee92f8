package models

import "time"

// FileRecord is one ingested file and the metadata the naming engine needs.
// An unset field is the empty string.
type FileRecord struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	Content      []byte    `json:"-"`
	Extension    string    `json:"extension"`
	MIMEType     string    `json:"mimeType,omitempty"`
	Size         int64     `json:"size"`
	DocumentType string    `json:"documentType"`
	Phase        string    `json:"phase"`
	Role         string    `json:"role"`
	Title        string    `json:"title"`
	Date         string    `json:"date"`
	TargetPath   string    `json:"targetPath"`
	AddedAt      time.Time `json:"addedAt"`
}
