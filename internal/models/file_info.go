package models

import "time"

// ArchiveInfo represents metadata about a stored archive.
type ArchiveInfo struct {
	ID          string    `json:"id" msgpack:"id"`
	Name        string    `json:"name" msgpack:"name"`
	ProjectCode string    `json:"projectCode" msgpack:"projectCode"`
	Size        int64     `json:"size" msgpack:"size"`
	FileCount   int       `json:"fileCount" msgpack:"fileCount"`
	CreatedAt   time.Time `json:"createdAt" msgpack:"createdAt"`
}
