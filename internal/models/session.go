package models

import "time"

// RunInfo is the caller-visible summary of one batch run.
type RunInfo struct {
	ID          string    `json:"id"`
	ProjectCode string    `json:"projectCode"`
	ProjectID   string    `json:"projectId,omitempty"`
	ProjectName string    `json:"projectName,omitempty"`
	FileCount   int       `json:"fileCount"`
	Complete    int       `json:"complete"`
	Bound       bool      `json:"bound"`
	CreatedAt   time.Time `json:"createdAt"`
}
