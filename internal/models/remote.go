package models

import "encoding/json"

// ProjectSummary is a project as listed by the document service.
type ProjectSummary struct {
	ProjectID   string `json:"projectId"`
	Number      string `json:"number"`
	ProjectName string `json:"projectName"`
}

// Label renders the project the way the project picker shows it.
func (p ProjectSummary) Label() string {
	return p.Number + " - " + p.ProjectName
}

// FileArea is a document container scoped to one project.
type FileArea struct {
	FileAreaID   string `json:"fileAreaId"`
	FileAreaName string `json:"fileAreaName,omitempty"`
}

// Folder is a folder inside a file area.
type Folder struct {
	FolderID   string `json:"folderId"`
	FolderName string `json:"folderName"`
}

// UploadReceipt is what the service returns after a finalized upload.
type UploadReceipt struct {
	FileID   string          `json:"fileId,omitempty" msgpack:"fileId,omitempty"`
	FileName string          `json:"fileName,omitempty" msgpack:"fileName,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty" msgpack:"raw,omitempty"`
}

// ProjectBinding is the memoized resolution of a project code.
type ProjectBinding struct {
	ProjectCode string `json:"projectCode"`
	ProjectID   string `json:"projectId"`
	FileAreaID  string `json:"fileAreaId"`
	ProjectName string `json:"projectName"`
}
