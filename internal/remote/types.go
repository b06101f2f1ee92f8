package remote

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/docsorter/backend/internal/models"
)

// flexString accepts a JSON string or number. Project numbers and ids are
// not typed consistently across API versions.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

// envelope wraps every list item and single-object response.
type envelope[T any] struct {
	Data T `json:"data"`
}

type listResponse[T any] struct {
	Items []envelope[T] `json:"items"`
}

type projectData struct {
	ProjectID   flexString `json:"projectId"`
	Number      flexString `json:"number"`
	ProjectName string     `json:"projectName"`
}

func (p projectData) model() models.ProjectSummary {
	return models.ProjectSummary{
		ProjectID:   string(p.ProjectID),
		Number:      string(p.Number),
		ProjectName: p.ProjectName,
	}
}

type fileAreaData struct {
	FileAreaID   flexString `json:"fileAreaId"`
	FileAreaName string     `json:"fileAreaName"`
}

type folderData struct {
	FolderID   flexString `json:"folderId"`
	FolderName string     `json:"folderName"`
}

type uploadSlotData struct {
	UploadGUID string `json:"uploadGuid"`
}

type finalizeRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FolderID string `json:"folderId"`
}

type receiptData struct {
	FileID   flexString `json:"fileId"`
	FileName string     `json:"fileName"`
}

// leafName returns the last segment of a taxonomy path.
func leafName(p string) string {
	return p[strings.LastIndex(p, "/")+1:]
}
