// Package remote is a thin wrapper around the document service REST API.
// The client keeps no state between calls.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/docsorter/backend/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is the public API root of the document service.
	DefaultBaseURL = "https://node2.field.dalux.com/service/api"

	// APIKeyHeader carries the static credential on every request.
	APIKeyHeader = "X-API-KEY"

	// DefaultDocumentKind is the fileType sent on finalize.
	DefaultDocumentKind = "document"

	DefaultRequestTimeout = 30 * time.Second
	DefaultUploadTimeout  = 60 * time.Second
)

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string

	// RequestTimeout bounds every call except content streaming.
	RequestTimeout time.Duration
	// UploadTimeout bounds the content streaming call.
	UploadTimeout time.Duration

	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// Client talks to the document service.
type Client struct {
	http           *resty.Client
	requestTimeout time.Duration
	uploadTimeout  time.Duration
	log            logrus.FieldLogger
}

// New creates a Client. Zero values in cfg fall back to the defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	var rc *resty.Client
	if cfg.HTTPClient != nil {
		rc = resty.NewWithClient(cfg.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader(APIKeyHeader, cfg.APIKey).
		SetHeader("Accept", "application/json")

	return &Client{
		http:           rc,
		requestTimeout: cfg.RequestTimeout,
		uploadTimeout:  cfg.UploadTimeout,
		log:            cfg.Logger.WithField("component", "remote"),
	}
}

// do runs one request under its own deadline and turns every failure into a
// CallError.
func (c *Client) do(ctx context.Context, op string, timeout time.Duration, fn func(r *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res, err := fn(c.http.R().SetContext(ctx))
	if err != nil {
		c.log.WithFields(logrus.Fields{"op": op, "elapsed": time.Since(start)}).WithError(err).Warn("remote call failed")
		return nil, &CallError{Op: op, Err: err}
	}
	if !res.IsSuccess() {
		body := strings.TrimSpace(res.String())
		if len(body) > 512 {
			body = body[:512] + "..."
		}
		c.log.WithFields(logrus.Fields{"op": op, "status": res.StatusCode()}).Warn("remote call rejected")
		return nil, &CallError{Op: op, StatusCode: res.StatusCode(), Err: fmt.Errorf("%s: %q", res.Status(), body)}
	}
	c.log.WithFields(logrus.Fields{"op": op, "status": res.StatusCode(), "elapsed": time.Since(start)}).Debug("remote call")
	return res, nil
}

func decode(op string, res *resty.Response, v any) error {
	if err := json.Unmarshal(res.Body(), v); err != nil {
		return &CallError{Op: op, StatusCode: res.StatusCode(), Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// ListProjects returns every project visible to the API key.
func (c *Client) ListProjects(ctx context.Context) ([]models.ProjectSummary, error) {
	res, err := c.do(ctx, OpListProjects, c.requestTimeout, func(r *resty.Request) (*resty.Response, error) {
		return r.Get("/5.1/projects")
	})
	if err != nil {
		return nil, err
	}

	var list listResponse[projectData]
	if err := decode(OpListProjects, res, &list); err != nil {
		return nil, err
	}
	projects := make([]models.ProjectSummary, 0, len(list.Items))
	for _, item := range list.Items {
		projects = append(projects, item.Data.model())
	}
	return projects, nil
}

// FindProjectByCode scans ListProjects for a project whose number equals
// code, ignoring surrounding whitespace on both sides. It returns
// ErrNotFound when nothing matches.
func (c *Client) FindProjectByCode(ctx context.Context, code string) (*models.ProjectSummary, error) {
	projects, err := c.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	want := strings.TrimSpace(code)
	for i := range projects {
		if strings.TrimSpace(projects[i].Number) == want {
			return &projects[i], nil
		}
	}
	return nil, fmt.Errorf("project %q: %w", code, ErrNotFound)
}

// ListFileAreas returns the file areas of a project in service order.
func (c *Client) ListFileAreas(ctx context.Context, projectID string) ([]models.FileArea, error) {
	res, err := c.do(ctx, OpListFileAreas, c.requestTimeout, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParams(map[string]string{"projectId": projectID}).
			Get("/5.1/projects/{projectId}/file_areas")
	})
	if err != nil {
		return nil, err
	}

	var list listResponse[fileAreaData]
	if err := decode(OpListFileAreas, res, &list); err != nil {
		return nil, err
	}
	areas := make([]models.FileArea, 0, len(list.Items))
	for _, item := range list.Items {
		areas = append(areas, models.FileArea{
			FileAreaID:   string(item.Data.FileAreaID),
			FileAreaName: item.Data.FileAreaName,
		})
	}
	return areas, nil
}

// ListFolders returns every folder of a file area.
func (c *Client) ListFolders(ctx context.Context, projectID, fileAreaID string) ([]models.Folder, error) {
	res, err := c.do(ctx, OpListFolders, c.requestTimeout, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParams(map[string]string{"projectId": projectID, "fileAreaId": fileAreaID}).
			Get("/5.1/projects/{projectId}/file_areas/{fileAreaId}/folders")
	})
	if err != nil {
		return nil, err
	}

	var list listResponse[folderData]
	if err := decode(OpListFolders, res, &list); err != nil {
		return nil, err
	}
	folders := make([]models.Folder, 0, len(list.Items))
	for _, item := range list.Items {
		folders = append(folders, models.Folder{
			FolderID:   string(item.Data.FolderID),
			FolderName: item.Data.FolderName,
		})
	}
	return folders, nil
}

// FindFolderByPath matches only the last segment of path against folder
// names. The service listing is flat, so two taxonomy branches ending in the
// same leaf resolve to whichever folder the service lists first.
func (c *Client) FindFolderByPath(ctx context.Context, projectID, fileAreaID, path string) (*models.Folder, error) {
	folders, err := c.ListFolders(ctx, projectID, fileAreaID)
	if err != nil {
		return nil, err
	}
	leaf := leafName(path)
	for i := range folders {
		if folders[i].FolderName == leaf {
			return &folders[i], nil
		}
	}
	return nil, fmt.Errorf("folder %q: %w", path, ErrNotFound)
}

// RequestUploadSlot opens an upload and returns its token.
func (c *Client) RequestUploadSlot(ctx context.Context, projectID, fileAreaID string) (string, error) {
	res, err := c.do(ctx, OpRequestUploadSlot, c.requestTimeout, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParams(map[string]string{"projectId": projectID, "fileAreaId": fileAreaID}).
			Post("/1.0/projects/{projectId}/file_areas/{fileAreaId}/upload")
	})
	if err != nil {
		return "", err
	}

	var slot envelope[uploadSlotData]
	if err := decode(OpRequestUploadSlot, res, &slot); err != nil {
		return "", err
	}
	if slot.Data.UploadGUID == "" {
		return "", &CallError{Op: OpRequestUploadSlot, StatusCode: res.StatusCode(), Err: errors.New("response has no uploadGuid")}
	}
	return slot.Data.UploadGUID, nil
}

// StreamContent sends the whole payload as a single byte range. There is
// no chunking or resume.
func (c *Client) StreamContent(ctx context.Context, projectID, fileAreaID, uploadToken string, content []byte, filename string) error {
	size := len(content)
	if size == 0 {
		return &CallError{Op: OpStreamContent, Err: ErrEmptyContent}
	}

	_, err := c.do(ctx, OpStreamContent, c.uploadTimeout, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParams(map[string]string{
			"projectId":  projectID,
			"fileAreaId": fileAreaID,
			"uploadGuid": uploadToken,
		}).
			SetHeader("Content-Disposition", fmt.Sprintf("form-data; filename=%q", filename)).
			SetHeader("Content-Range", fmt.Sprintf("bytes 0-%d/%d", size-1, size)).
			SetHeader("Content-Type", "application/octet-stream").
			SetBody(content).
			Post("/1.0/projects/{projectId}/file_areas/{fileAreaId}/upload/{uploadGuid}")
	})
	return err
}

// Finalize commits an upload into folderID. An empty documentKind means
// DefaultDocumentKind.
func (c *Client) Finalize(ctx context.Context, projectID, fileAreaID, uploadToken, filename, folderID, documentKind string) (*models.UploadReceipt, error) {
	if documentKind == "" {
		documentKind = DefaultDocumentKind
	}

	res, err := c.do(ctx, OpFinalize, c.requestTimeout, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParams(map[string]string{
			"projectId":  projectID,
			"fileAreaId": fileAreaID,
			"uploadGuid": uploadToken,
		}).
			SetHeader("Content-Type", "application/json").
			SetBody(finalizeRequest{FileName: filename, FileType: documentKind, FolderID: folderID}).
			Post("/2.0/projects/{projectId}/file_areas/{fileAreaId}/upload/{uploadGuid}/finalize")
	})
	if err != nil {
		return nil, err
	}

	receipt := &models.UploadReceipt{}
	if json.Valid(res.Body()) {
		receipt.Raw = append(json.RawMessage(nil), res.Body()...)
	}
	var data envelope[receiptData]
	if json.Unmarshal(res.Body(), &data) == nil {
		receipt.FileID = string(data.Data.FileID)
		receipt.FileName = data.Data.FileName
	}
	if receipt.FileName == "" {
		receipt.FileName = filename
	}
	return receipt, nil
}
