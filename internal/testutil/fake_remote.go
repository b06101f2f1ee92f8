// fake_remote.go - Call-counting test double for the document service
package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/docsorter/backend/internal/models"
	"github.com/docsorter/backend/internal/remote"
)

// UploadedFile is one finalized upload seen by FakeRemote
type UploadedFile struct {
	FileName     string
	FolderID     string
	DocumentKind string
	Content      []byte
}

// FakeRemote implements the remote client operations in memory. Lookups
// follow the real client: projects match on trimmed number, folders on
// the last path segment.
type FakeRemote struct {
	mu sync.Mutex

	Projects  []models.ProjectSummary
	FileAreas map[string][]models.FileArea
	Folders   []models.Folder

	// Failures maps an operation name (remote.Op*) to the cause returned
	// as a CallError by every call of that operation.
	Failures map[string]error

	// Latency delays every call.
	Latency time.Duration

	calls    map[string]int
	steps    []string
	slots    map[string][]byte
	uploaded []UploadedFile
	nextSlot int
}

// NewFakeRemote creates a fake with one project "P1" (id "proj-1"), one
// file area and a folder for every given leaf name. Folder ids are
// "folder-" + leaf.
func NewFakeRemote(folderLeaves ...string) *FakeRemote {
	f := &FakeRemote{
		Projects: []models.ProjectSummary{
			{ProjectID: "proj-1", Number: "P1", ProjectName: "Test Project"},
		},
		FileAreas: map[string][]models.FileArea{
			"proj-1": {{FileAreaID: "area-1", FileAreaName: "Documents"}, {FileAreaID: "area-2", FileAreaName: "Archive"}},
		},
		Failures: make(map[string]error),
		calls:    make(map[string]int),
		slots:    make(map[string][]byte),
	}
	for _, leaf := range folderLeaves {
		f.Folders = append(f.Folders, models.Folder{FolderID: "folder-" + leaf, FolderName: leaf})
	}
	return f
}

// Fail makes every call of op fail with cause.
func (f *FakeRemote) Fail(op string, cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Failures[op] = cause
}

func (f *FakeRemote) enter(op string) error {
	f.calls[op]++
	f.steps = append(f.steps, op)
	if f.Latency > 0 {
		time.Sleep(f.Latency)
	}
	if cause, ok := f.Failures[op]; ok {
		return &remote.CallError{Op: op, StatusCode: 500, Err: cause}
	}
	return nil
}

func (f *FakeRemote) ListProjects(_ context.Context) ([]models.ProjectSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(remote.OpListProjects); err != nil {
		return nil, err
	}
	return append([]models.ProjectSummary(nil), f.Projects...), nil
}

func (f *FakeRemote) FindProjectByCode(_ context.Context, code string) (*models.ProjectSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(remote.OpListProjects); err != nil {
		return nil, err
	}
	for i := range f.Projects {
		if strings.TrimSpace(f.Projects[i].Number) == strings.TrimSpace(code) {
			p := f.Projects[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("project %q: %w", code, remote.ErrNotFound)
}

func (f *FakeRemote) ListFileAreas(_ context.Context, projectID string) ([]models.FileArea, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(remote.OpListFileAreas); err != nil {
		return nil, err
	}
	return append([]models.FileArea(nil), f.FileAreas[projectID]...), nil
}

func (f *FakeRemote) FindFolderByPath(_ context.Context, _, _, path string) (*models.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(remote.OpListFolders); err != nil {
		return nil, err
	}
	leaf := path[strings.LastIndex(path, "/")+1:]
	for i := range f.Folders {
		if f.Folders[i].FolderName == leaf {
			folder := f.Folders[i]
			return &folder, nil
		}
	}
	return nil, fmt.Errorf("folder %q: %w", path, remote.ErrNotFound)
}

func (f *FakeRemote) RequestUploadSlot(_ context.Context, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(remote.OpRequestUploadSlot); err != nil {
		return "", err
	}
	f.nextSlot++
	token := fmt.Sprintf("slot-%d", f.nextSlot)
	f.slots[token] = nil
	return token, nil
}

func (f *FakeRemote) StreamContent(_ context.Context, _, _, uploadToken string, content []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(remote.OpStreamContent); err != nil {
		return err
	}
	if len(content) == 0 {
		return &remote.CallError{Op: remote.OpStreamContent, Err: remote.ErrEmptyContent}
	}
	if _, ok := f.slots[uploadToken]; !ok {
		return &remote.CallError{Op: remote.OpStreamContent, StatusCode: 404, Err: errors.New("unknown upload")}
	}
	f.slots[uploadToken] = append([]byte(nil), content...)
	return nil
}

func (f *FakeRemote) Finalize(_ context.Context, _, _, uploadToken, filename, folderID, documentKind string) (*models.UploadReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(remote.OpFinalize); err != nil {
		return nil, err
	}
	content, ok := f.slots[uploadToken]
	if !ok || content == nil {
		return nil, &remote.CallError{Op: remote.OpFinalize, StatusCode: 409, Err: errors.New("upload has no content")}
	}
	delete(f.slots, uploadToken)
	f.uploaded = append(f.uploaded, UploadedFile{
		FileName:     filename,
		FolderID:     folderID,
		DocumentKind: documentKind,
		Content:      content,
	})
	return &models.UploadReceipt{
		FileID:   fmt.Sprintf("file-%d", len(f.uploaded)),
		FileName: filename,
	}, nil
}

// Calls returns how often op was called.
func (f *FakeRemote) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Steps returns every operation in call order.
func (f *FakeRemote) Steps() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.steps...)
}

// Uploaded returns the finalized uploads in order.
func (f *FakeRemote) Uploaded() []UploadedFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]UploadedFile(nil), f.uploaded...)
}

// ResetCalls clears call counters and recorded steps.
func (f *FakeRemote) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = make(map[string]int)
	f.steps = nil
}
