// Package upload drives the multi-step upload protocol of the document
// service and keeps per-project bindings for one run.
package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docsorter/backend/internal/models"
	"github.com/docsorter/backend/internal/remote"
	"github.com/sirupsen/logrus"
)

// State is the binding state of one project code.
type State string

const (
	StateUnbound State = "unbound"
	StateBound   State = "bound"
)

// Remote defines the subset of the remote client the orchestrator needs.
type Remote interface {
	FindProjectByCode(ctx context.Context, code string) (*models.ProjectSummary, error)
	ListFileAreas(ctx context.Context, projectID string) ([]models.FileArea, error)
	FindFolderByPath(ctx context.Context, projectID, fileAreaID, path string) (*models.Folder, error)
	RequestUploadSlot(ctx context.Context, projectID, fileAreaID string) (string, error)
	StreamContent(ctx context.Context, projectID, fileAreaID, uploadToken string, content []byte, filename string) error
	Finalize(ctx context.Context, projectID, fileAreaID, uploadToken, filename, folderID, documentKind string) (*models.UploadReceipt, error)
}

// Orchestrator uploads files for one run. It is not safe for concurrent
// use; callers serialize access.
type Orchestrator struct {
	remote       Remote
	documentKind string
	bindings     map[string]models.ProjectBinding
	log          logrus.FieldLogger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDocumentKind sets the fileType sent on finalize.
func WithDocumentKind(kind string) Option {
	return func(o *Orchestrator) { o.documentKind = kind }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// NewOrchestrator creates an orchestrator with no bindings.
func NewOrchestrator(r Remote, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		remote:       r,
		documentKind: remote.DefaultDocumentKind,
		bindings:     make(map[string]models.ProjectBinding),
		log:          logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.WithField("component", "upload")
	return o
}

// State reports whether code is bound.
func (o *Orchestrator) State(code string) State {
	if _, ok := o.bindings[code]; ok {
		return StateBound
	}
	return StateUnbound
}

// Binding returns the cached binding for code.
func (o *Orchestrator) Binding(code string) (models.ProjectBinding, bool) {
	b, ok := o.bindings[code]
	return b, ok
}

// EnsureBound resolves the project and its first file area once per code.
// Later calls return the cached binding without touching the remote. Other
// file areas of the project are never used.
func (o *Orchestrator) EnsureBound(ctx context.Context, code string) (models.ProjectBinding, error) {
	if b, ok := o.bindings[code]; ok {
		return b, nil
	}

	project, err := o.remote.FindProjectByCode(ctx, code)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return models.ProjectBinding{}, &ProjectSetupError{Code: code, Reason: "no project with this number"}
		}
		return models.ProjectBinding{}, &ProjectSetupError{Code: code, Reason: "project lookup failed", Err: err}
	}

	areas, err := o.remote.ListFileAreas(ctx, project.ProjectID)
	if err != nil {
		return models.ProjectBinding{}, &ProjectSetupError{Code: code, Reason: "file area lookup failed", Err: err}
	}
	if len(areas) == 0 {
		return models.ProjectBinding{}, &ProjectSetupError{Code: code, Reason: "project has no file areas"}
	}

	b := models.ProjectBinding{
		ProjectCode: code,
		ProjectID:   project.ProjectID,
		FileAreaID:  areas[0].FileAreaID,
		ProjectName: project.ProjectName,
	}
	o.bindings[code] = b
	o.log.WithFields(logrus.Fields{
		"project":  code,
		"id":       b.ProjectID,
		"fileArea": b.FileAreaID,
		"areas":    len(areas),
	}).Info("project bound")
	return b, nil
}

// ResolveFolder finds the remote folder for a taxonomy path. The code must
// already be bound.
func (o *Orchestrator) ResolveFolder(ctx context.Context, code, path string) (*models.Folder, error) {
	b, ok := o.bindings[code]
	if !ok {
		return nil, fmt.Errorf("resolving %q for %q: %w", path, code, ErrUnbound)
	}

	folder, err := o.remote.FindFolderByPath(ctx, b.ProjectID, b.FileAreaID, path)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return nil, &FolderNotFoundError{Path: path, Err: err}
		}
		return nil, err
	}
	return folder, nil
}

// UploadOne runs bind, folder lookup, slot, stream and finalize in that
// order and stops at the first failing step. A half-created upload slot is
// left to the service. Once started, the steps ignore cancellation of ctx.
func (o *Orchestrator) UploadOne(ctx context.Context, code, path, filename string, content []byte) (*models.UploadReceipt, error) {
	ctx = context.WithoutCancel(ctx)
	log := o.log.WithFields(logrus.Fields{"project": code, "folder": path, "file": filename})
	start := time.Now()

	b, err := o.EnsureBound(ctx, code)
	if err != nil {
		return nil, err
	}
	folder, err := o.ResolveFolder(ctx, code, path)
	if err != nil {
		return nil, err
	}
	token, err := o.remote.RequestUploadSlot(ctx, b.ProjectID, b.FileAreaID)
	if err != nil {
		return nil, err
	}
	if err := o.remote.StreamContent(ctx, b.ProjectID, b.FileAreaID, token, content, filename); err != nil {
		return nil, err
	}
	receipt, err := o.remote.Finalize(ctx, b.ProjectID, b.FileAreaID, token, filename, folder.FolderID, o.documentKind)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"bytes": len(content), "elapsed": time.Since(start)}).Info("file uploaded")
	return receipt, nil
}

// UploadBatch uploads every file in input order and records one outcome
// per file. A failing file never stops the batch. If the project cannot be
// bound, every file fails with the setup error and nothing else is sent.
// Cancelling ctx fails the files not yet started. onOutcome, if set, sees
// each outcome as soon as it is known.
func (o *Orchestrator) UploadBatch(ctx context.Context, code string, batch []models.FolderFiles, onOutcome func(models.PerFileOutcome)) models.BatchResult {
	result := models.BatchResult{Outcomes: make([]models.PerFileOutcome, 0, countFiles(batch))}
	record := func(out models.PerFileOutcome) {
		result.Add(out)
		if onOutcome != nil {
			onOutcome(out)
		}
	}

	_, setupErr := o.EnsureBound(ctx, code)
	if setupErr != nil {
		o.log.WithField("project", code).WithError(setupErr).Warn("batch aborted before upload")
	}

	for _, group := range batch {
		for _, item := range group.Files {
			out := models.PerFileOutcome{FileName: item.FileName, FolderPath: group.Path}

			var err error
			switch {
			case setupErr != nil:
				err = setupErr
			case ctx.Err() != nil:
				err = fmt.Errorf("batch stopped: %w", ctx.Err())
			default:
				out.Receipt, err = o.UploadOne(ctx, code, group.Path, item.FileName, item.Content)
			}

			if err != nil {
				out.Status = models.OutcomeFailed
				out.Receipt = nil
				out.Error = err.Error()
				o.log.WithFields(logrus.Fields{"project": code, "folder": group.Path, "file": item.FileName}).
					WithError(err).Warn("file upload failed")
			} else {
				out.Status = models.OutcomeSuccess
			}
			record(out)
		}
	}

	o.log.WithFields(logrus.Fields{
		"project": code,
		"success": result.SuccessCount,
		"failed":  result.FailedCount,
	}).Info("batch finished")
	return result
}

// Reset drops the binding for code so the next call resolves it again.
func (o *Orchestrator) Reset(code string) {
	delete(o.bindings, code)
}

// ResetAll drops every binding.
func (o *Orchestrator) ResetAll() {
	clear(o.bindings)
}

func countFiles(batch []models.FolderFiles) int {
	n := 0
	for _, g := range batch {
		n += len(g.Files)
	}
	return n
}
