package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/docsorter/backend/internal/archive"
	"github.com/docsorter/backend/internal/models"
	"github.com/docsorter/backend/internal/naming"
	"github.com/docsorter/backend/internal/taxonomy"
	"github.com/docsorter/backend/internal/upload"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyName       = errors.New("file name is empty")
	ErrDuplicateFile   = errors.New("file already added")
	ErrFileNotFound    = errors.New("file not found")
	ErrNoRemote        = errors.New("no document service configured")
	ErrEmptyProject    = errors.New("project code is empty")
	ErrUnknownCodeKind = errors.New("unknown code kind")
)

// Options configures a Run.
type Options struct {
	ProjectCode string
	// Taxonomy defaults to taxonomy.Default().
	Taxonomy *taxonomy.Taxonomy
	// Codes seeds the run's code tables; the run works on a copy.
	// Defaults to naming.DefaultCodeTables().
	Codes *naming.CodeTables
	// Remote may be nil, in which case Upload fails with ErrNoRemote.
	Remote       upload.Remote
	DocumentKind string
	Logger       logrus.FieldLogger
}

// Run is one batch: the ingested records, the run's code tables and the
// upload bindings. All methods are safe for concurrent use; they are
// serialized by one lock, so a batch upload blocks other calls on the
// same run until it finishes.
type Run struct {
	mu sync.Mutex

	id          string
	projectCode string
	createdAt   time.Time

	taxonomy  *taxonomy.Taxonomy
	seedCodes *naming.CodeTables
	codes     *naming.CodeTables
	records   []*models.FileRecord
	builder   *archive.Builder
	uploader  *upload.Orchestrator
	log       logrus.FieldLogger
}

// NewRun creates an empty run.
func NewRun(opts Options) (*Run, error) {
	code := strings.TrimSpace(opts.ProjectCode)
	if code == "" {
		return nil, ErrEmptyProject
	}
	if opts.Taxonomy == nil {
		opts.Taxonomy = taxonomy.Default()
	}
	if opts.Codes == nil {
		opts.Codes = naming.DefaultCodeTables()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	r := &Run{
		id:          uuid.New().String(),
		projectCode: code,
		createdAt:   time.Now(),
		taxonomy:    opts.Taxonomy,
		seedCodes:   opts.Codes.Clone(),
		codes:       opts.Codes.Clone(),
		builder:     archive.NewBuilder(opts.Taxonomy),
	}
	r.log = opts.Logger.WithFields(logrus.Fields{"run": r.id[:8], "project": code})
	if opts.Remote != nil {
		uopts := []upload.Option{upload.WithLogger(opts.Logger)}
		if opts.DocumentKind != "" {
			uopts = append(uopts, upload.WithDocumentKind(opts.DocumentKind))
		}
		r.uploader = upload.NewOrchestrator(opts.Remote, uopts...)
	}
	return r, nil
}

// ID returns the run id.
func (r *Run) ID() string { return r.id }

// ProjectCode returns the project code every filename starts with.
func (r *Run) ProjectCode() string { return r.projectCode }

// Taxonomy returns the run's folder taxonomy.
func (r *Run) Taxonomy() *taxonomy.Taxonomy { return r.taxonomy }

// Info summarizes the run.
func (r *Run) Info() models.RunInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := models.RunInfo{
		ID:          r.id,
		ProjectCode: r.projectCode,
		FileCount:   len(r.records),
		Complete:    r.completeLocked(),
		CreatedAt:   r.createdAt,
	}
	if r.uploader != nil {
		if b, ok := r.uploader.Binding(r.projectCode); ok {
			info.Bound = true
			info.ProjectID = b.ProjectID
			info.ProjectName = b.ProjectName
		}
	}
	return info
}

// AddFile ingests one file. The title defaults to the filename stem.
// Original names are unique within a run.
func (r *Run) AddFile(name string, content []byte) (*FileView, error) {
	_, base := splitDir(strings.TrimSpace(name))
	if base == "" {
		return nil, ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.OriginalName == base {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFile, base)
		}
	}

	stem, ext := naming.SplitName(base)
	rec := &models.FileRecord{
		ID:           uuid.New().String(),
		OriginalName: base,
		Content:      content,
		Extension:    ext,
		MIMEType:     mimetype.Detect(content).String(),
		Size:         int64(len(content)),
		Title:        naming.NormalizeTitle(stem),
		AddedAt:      time.Now(),
	}
	r.records = append(r.records, rec)

	r.log.WithFields(logrus.Fields{"file": base, "bytes": rec.Size, "mime": rec.MIMEType}).Debug("file added")
	v := r.viewLocked(rec)
	return &v, nil
}

// Files returns every record in ingestion order.
func (r *Run) Files() []FileView {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]FileView, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, r.viewLocked(rec))
	}
	return out
}

// File returns one record.
func (r *Run) File(id string) (*FileView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.findLocked(id)
	if err != nil {
		return nil, err
	}
	v := r.viewLocked(rec)
	return &v, nil
}

// Remove drops one record.
func (r *Run) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.records {
		if rec.ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrFileNotFound, id)
}

// Clear drops every record.
func (r *Run) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}

// Progress counts complete records.
func (r *Run) Progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Progress{Complete: r.completeLocked(), Total: len(r.records)}
}

func (r *Run) completeLocked() int {
	n := 0
	for _, rec := range r.records {
		if naming.IsComplete(rec) {
			n++
		}
	}
	return n
}

// Codes returns a snapshot of the run's code tables.
func (r *Run) Codes() CodeSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return CodeSnapshot{
		DocumentTypes: r.codes.DocumentTypes.Entries(),
		Phases:        r.codes.Phases.Entries(),
		Roles:         r.codes.Roles.Entries(),
	}
}

// AddCode appends a code to one of the run's tables.
func (r *Run) AddCode(kind naming.CodeKind, code, description string) (naming.AddResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table := r.codes.Table(kind)
	if table == nil {
		return naming.AddResult{}, fmt.Errorf("%w: %q", ErrUnknownCodeKind, kind)
	}
	res := table.Add(code, description)
	if res.OK {
		r.log.WithFields(logrus.Fields{"kind": kind, "code": res.Code}).Info("code added")
	}
	return res, nil
}

// UploadPlan groups the complete records by target path, in order of first
// appearance, with their derived filenames. Two records deriving the same
// filename in the same folder yield an *archive.DuplicateTargetPathError.
func (r *Run) UploadPlan() ([]models.FolderFiles, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.planLocked()
}

func (r *Run) planLocked() ([]models.FolderFiles, error) {
	var plan []models.FolderFiles
	index := make(map[string]int)
	seen := make(map[string]string)
	for _, rec := range r.records {
		if !naming.IsComplete(rec) {
			continue
		}
		p := naming.DeriveArchivePath(rec, r.projectCode)
		if first, dup := seen[p]; dup {
			return nil, &archive.DuplicateTargetPathError{Path: p, First: first, Second: rec.OriginalName}
		}
		seen[p] = rec.OriginalName

		i, ok := index[rec.TargetPath]
		if !ok {
			i = len(plan)
			index[rec.TargetPath] = i
			plan = append(plan, models.FolderFiles{Path: rec.TargetPath})
		}
		plan[i].Files = append(plan[i].Files, models.UploadItem{
			FileName: naming.DeriveFilename(rec, r.projectCode),
			Content:  rec.Content,
		})
	}
	return plan, nil
}

// BuildArchive zips the complete records under the taxonomy skeleton.
func (r *Run) BuildArchive() ([]byte, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, n, err := r.builder.Build(r.records, r.projectCode)
	if err != nil {
		r.log.WithError(err).Warn("archive build refused")
		return nil, 0, err
	}
	r.log.WithFields(logrus.Fields{"files": n, "bytes": len(data)}).Info("archive built")
	return data, n, nil
}

// Bind resolves the project on the document service.
func (r *Run) Bind(ctx context.Context) (models.ProjectBinding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.uploader == nil {
		return models.ProjectBinding{}, ErrNoRemote
	}
	return r.uploader.EnsureBound(ctx, r.projectCode)
}

// Upload sends the upload plan to the document service. onOutcome, if set,
// sees each file's outcome as it completes.
func (r *Run) Upload(ctx context.Context, onOutcome func(models.PerFileOutcome)) (models.BatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.uploader == nil {
		return models.BatchResult{}, ErrNoRemote
	}
	plan, err := r.planLocked()
	if err != nil {
		r.log.WithError(err).Warn("upload refused")
		return models.BatchResult{}, err
	}
	r.log.WithField("folders", len(plan)).Info("upload started")
	return r.uploader.UploadBatch(ctx, r.projectCode, plan, onOutcome), nil
}

// Reset starts the run over: records, added codes and the project binding
// are dropped.
func (r *Run) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = nil
	r.codes = r.seedCodes.Clone()
	if r.uploader != nil {
		r.uploader.ResetAll()
	}
	r.log.Info("run reset")
}

func (r *Run) findLocked(id string) (*models.FileRecord, error) {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrFileNotFound, id)
}

func (r *Run) viewLocked(rec *models.FileRecord) FileView {
	v := FileView{
		FileRecord: *rec,
		Missing:    naming.MissingFields(rec),
		Filename:   naming.DeriveFilename(rec, r.projectCode),
	}
	v.Complete = len(v.Missing) == 0
	if v.Complete {
		v.ArchivePath = naming.DeriveArchivePath(rec, r.projectCode)
	}
	return v
}

// splitDir strips any client-side directory from an uploaded name.
func splitDir(name string) (dir, base string) {
	name = strings.ReplaceAll(name, "\\", "/")
	i := strings.LastIndex(name, "/")
	return name[:i+1], name[i+1:]
}
