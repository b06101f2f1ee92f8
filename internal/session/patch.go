package session

import (
	"strings"

	"github.com/docsorter/backend/internal/models"
	"github.com/docsorter/backend/internal/naming"
)

// FileView is a record together with everything derived from it. The
// derived fields are recomputed on every read.
type FileView struct {
	models.FileRecord
	Complete    bool     `json:"complete"`
	Missing     []string `json:"missing,omitempty"`
	Filename    string   `json:"filename"`
	ArchivePath string   `json:"archivePath,omitempty"`
}

// Progress counts complete records.
type Progress struct {
	Complete int `json:"complete"`
	Total    int `json:"total"`
}

// CodeSnapshot is a copy of the run's three code tables.
type CodeSnapshot struct {
	DocumentTypes []naming.CodeEntry `json:"documentTypes"`
	Phases        []naming.CodeEntry `json:"phases"`
	Roles         []naming.CodeEntry `json:"roles"`
}

// FieldPatch changes metadata fields of one record. Nil fields are left
// alone; an empty string unsets a field.
type FieldPatch struct {
	DocumentType *string `json:"documentType,omitempty" yaml:"documentType"`
	Phase        *string `json:"phase,omitempty" yaml:"phase"`
	Role         *string `json:"role,omitempty" yaml:"role"`
	Title        *string `json:"title,omitempty" yaml:"title"`
	Date         *string `json:"date,omitempty" yaml:"date"`
	TargetPath   *string `json:"targetPath,omitempty" yaml:"targetPath"`
}

// FieldProblem is one rejected field value.
type FieldProblem struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// PatchResult is the outcome of Patch. When any field is rejected nothing
// is applied.
type PatchResult struct {
	OK       bool           `json:"ok"`
	Problems []FieldProblem `json:"problems,omitempty"`
	File     *FileView      `json:"file,omitempty"`
}

// Patch validates and applies p to the record id. Codes must exist in the
// run's tables and the target path must be part of the taxonomy. The date
// is stored as given; a date that does not parse is left out of the name.
// The only error is ErrFileNotFound.
func (r *Run) Patch(id string, p FieldPatch) (PatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.findLocked(id)
	if err != nil {
		return PatchResult{}, err
	}

	next := *rec
	var problems []FieldProblem

	codes := []struct {
		kind  naming.CodeKind
		value *string
		dst   *string
	}{
		{naming.KindDocumentType, p.DocumentType, &next.DocumentType},
		{naming.KindPhase, p.Phase, &next.Phase},
		{naming.KindRole, p.Role, &next.Role},
	}
	for _, c := range codes {
		if c.value == nil {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(*c.value))
		if code != "" && !r.codes.Table(c.kind).Contains(code) {
			problems = append(problems, FieldProblem{Field: string(c.kind), Value: *c.value, Message: "unknown code"})
			continue
		}
		*c.dst = code
	}

	if p.Title != nil {
		next.Title = naming.NormalizeTitle(strings.TrimSpace(*p.Title))
	}
	if p.Date != nil {
		next.Date = *p.Date
	}
	if p.TargetPath != nil {
		target := strings.Trim(strings.TrimSpace(*p.TargetPath), "/")
		if target != "" && !r.taxonomy.IsLegalPath(target) {
			problems = append(problems, FieldProblem{Field: "targetPath", Value: *p.TargetPath, Message: "not a folder of the taxonomy"})
		} else {
			next.TargetPath = target
		}
	}

	if len(problems) > 0 {
		v := r.viewLocked(rec)
		return PatchResult{Problems: problems, File: &v}, nil
	}

	*rec = next
	v := r.viewLocked(rec)
	return PatchResult{OK: true, File: &v}, nil
}
