// Package archive packs renamed records into a zip laid out by the folder
// taxonomy.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docsorter/backend/internal/models"
	"github.com/docsorter/backend/internal/naming"
	"github.com/docsorter/backend/internal/taxonomy"
	"github.com/klauspost/compress/zip"
)

// Entry is one planned file in an archive.
type Entry struct {
	Path   string             `json:"path"`
	Record *models.FileRecord `json:"-"`
	Source string             `json:"source"`
}

// FileName is the download name of an archive built for projectCode at t.
func FileName(projectCode string, t time.Time) string {
	return fmt.Sprintf("projekt_%s_%s.zip", projectCode, t.Format("20060102_150405"))
}

// Builder writes archives for a fixed taxonomy.
type Builder struct {
	taxonomy *taxonomy.Taxonomy
	now      func() time.Time
}

// NewBuilder creates a builder for tx.
func NewBuilder(tx *taxonomy.Taxonomy) *Builder {
	return &Builder{taxonomy: tx, now: time.Now}
}

// Plan returns the entries Build would write, in record order. Incomplete
// records are skipped. Collisions, paths outside the taxonomy and filenames
// that would leave the target folder are errors.
func (b *Builder) Plan(records []*models.FileRecord, projectCode string) ([]Entry, error) {
	seen := make(map[string]string, len(records))
	var entries []Entry
	for _, r := range records {
		if !naming.IsComplete(r) {
			continue
		}
		if !b.taxonomy.IsLegalPath(r.TargetPath) {
			return nil, &IllegalTargetPathError{Path: r.TargetPath, Record: r.OriginalName}
		}
		name := naming.DeriveFilename(r, projectCode)
		if strings.ContainsAny(name, `/\`) {
			return nil, &IllegalTargetPathError{Path: r.TargetPath + "/" + name, Record: r.OriginalName}
		}
		p := naming.DeriveArchivePath(r, projectCode)
		if first, dup := seen[p]; dup {
			return nil, &DuplicateTargetPathError{Path: p, First: first, Second: r.OriginalName}
		}
		seen[p] = r.OriginalName
		entries = append(entries, Entry{Path: p, Record: r, Source: r.OriginalName})
	}
	return entries, nil
}

// Build returns the archive as bytes along with the file count. See BuildTo.
func (b *Builder) Build(records []*models.FileRecord, projectCode string) ([]byte, int, error) {
	var buf bytes.Buffer
	n, err := b.BuildTo(&buf, records, projectCode)
	if err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), n, nil
}

// BuildTo writes the folder skeleton followed by every complete record at its
// derived path and returns the number of files written. Nothing is written
// when planning fails.
func (b *Builder) BuildTo(w io.Writer, records []*models.FileRecord, projectCode string) (int, error) {
	entries, err := b.Plan(records, projectCode)
	if err != nil {
		return 0, err
	}

	modified := b.now()
	zw := zip.NewWriter(w)

	for _, dir := range b.taxonomy.LegalPaths() {
		hdr := &zip.FileHeader{Name: dir + "/", Method: zip.Store, Modified: modified}
		if _, err := zw.CreateHeader(hdr); err != nil {
			return 0, fmt.Errorf("writing directory %s: %w", dir, err)
		}
	}

	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Path, Method: zip.Deflate, Modified: modified}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return 0, fmt.Errorf("writing %s: %w", e.Path, err)
		}
		if _, err := fw.Write(e.Record.Content); err != nil {
			return 0, fmt.Errorf("writing %s: %w", e.Path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("closing archive: %w", err)
	}
	return len(entries), nil
}
