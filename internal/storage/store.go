// Package storage keeps built archives so they can be downloaded later.
package storage

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/docsorter/backend/internal/models"
)

// ErrNotFound is returned when an archive id is unknown.
var ErrNotFound = errors.New("archive not found")

// Store defines the interface for archive storage.
type Store interface {
	// Save stores data under a fresh id. ID, Size and CreatedAt of info are
	// filled in by the store.
	Save(ctx context.Context, info models.ArchiveInfo, data []byte) (*models.ArchiveInfo, error)
	Get(ctx context.Context, id string) (*models.ArchiveInfo, error)
	Open(ctx context.Context, id string) (io.ReadCloser, error)
	// List returns the newest archives first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*models.ArchiveInfo, error)
	Delete(ctx context.Context, id string) error
}

const (
	archiveExt = ".zip"
	metaExt    = ".json"
)

func archiveName(id string) string { return id + archiveExt }
func metaName(id string) string    { return id + metaExt }

// validID rejects ids that could escape the store's namespace.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && !strings.Contains(id, "..")
}

func newestFirst(list []*models.ArchiveInfo, limit int) []*models.ArchiveInfo {
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}

var (
	_ Store = (*BillyStore)(nil)
	_ Store = (*MinioStore)(nil)
)
