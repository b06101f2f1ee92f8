package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/docsorter/backend/internal/models"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
)

// BillyStore implements Store on a billy filesystem. Each archive is an
// <id>.zip file with an <id>.json metadata sidecar, so the index survives
// restarts.
type BillyStore struct {
	mu    sync.RWMutex
	fs    billy.Filesystem
	index map[string]*models.ArchiveInfo
}

// NewLocalStore creates a BillyStore rooted at dir on the local disk.
func NewLocalStore(dir string) (*BillyStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return NewBillyStore(osfs.New(dir))
}

// NewBillyStore creates a store on fs and loads any existing sidecars.
func NewBillyStore(fs billy.Filesystem) (*BillyStore, error) {
	s := &BillyStore{fs: fs, index: make(map[string]*models.ArchiveInfo)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *BillyStore) load() error {
	entries, err := s.fs.ReadDir("/")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading archive directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), metaExt) {
			continue
		}
		data, err := util.ReadFile(s.fs, e.Name())
		if err != nil {
			return fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		var info models.ArchiveInfo
		if err := json.Unmarshal(data, &info); err != nil || !validID(info.ID) {
			// A broken sidecar hides one archive but must not block startup.
			continue
		}
		s.index[info.ID] = &info
	}
	return nil
}

// Save writes the archive and then its sidecar.
func (s *BillyStore) Save(_ context.Context, info models.ArchiveInfo, data []byte) (*models.ArchiveInfo, error) {
	info.ID = uuid.New().String()
	info.Size = int64(len(data))
	info.CreatedAt = time.Now()

	if err := util.WriteFile(s.fs, archiveName(info.ID), data, 0644); err != nil {
		return nil, fmt.Errorf("writing archive: %w", err)
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	if err := util.WriteFile(s.fs, metaName(info.ID), meta, 0644); err != nil {
		_ = s.fs.Remove(archiveName(info.ID))
		return nil, fmt.Errorf("writing archive metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[info.ID] = &info

	out := info
	return &out, nil
}

// Get retrieves archive metadata by ID.
func (s *BillyStore) Get(_ context.Context, id string) (*models.ArchiveInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := *info
	return &out, nil
}

// Open returns a reader over the archive bytes.
func (s *BillyStore) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	f, err := s.fs.Open(archiveName(id))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	return f, nil
}

// List returns the most recent archives.
func (s *BillyStore) List(_ context.Context, limit int) ([]*models.ArchiveInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.ArchiveInfo, 0, len(s.index))
	for _, info := range s.index {
		out := *info
		list = append(list, &out)
	}
	return newestFirst(list, limit), nil
}

// Delete removes an archive and its sidecar.
func (s *BillyStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	for _, name := range []string{archiveName(id), metaName(id)} {
		if err := s.fs.Remove(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("deleting %s: %w", name, err)
		}
	}
	delete(s.index, id)
	return nil
}
