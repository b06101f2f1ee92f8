// mock_store.go - In-memory archive store for testing
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/docsorter/backend/internal/models"
	"github.com/docsorter/backend/internal/storage"
)

// MockStore implements storage.Store in memory
type MockStore struct {
	mu    sync.RWMutex
	infos map[string]*models.ArchiveInfo
	data  map[string][]byte

	// SaveErr, if set, is returned by Save
	SaveErr error
}

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		infos: make(map[string]*models.ArchiveInfo),
		data:  make(map[string][]byte),
	}
}

func (m *MockStore) Save(_ context.Context, info models.ArchiveInfo, data []byte) (*models.ArchiveInfo, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	info.ID = generateTestID()
	info.Size = int64(len(data))
	info.CreatedAt = time.Now()
	m.infos[info.ID] = &info
	m.data[info.ID] = append([]byte(nil), data...)

	out := info
	return &out, nil
}

func (m *MockStore) Get(_ context.Context, id string) (*models.ArchiveInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.infos[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	out := *info
	return &out, nil
}

func (m *MockStore) Open(_ context.Context, id string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockStore) List(_ context.Context, limit int) ([]*models.ArchiveInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*models.ArchiveInfo, 0, len(m.infos))
	for _, info := range m.infos {
		out := *info
		list = append(list, &out)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MockStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.infos[id]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	delete(m.infos, id)
	delete(m.data, id)
	return nil
}

// Ensure MockStore implements storage.Store
var _ storage.Store = (*MockStore)(nil)

// Test Helper Methods

// Data returns the stored bytes of an archive
func (m *MockStore) Data(id string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[id]
	return data, ok
}

// Count returns the number of stored archives
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.infos)
}

var testIDCounter int
var testIDMutex sync.Mutex

// generateTestID generates a simple sortable test ID
func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%06d", testIDCounter)
}
