// Package session holds batch runs: the caller-facing state that ties file
// records, code tables, archive building and uploads together.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/docsorter/backend/internal/models"
	"github.com/docsorter/backend/internal/naming"
	"github.com/docsorter/backend/internal/taxonomy"
	"github.com/docsorter/backend/internal/upload"
	"github.com/sirupsen/logrus"
)

// DefaultMaxRuns limits concurrent runs to prevent memory exhaustion
const DefaultMaxRuns = 20

// RunKeepAliveWindow is how long a run that was just used is protected from cleanup
const RunKeepAliveWindow = 5 * time.Minute

// RemoteFactory builds a document service client for an API key. An empty
// key means the configured default.
type RemoteFactory func(apiKey string) upload.Remote

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Taxonomy     *taxonomy.Taxonomy
	Codes        *naming.CodeTables
	NewRemote    RemoteFactory
	DocumentKind string
	MaxRuns      int
	Logger       logrus.FieldLogger
}

// Manager handles active runs.
type Manager struct {
	mu   sync.RWMutex
	runs map[string]*runState
	cfg  ManagerConfig
	log  logrus.FieldLogger
}

type runState struct {
	run          *Run
	lastAccessed time.Time
}

// NewManager creates a run manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Taxonomy == nil {
		cfg.Taxonomy = taxonomy.Default()
	}
	if cfg.Codes == nil {
		cfg.Codes = naming.DefaultCodeTables()
	}
	if cfg.MaxRuns <= 0 {
		cfg.MaxRuns = DefaultMaxRuns
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Manager{
		runs: make(map[string]*runState),
		cfg:  cfg,
		log:  cfg.Logger.WithField("component", "session"),
	}
}

// Taxonomy returns the taxonomy new runs use.
func (m *Manager) Taxonomy() *taxonomy.Taxonomy { return m.cfg.Taxonomy }

// Create starts a run for projectCode. apiKey selects the document service
// credential for this run.
func (m *Manager) Create(projectCode, apiKey string) (*Run, error) {
	opts := Options{
		ProjectCode:  projectCode,
		Taxonomy:     m.cfg.Taxonomy,
		Codes:        m.cfg.Codes,
		DocumentKind: m.cfg.DocumentKind,
		Logger:       m.cfg.Logger,
	}
	if m.cfg.NewRemote != nil {
		opts.Remote = m.cfg.NewRemote(apiKey)
	}
	run, err := NewRun(opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictIfNeededLocked()
	m.runs[run.ID()] = &runState{run: run, lastAccessed: time.Now()}

	m.log.WithFields(logrus.Fields{"run": run.ID()[:8], "project": run.ProjectCode()}).Info("run created")
	return run, nil
}

// evictIfNeededLocked drops the least recently used runs until there is
// room for one more.
func (m *Manager) evictIfNeededLocked() {
	if len(m.runs) < m.cfg.MaxRuns {
		return
	}

	ids := make([]string, 0, len(m.runs))
	for id := range m.runs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.runs[ids[i]].lastAccessed.Before(m.runs[ids[j]].lastAccessed)
	})

	toFree := len(m.runs) - m.cfg.MaxRuns + 1
	for _, id := range ids[:toFree] {
		delete(m.runs, id)
		m.log.WithField("run", id[:min(8, len(id))]).Info("evicted least recently used run")
	}
}

// Get returns a run and marks it as used.
func (m *Manager) Get(id string) (*Run, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.runs[id]
	if !ok {
		return nil, false
	}
	state.lastAccessed = time.Now()
	return state.run, true
}

// Delete drops a run. It reports whether the run existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[id]; !ok {
		return false
	}
	delete(m.runs, id)
	return true
}

// List summarizes every run, newest first.
func (m *Manager) List() []models.RunInfo {
	m.mu.RLock()
	runs := make([]*Run, 0, len(m.runs))
	for _, state := range m.runs {
		runs = append(runs, state.run)
	}
	m.mu.RUnlock()

	infos := make([]models.RunInfo, 0, len(runs))
	for _, r := range runs {
		infos = append(infos, r.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos
}

// CleanupOldRuns removes runs idle for longer than maxAge and returns how
// many were removed.
func (m *Manager) CleanupOldRuns(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-RunKeepAliveWindow)

	removed := 0
	for id, state := range m.runs {
		if state.lastAccessed.After(keepAliveCutoff) || !state.lastAccessed.Before(cutoff) {
			continue
		}
		delete(m.runs, id)
		removed++
		m.log.WithFields(logrus.Fields{
			"run":  id[:min(8, len(id))],
			"idle": now.Sub(state.lastAccessed).Round(time.Second),
		}).Info("cleaned up idle run")
	}
	return removed
}

// StartCleanup runs CleanupOldRuns every interval until ctx is done.
func (m *Manager) StartCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CleanupOldRuns(maxAge)
			}
		}
	}()
}
