package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/repository"
	"github.com/fangligamedev/AgentLinkin/internal/session"
)

type memoryEntry struct {
	s         *session.Session
	updatedAt time.Time
}

// MemoryRepository keeps snapshots for the lifetime of the process.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]memoryEntry), now: time.Now}
}

func (r *MemoryRepository) SaveSession(ctx context.Context, s *session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[s.ID] = memoryEntry{s: s.Clone(), updatedAt: r.now()}
	return nil
}

func (r *MemoryRepository) GetSession(ctx context.Context, id string) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e.s.Clone(), nil
}

func (r *MemoryRepository) ListSessions(ctx context.Context, status repository.SessionStatus) ([]repository.SessionSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	list := make([]repository.SessionSummary, 0, len(r.entries))
	for _, e := range r.entries {
		st := repository.StatusOf(e.s)
		if status != "" && st != status {
			continue
		}
		list = append(list, repository.SessionSummary{
			ID:          e.s.ID,
			CompanyName: e.s.CompanyName,
			CreatedBy:   e.s.CreatedBy,
			Quarter:     e.s.Quarter,
			Phase:       e.s.Phase,
			Status:      st,
			CreatedAt:   e.s.CreatedAt,
			UpdatedAt:   e.updatedAt,
		})
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
