package directory

import (
	"context"
	"log/slog"
	"sync"
)

type professionalLister interface {
	ListProfessionals(ctx context.Context) ([]Professional, error)
}

// ProfessionalCache holds an in-memory snapshot of the professionals table.
// It is warmed once at startup and refreshed after every directory write, so
// the public slots endpoint never touches Postgres for professional lookups.
type ProfessionalCache struct {
	repo   professionalLister
	logger *slog.Logger

	mu   sync.RWMutex
	byID map[string]Professional
	list []Professional
}

func NewProfessionalCache(repo professionalLister, logger *slog.Logger) *ProfessionalCache {
	return &ProfessionalCache{
		repo:   repo,
		logger: logger,
		byID:   make(map[string]Professional),
	}
}

// Refresh replaces the snapshot with the current table contents. Called at
// startup and after each professional write; on error the previous snapshot
// stays in place.
func (c *ProfessionalCache) Refresh(ctx context.Context) error {
	pros, err := c.repo.ListProfessionals(ctx)
	if err != nil {
		return err
	}

	byID := make(map[string]Professional, len(pros))
	for _, p := range pros {
		byID[p.ID] = p
	}

	c.mu.Lock()
	c.byID = byID
	c.list = pros
	c.mu.Unlock()

	c.logger.Debug("professional cache refreshed", "count", len(pros))
	return nil
}

func (c *ProfessionalCache) Get(id string) (Professional, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok
}

// Active reports whether the id belongs to a currently bookable professional.
func (c *ProfessionalCache) Active(id string) bool {
	p, ok := c.Get(id)
	return ok && p.Active
}

func (c *ProfessionalCache) List() []Professional {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Professional, len(c.list))
	copy(out, c.list)
	return out
}
