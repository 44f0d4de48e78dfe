package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"policyhub/internal/core/apperror"
	appctx "policyhub/internal/core/context"
	"policyhub/internal/core/id"
	"policyhub/internal/domain/numbering"
)

type productKey struct {
	tenantID    string
	productCode string
}

// GeneratorRepo keeps generators in a map keyed by (tenant, productCode).
type GeneratorRepo struct {
	mu         sync.RWMutex
	generators map[productKey]numbering.Generator
}

var _ numbering.Repository = (*GeneratorRepo)(nil)

// NewGeneratorRepo creates an empty repository.
func NewGeneratorRepo() *GeneratorRepo {
	return &GeneratorRepo{generators: make(map[productKey]numbering.Generator)}
}

// Create implements numbering.Repository.
func (r *GeneratorRepo) Create(ctx context.Context, g *numbering.Generator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := productKey{g.TenantID, g.ProductCode}
	if _, exists := r.generators[key]; exists {
		return apperror.NewDuplicate("generator", "productCode", g.ProductCode)
	}
	r.generators[key] = *g
	return nil
}

// Update implements numbering.Repository.
func (r *GeneratorRepo) Update(ctx context.Context, g *numbering.Generator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := productKey{g.TenantID, g.ProductCode}
	stored, exists := r.generators[key]
	if !exists {
		return apperror.NewNotFound("generator", g.ProductCode)
	}
	if stored.ID != g.ID || stored.Version != g.Version {
		return apperror.NewConcurrentModification("generator", g.ProductCode)
	}

	g.Version++
	r.generators[key] = *g
	return nil
}

// GetByProductCode implements numbering.Repository.
func (r *GeneratorRepo) GetByProductCode(ctx context.Context, tenantID, productCode string) (*numbering.Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.generators[productKey{tenantID, productCode}]
	if !ok {
		return nil, apperror.NewNotFound("generator", productCode)
	}
	return &g, nil
}

// List implements numbering.Repository.
func (r *GeneratorRepo) List(ctx context.Context, tenantID string) ([]*numbering.Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*numbering.Generator, 0)
	for key, g := range r.generators {
		if key.tenantID != tenantID {
			continue
		}
		g := g
		out = append(out, &g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductCode < out[j].ProductCode })
	return out, nil
}

// RevisionLog keeps revisions in memory, newest last.
type RevisionLog struct {
	mu        sync.Mutex
	revisions map[id.ID][]numbering.Revision
}

var _ numbering.RevisionLog = (*RevisionLog)(nil)

// NewRevisionLog creates an empty revision log.
func NewRevisionLog() *RevisionLog {
	return &RevisionLog{revisions: make(map[id.ID][]numbering.Revision)}
}

// Record implements numbering.RevisionLog.
func (l *RevisionLog) Record(ctx context.Context, previous *numbering.Generator) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revisions[previous.ID] = append(l.revisions[previous.ID], numbering.Revision{
		GeneratorID: previous.ID,
		Version:     previous.Version,
		Snapshot:    *previous,
		RecordedBy:  appctx.GetUserID(ctx),
		RecordedAt:  time.Now().UTC(),
	})
	return nil
}

// List implements numbering.RevisionLog.
func (l *RevisionLog) List(ctx context.Context, tenantID string, generatorID id.ID, limit int) ([]numbering.Revision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	all := l.revisions[generatorID]
	out := make([]numbering.Revision, 0, len(all))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if all[i].Snapshot.TenantID == tenantID {
			out = append(out, all[i])
		}
	}
	return out, nil
}
