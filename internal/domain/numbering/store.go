package numbering

import (
	"context"

	"policyhub/internal/core/id"
)

// CounterStore owns every counter. It is the only component allowed to write
// counter state, and it does so exclusively through IncrementAndGet.
//
// Implementations must apply the reset check, the overflow wrap and the
// increment as one atomic read-modify-write (see Advance for the semantics).
// Concurrent callers for the same key must never observe the same value
// within a period, except across a documented overflow wrap.
//
// Connectivity failures must be reported as apperror STORE_UNAVAILABLE.
type CounterStore interface {
	IncrementAndGet(ctx context.Context, key CounterKey, current Period, maxValue int64) (Increment, error)
}

// CounterSeeder is implemented by stores that can initialize a counter at
// value 0 ahead of the first request. Seeding an existing counter is a no-op.
// The registry seeds inside the same transaction that creates the generator.
type CounterSeeder interface {
	Seed(ctx context.Context, key CounterKey, current Period) error
}

// Repository persists generator configurations.
type Repository interface {
	// Create inserts a new generator. A taken (tenant, productCode) pair
	// yields apperror DUPLICATE_ENTRY.
	Create(ctx context.Context, g *Generator) error

	// Update replaces mask, reset policy, maxValue and xorMask using
	// optimistic locking on Version. On success g.Version is incremented.
	Update(ctx context.Context, g *Generator) error

	// GetByProductCode returns apperror NOT_FOUND when absent.
	GetByProductCode(ctx context.Context, tenantID, productCode string) (*Generator, error)

	// List returns all generators of a tenant ordered by product code.
	List(ctx context.Context, tenantID string) ([]*Generator, error)
}

// RevisionLog keeps snapshots of generators as they were before each update.
type RevisionLog interface {
	Record(ctx context.Context, previous *Generator) error
	List(ctx context.Context, tenantID string, generatorID id.ID, limit int) ([]Revision, error)
}

// Recorder receives operational signals from the service.
type Recorder interface {
	ObserveIssue(productCode string, inc Increment, seconds float64)
	ObserveFailure(productCode, code string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveIssue(string, Increment, float64) {}
func (nopRecorder) ObserveFailure(string, string)           {}
