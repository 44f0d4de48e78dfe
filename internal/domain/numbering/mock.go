package numbering

import (
	"context"
	"sync"

	"policyhub/internal/core/apperror"
	"policyhub/internal/core/id"
)

// MockCounterStore is a test implementation of CounterStore.
// Calls are counted; IncrementAndGetFunc overrides the default behavior.
type MockCounterStore struct {
	IncrementAndGetFunc func(ctx context.Context, key CounterKey, current Period, maxValue int64) (Increment, error)
	SeedFunc            func(ctx context.Context, key CounterKey, current Period) error

	mu    sync.Mutex
	calls int
}

// IncrementAndGet implements CounterStore.
func (m *MockCounterStore) IncrementAndGet(ctx context.Context, key CounterKey, current Period, maxValue int64) (Increment, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.IncrementAndGetFunc != nil {
		return m.IncrementAndGetFunc(ctx, key, current, maxValue)
	}
	return Increment{Value: 1, Period: current, Transition: TransitionInit}, nil
}

// Seed implements CounterSeeder.
func (m *MockCounterStore) Seed(ctx context.Context, key CounterKey, current Period) error {
	if m.SeedFunc != nil {
		return m.SeedFunc(ctx, key, current)
	}
	return nil
}

// Calls returns how many times IncrementAndGet ran.
func (m *MockCounterStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockRepository is a test implementation of Repository.
type MockRepository struct {
	CreateFunc           func(ctx context.Context, g *Generator) error
	UpdateFunc           func(ctx context.Context, g *Generator) error
	GetByProductCodeFunc func(ctx context.Context, tenantID, productCode string) (*Generator, error)
	ListFunc             func(ctx context.Context, tenantID string) ([]*Generator, error)
}

// Create implements Repository.
func (m *MockRepository) Create(ctx context.Context, g *Generator) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, g)
	}
	return nil
}

// Update implements Repository.
func (m *MockRepository) Update(ctx context.Context, g *Generator) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, g)
	}
	return nil
}

// GetByProductCode implements Repository.
func (m *MockRepository) GetByProductCode(ctx context.Context, tenantID, productCode string) (*Generator, error) {
	if m.GetByProductCodeFunc != nil {
		return m.GetByProductCodeFunc(ctx, tenantID, productCode)
	}
	return nil, apperror.NewNotFound("generator", productCode)
}

// List implements Repository.
func (m *MockRepository) List(ctx context.Context, tenantID string) ([]*Generator, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tenantID)
	}
	return nil, nil
}

// MockRevisionLog is a test implementation of RevisionLog.
type MockRevisionLog struct {
	RecordFunc func(ctx context.Context, previous *Generator) error
	ListFunc   func(ctx context.Context, tenantID string, generatorID id.ID, limit int) ([]Revision, error)
}

// Record implements RevisionLog.
func (m *MockRevisionLog) Record(ctx context.Context, previous *Generator) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, previous)
	}
	return nil
}

// List implements RevisionLog.
func (m *MockRevisionLog) List(ctx context.Context, tenantID string, generatorID id.ID, limit int) ([]Revision, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tenantID, generatorID, limit)
	}
	return nil, nil
}

// Ensure compile-time interface compliance.
var (
	_ CounterStore  = (*MockCounterStore)(nil)
	_ CounterSeeder = (*MockCounterStore)(nil)
	_ Repository    = (*MockRepository)(nil)
	_ RevisionLog   = (*MockRevisionLog)(nil)
)
