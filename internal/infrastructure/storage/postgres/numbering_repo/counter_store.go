package numbering_repo

import (
	"context"
	"fmt"

	"policyhub/internal/domain/numbering"
	"policyhub/internal/infrastructure/storage/postgres"
)

// Compile-time check that CounterStore implements numbering interfaces.
var (
	_ numbering.CounterStore  = (*CounterStore)(nil)
	_ numbering.CounterSeeder = (*CounterStore)(nil)
)

// advanceSQL performs numbering.Advance in one statement. The row lock taken
// by ON CONFLICT DO UPDATE serializes concurrent callers, and every CASE
// reads the pre-update row.
const advanceSQL = `
INSERT INTO num_counters AS c
	(tenant_id, generator_id, current_value, period_marker, wrap_count, last_transition, updated_at)
VALUES ($1, $2, 1, $3, 0, 'init', now())
ON CONFLICT (tenant_id, generator_id) DO UPDATE SET
	current_value = CASE
		WHEN c.period_marker <> EXCLUDED.period_marker THEN 1
		WHEN c.current_value >= $4 THEN 1
		ELSE c.current_value + 1
	END,
	wrap_count = CASE
		WHEN c.period_marker <> EXCLUDED.period_marker THEN c.wrap_count
		WHEN c.current_value >= $4 THEN c.wrap_count + 1
		ELSE c.wrap_count
	END,
	last_transition = CASE
		WHEN c.period_marker <> EXCLUDED.period_marker THEN 'reset'
		WHEN c.current_value >= $4 THEN 'wrap'
		ELSE 'increment'
	END,
	period_marker = EXCLUDED.period_marker,
	updated_at = now()
RETURNING current_value, period_marker, wrap_count, last_transition`

const seedSQL = `
INSERT INTO num_counters
	(tenant_id, generator_id, current_value, period_marker, wrap_count, last_transition, updated_at)
VALUES ($1, $2, 0, $3, 0, 'init', now())
ON CONFLICT (tenant_id, generator_id) DO NOTHING`

// CounterStore keeps counters in num_counters.
type CounterStore struct {
	txm *postgres.TxManager
}

// NewCounterStore creates a PostgreSQL counter store.
func NewCounterStore(txm *postgres.TxManager) *CounterStore {
	return &CounterStore{txm: txm}
}

// IncrementAndGet implements numbering.CounterStore.
func (s *CounterStore) IncrementAndGet(ctx context.Context, key numbering.CounterKey, current numbering.Period, maxValue int64) (numbering.Increment, error) {
	var (
		inc        numbering.Increment
		period     int64
		transition string
	)
	err := s.txm.GetQuerier(ctx).
		QueryRow(ctx, advanceSQL, key.TenantID, key.GeneratorID, int64(current), maxValue).
		Scan(&inc.Value, &period, &inc.WrapCount, &transition)
	if err != nil {
		return numbering.Increment{}, postgres.Classify(fmt.Errorf("advance counter %s: %w", key, err))
	}

	inc.Period = numbering.Period(period)
	inc.Transition = numbering.Transition(transition)
	return inc, nil
}

// Seed implements numbering.CounterSeeder.
func (s *CounterStore) Seed(ctx context.Context, key numbering.CounterKey, current numbering.Period) error {
	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, seedSQL, key.TenantID, key.GeneratorID, int64(current)); err != nil {
		return postgres.Classify(fmt.Errorf("seed counter %s: %w", key, err))
	}
	return nil
}
