package numbering

import (
	"context"
	"fmt"

	"policyhub/internal/core/apperror"
	"policyhub/internal/core/id"
	"policyhub/internal/core/tenant"
	"policyhub/internal/core/tx"
	"policyhub/pkg/logger"
)

// RegistryConfig wires a Registry.
type RegistryConfig struct {
	Repo      Repository
	Counters  CounterStore
	TxManager tx.Manager
	Revisions RevisionLog // optional
	Clock     Clock
}

// Registry is the single source of truth for generator configurations.
type Registry struct {
	repo      Repository
	counters  CounterStore
	txm       tx.Manager
	revisions RevisionLog
	clock     Clock
}

// NewRegistry creates a registry. A nil TxManager runs writes directly.
func NewRegistry(cfg RegistryConfig) *Registry {
	r := &Registry{
		repo:      cfg.Repo,
		counters:  cfg.Counters,
		txm:       cfg.TxManager,
		revisions: cfg.Revisions,
		clock:     cfg.Clock,
	}
	if r.txm == nil {
		r.txm = tx.Direct
	}
	if r.clock == nil {
		r.clock = SystemClock{}
	}
	return r
}

// Validate returns every problem with g for the tenant in ctx, including a
// productCode already taken by another generator. It never writes.
func (r *Registry) Validate(ctx context.Context, g *Generator) (apperror.FieldErrors, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}
	candidate := *g
	candidate.TenantID = tenantID
	candidate.ApplyDefaults()
	return r.validate(ctx, &candidate, id.ID{})
}

func (r *Registry) validate(ctx context.Context, g *Generator, self id.ID) (apperror.FieldErrors, error) {
	errs := ValidateConfig(g)
	if g.ProductCode == "" {
		return errs, nil
	}

	existing, err := r.repo.GetByProductCode(ctx, g.TenantID, g.ProductCode)
	switch {
	case apperror.IsNotFound(err):
	case err != nil:
		return nil, err
	case existing.ID != self:
		errs.Add("productCode", CodeDuplicate, fmt.Sprintf("productCode %q is already registered", g.ProductCode))
	}
	return errs, nil
}

// Create registers a new generator and initializes its counter at 0.
// On validation failure nothing is written.
func (r *Registry) Create(ctx context.Context, g *Generator) error {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return err
	}
	g.TenantID = tenantID
	g.ApplyDefaults()

	errs, err := r.validate(ctx, g, id.ID{})
	if err != nil {
		return err
	}
	if !errs.Empty() {
		return errs.Err()
	}

	now := r.clock.Now().UTC()
	g.ID = id.New()
	g.Version = 1
	g.CreatedAt = now
	g.UpdatedAt = now

	err = r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := r.repo.Create(ctx, g); err != nil {
			return err
		}
		if seeder, ok := r.counters.(CounterSeeder); ok {
			if err := seeder.Seed(ctx, KeyOf(g), PeriodOf(g.ResetPolicy, r.clock.Now())); err != nil {
				return fmt.Errorf("seed counter: %w", err)
			}
		}
		return nil
	})
	if apperror.IsDuplicate(err) {
		return duplicateProduct(g.ProductCode)
	}
	if err != nil {
		return err
	}

	logger.Info(ctx, "generator created",
		"product_code", g.ProductCode,
		"generator_id", g.ID,
		"reset_policy", g.ResetPolicy,
		"max_value", g.MaxValue,
	)
	return nil
}

// Update replaces the mask, reset policy, maxValue and xorMask of the
// generator registered under g.ProductCode. The counter is left untouched.
//
// When g.Version is set it must match the stored version.
func (r *Registry) Update(ctx context.Context, g *Generator) error {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return err
	}
	g.TenantID = tenantID
	g.ApplyDefaults()

	// Configuration problems are reported before the generator is looked up.
	if errs := ValidateConfig(g); !errs.Empty() {
		return errs.Err()
	}

	current, err := r.repo.GetByProductCode(ctx, tenantID, g.ProductCode)
	if err != nil {
		return err
	}
	if g.Version != 0 && g.Version != current.Version {
		return apperror.NewConcurrentModification("generator", g.ProductCode).
			WithDetail("expected_version", g.Version).
			WithDetail("current_version", current.Version)
	}

	errs, err := r.validate(ctx, g, current.ID)
	if err != nil {
		return err
	}
	if !errs.Empty() {
		return errs.Err()
	}

	next := *current
	next.Mask = g.Mask
	next.ResetPolicy = g.ResetPolicy
	next.MaxValue = g.MaxValue
	next.XORMask = g.XORMask
	next.UpdatedAt = r.clock.Now().UTC()

	err = r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if r.revisions != nil {
			if err := r.revisions.Record(ctx, current); err != nil {
				return fmt.Errorf("record revision: %w", err)
			}
		}
		return r.repo.Update(ctx, &next)
	})
	if err != nil {
		return err
	}

	*g = next
	logger.Info(ctx, "generator updated",
		"product_code", g.ProductCode,
		"generator_id", g.ID,
		"version", g.Version,
	)
	return nil
}

// Get returns the generator registered under productCode.
func (r *Registry) Get(ctx context.Context, productCode string) (*Generator, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}
	return r.repo.GetByProductCode(ctx, tenantID, productCode)
}

// List returns all generators of the tenant in ctx.
func (r *Registry) List(ctx context.Context) ([]*Generator, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}
	return r.repo.List(ctx, tenantID)
}

// History returns previous configurations of a generator, newest first.
func (r *Registry) History(ctx context.Context, productCode string, limit int) ([]Revision, error) {
	g, err := r.Get(ctx, productCode)
	if err != nil {
		return nil, err
	}
	if r.revisions == nil {
		return []Revision{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return r.revisions.List(ctx, g.TenantID, g.ID, limit)
}

func duplicateProduct(productCode string) error {
	var errs apperror.FieldErrors
	errs.Add("productCode", CodeDuplicate, fmt.Sprintf("productCode %q is already registered", productCode))
	return errs.Err()
}
