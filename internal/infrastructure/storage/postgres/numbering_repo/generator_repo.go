// Package numbering_repo provides PostgreSQL implementations of the numbering
// stores. All tables are shared between tenants and every query filters on
// tenant_id.
package numbering_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"policyhub/internal/core/apperror"
	"policyhub/internal/domain/numbering"
	"policyhub/internal/infrastructure/storage/postgres"
)

const generatorsTable = "num_generators"

var generatorCols = postgres.Columns[numbering.Generator]()

// Compile-time check that GeneratorRepo implements numbering.Repository.
var _ numbering.Repository = (*GeneratorRepo)(nil)

// GeneratorRepo stores generator configurations.
type GeneratorRepo struct {
	txm *postgres.TxManager
}

// NewGeneratorRepo creates a generator repository.
func NewGeneratorRepo(txm *postgres.TxManager) *GeneratorRepo {
	return &GeneratorRepo{txm: txm}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts g. A taken (tenant_id, product_code) yields DUPLICATE_ENTRY.
func (r *GeneratorRepo) Create(ctx context.Context, g *numbering.Generator) error {
	q := builder().
		Insert(generatorsTable).
		SetMap(postgres.Only(postgres.StructToMap(g), generatorCols...))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.Classify(fmt.Errorf("insert %s: %w", generatorsTable, err))
	}
	return nil
}

// Update writes the mutable fields of g with optimistic locking on version.
// On success g.Version holds the new version.
func (r *GeneratorRepo) Update(ctx context.Context, g *numbering.Generator) error {
	q := builder().
		Update(generatorsTable).
		SetMap(map[string]any{
			"mask":         g.Mask,
			"reset_policy": g.ResetPolicy,
			"max_value":    g.MaxValue,
			"xor_mask":     g.XORMask,
			"updated_at":   g.UpdatedAt,
		}).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"tenant_id": g.TenantID, "id": g.ID, "version": g.Version}).
		Suffix("RETURNING version")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	var version int
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewConcurrentModification("generator", g.ProductCode).
			WithDetail("expected_version", g.Version)
	}
	if err != nil {
		return postgres.Classify(fmt.Errorf("update %s: %w", generatorsTable, err))
	}

	g.Version = version
	return nil
}

// GetByProductCode returns the tenant's generator for productCode.
func (r *GeneratorRepo) GetByProductCode(ctx context.Context, tenantID, productCode string) (*numbering.Generator, error) {
	q := builder().
		Select(generatorCols...).
		From(generatorsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "product_code": productCode}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var g numbering.Generator
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &g, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("generator", productCode)
		}
		return nil, postgres.Classify(fmt.Errorf("get generator: %w", err))
	}
	return &g, nil
}

// List returns the tenant's generators ordered by product code.
func (r *GeneratorRepo) List(ctx context.Context, tenantID string) ([]*numbering.Generator, error) {
	q := builder().
		Select(generatorCols...).
		From(generatorsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("product_code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]*numbering.Generator, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, postgres.Classify(fmt.Errorf("list generators: %w", err))
	}
	return items, nil
}
