package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyhub/internal/core/apperror"
	"policyhub/internal/core/id"
	"policyhub/internal/domain/numbering"
)

func newGenerator(tenantID, code string) *numbering.Generator {
	return &numbering.Generator{
		ID:          id.New(),
		TenantID:    tenantID,
		ProductCode: code,
		Mask:        code + "-######",
		ResetPolicy: numbering.ResetYearly,
		MaxValue:    999999,
		Version:     1,
	}
}

func TestGeneratorRepo_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewGeneratorRepo()

	require.NoError(t, repo.Create(ctx, newGenerator("t1", "POL")))
	err := repo.Create(ctx, newGenerator("t1", "POL"))
	assert.True(t, apperror.IsDuplicate(err))

	// Same product code in another tenant is fine.
	assert.NoError(t, repo.Create(ctx, newGenerator("t2", "POL")))
}

func TestGeneratorRepo_UpdateOptimisticLock(t *testing.T) {
	ctx := context.Background()
	repo := NewGeneratorRepo()
	g := newGenerator("t1", "POL")
	require.NoError(t, repo.Create(ctx, g))

	stale := *g
	g.Mask = "P-########"
	require.NoError(t, repo.Update(ctx, g))
	assert.Equal(t, 2, g.Version)

	stale.Mask = "X-######"
	err := repo.Update(ctx, &stale)
	assert.True(t, apperror.IsConcurrentModification(err))

	got, err := repo.GetByProductCode(ctx, "t1", "POL")
	require.NoError(t, err)
	assert.Equal(t, "P-########", got.Mask)
}

func TestGeneratorRepo_ListScopedAndSorted(t *testing.T) {
	ctx := context.Background()
	repo := NewGeneratorRepo()
	for _, code := range []string{"ZED", "AUTO", "HOME"} {
		require.NoError(t, repo.Create(ctx, newGenerator("t1", code)))
	}
	require.NoError(t, repo.Create(ctx, newGenerator("t2", "LIFE")))

	list, err := repo.List(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "AUTO", list[0].ProductCode)
	assert.Equal(t, "HOME", list[1].ProductCode)
	assert.Equal(t, "ZED", list[2].ProductCode)

	_, err = repo.GetByProductCode(ctx, "t2", "AUTO")
	assert.True(t, apperror.IsNotFound(err))
}

func TestRevisionLog_NewestFirst(t *testing.T) {
	ctx := context.Background()
	log := NewRevisionLog()
	g := newGenerator("t1", "POL")

	require.NoError(t, log.Record(ctx, g))
	g2 := *g
	g2.Version = 2
	require.NoError(t, log.Record(ctx, &g2))

	revs, err := log.List(ctx, "t1", g.ID, 10)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, 2, revs[0].Version)
	assert.Equal(t, 1, revs[1].Version)

	revs, err = log.List(ctx, "t2", g.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, revs)
}
