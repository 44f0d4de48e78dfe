package numbering_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"policyhub/internal/core/apperror"
	"policyhub/internal/domain/numbering"
	"policyhub/internal/infrastructure/storage/memory"
)

func TestService_SequentialNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx("tenant-a")
	require.NoError(t, f.service.Create(ctx, policyGenerator()))

	for _, want := range []string{"POL-00000001", "POL-00000002", "POL-00000003"} {
		got, err := f.service.GetNextNumber(ctx, "POL")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestService_NextUnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetNextNumber(tenantCtx("tenant-a"), "NOPE")
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_NextRequiresTenant(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetNextNumber(context.Background(), "POL")
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestService_TenantsAreIsolated(t *testing.T) {
	f := newFixture(t)
	a, b := tenantCtx("tenant-a"), tenantCtx("tenant-b")
	require.NoError(t, f.service.Create(a, policyGenerator()))
	require.NoError(t, f.service.Create(b, policyGenerator()))

	for i := 0; i < 5; i++ {
		_, err := f.service.Next(a, "POL")
		require.NoError(t, err)
	}

	got, err := f.service.GetNextNumber(b, "POL")
	require.NoError(t, err)
	assert.Equal(t, "POL-00000001", got)
}

func TestService_ConcurrentIssuesAreUnique(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx("tenant-a")
	require.NoError(t, f.service.Create(ctx, policyGenerator()))

	const workers, perWorker = 20, 50
	numbers := make([][]int64, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				issued, err := f.service.Next(gctx, "POL")
				if err != nil {
					return err
				}
				numbers[w] = append(numbers[w], issued.Value)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var all []int64
	for _, n := range numbers {
		all = append(all, n...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	require.Len(t, all, workers*perWorker)
	for i, v := range all {
		require.Equal(t, int64(i+1), v)
	}
}

func TestService_OverflowWrapsToOne(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx("tenant-a")
	g := &numbering.Generator{ProductCode: "INV", Mask: "INV-####", ResetPolicy: numbering.ResetNever, MaxValue: 9999}
	require.NoError(t, f.service.Create(ctx, g))

	f.counters.Put(numbering.KeyOf(g), numbering.CounterState{Value: 9998, Period: numbering.PeriodNone})

	issued, err := f.service.Next(ctx, "INV")
	require.NoError(t, err)
	assert.Equal(t, "INV-9999", issued.Number)
	assert.False(t, issued.Overflowed)

	issued, err = f.service.Next(ctx, "INV")
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", issued.Number)
	assert.True(t, issued.Overflowed)
	assert.Equal(t, int64(1), issued.WrapCount)
}

func TestService_MonthlyReset(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx("tenant-a")
	g := &numbering.Generator{ProductCode: "TRV", Mask: "TRV-######", ResetPolicy: numbering.ResetMonthly}
	require.NoError(t, f.service.Create(ctx, g))

	f.now = time.Date(2024, time.January, 31, 23, 0, 0, 0, time.UTC)
	var last *numbering.Issued
	for i := 0; i < 50; i++ {
		var err error
		last, err = f.service.Next(ctx, "TRV")
		require.NoError(t, err)
	}
	assert.Equal(t, "TRV-000050", last.Number)
	assert.Equal(t, numbering.Period(202401), last.Period)

	f.now = time.Date(2024, time.February, 1, 0, 5, 0, 0, time.UTC)
	issued, err := f.service.Next(ctx, "TRV")
	require.NoError(t, err)
	assert.Equal(t, "TRV-000001", issued.Number)
	assert.Equal(t, numbering.TransitionReset, issued.Transition)
	assert.False(t, issued.Overflowed)
}

func TestService_NeverResetSpansYears(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx("tenant-a")
	g := &numbering.Generator{ProductCode: "LIFE", Mask: "L######", ResetPolicy: numbering.ResetNever}
	require.NoError(t, f.service.Create(ctx, g))

	f.now = time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC)
	_, err := f.service.Next(ctx, "LIFE")
	require.NoError(t, err)

	f.now = time.Date(2025, time.January, 1, 0, 1, 0, 0, time.UTC)
	got, err := f.service.GetNextNumber(ctx, "LIFE")
	require.NoError(t, err)
	assert.Equal(t, "L000002", got)
}

func TestService_XORNumbersDecode(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx("tenant-a")
	g := &numbering.Generator{
		ProductCode: "SEC",
		Mask:        "SEC-######",
		ResetPolicy: numbering.ResetNever,
		XORMask:     "k3y",
	}
	require.NoError(t, f.service.Create(ctx, g))

	first, err := f.service.GetNextNumber(ctx, "SEC")
	require.NoError(t, err)
	second, err := f.service.GetNextNumber(ctx, "SEC")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Len(t, first, len("SEC-")+12)

	v, err := f.service.Decode(ctx, "SEC", second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	_, err = f.service.Decode(ctx, "SEC", "SEC-000002")
	assert.True(t, apperror.HasCode(err, apperror.CodeFormat))
}

func TestService_DecodeRejectsValuesNeverIssued(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx("tenant-a")
	g := &numbering.Generator{ProductCode: "INV", Mask: "INV-####", ResetPolicy: numbering.ResetNever, MaxValue: 500}
	require.NoError(t, f.service.Create(ctx, g))

	v, err := f.service.Decode(ctx, "INV", "INV-0500")
	require.NoError(t, err)
	assert.Equal(t, int64(500), v)

	for _, number := range []string{"INV-0000", "INV-0501"} {
		_, err := f.service.Decode(ctx, "INV", number)
		assert.True(t, apperror.HasCode(err, apperror.CodeFormat), number)
	}
}

func TestService_StoreUnavailablePropagates(t *testing.T) {
	repo := memory.NewGeneratorRepo()
	storeErr := apperror.NewStoreUnavailable("postgres", errors.New("connection refused"))
	counters := &numbering.MockCounterStore{
		IncrementAndGetFunc: func(context.Context, numbering.CounterKey, numbering.Period, int64) (numbering.Increment, error) {
			return numbering.Increment{}, storeErr
		},
	}
	registry := numbering.NewRegistry(numbering.RegistryConfig{Repo: repo, Counters: counters})
	service := numbering.NewService(numbering.ServiceConfig{Registry: registry, Counters: counters})

	ctx := tenantCtx("tenant-a")
	require.NoError(t, service.Create(ctx, policyGenerator()))

	_, err := service.GetNextNumber(ctx, "POL")
	require.Error(t, err)
	assert.True(t, apperror.IsStoreUnavailable(err))
	assert.Equal(t, 1, counters.Calls())
}

type recordingRecorder struct {
	issues   []numbering.Transition
	failures []string
}

func (r *recordingRecorder) ObserveIssue(_ string, inc numbering.Increment, _ float64) {
	r.issues = append(r.issues, inc.Transition)
}

func (r *recordingRecorder) ObserveFailure(_ string, code string) {
	r.failures = append(r.failures, code)
}

func TestService_RecordsOutcomes(t *testing.T) {
	repo := memory.NewGeneratorRepo()
	counters := memory.NewCounterStore()
	rec := &recordingRecorder{}
	registry := numbering.NewRegistry(numbering.RegistryConfig{Repo: repo, Counters: counters})
	service := numbering.NewService(numbering.ServiceConfig{Registry: registry, Counters: counters, Recorder: rec})

	ctx := tenantCtx("tenant-a")
	g := &numbering.Generator{ProductCode: "TINY", Mask: "T#", ResetPolicy: numbering.ResetNever, MaxValue: 2}
	require.NoError(t, service.Create(ctx, g))

	for i := 0; i < 3; i++ {
		_, err := service.Next(ctx, "TINY")
		require.NoError(t, err)
	}
	_, err := service.Next(ctx, "MISSING")
	require.Error(t, err)

	assert.Equal(t, []numbering.Transition{
		numbering.TransitionIncrement,
		numbering.TransitionIncrement,
		numbering.TransitionWrap,
	}, rec.issues)
	assert.Equal(t, []string{apperror.CodeNotFound}, rec.failures)
}

func TestService_History(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx("tenant-a")
	require.NoError(t, f.service.Create(ctx, policyGenerator()))

	for _, mask := range []string{"A-########", "B-########"} {
		g := policyGenerator()
		g.Mask = mask
		require.NoError(t, f.service.Update(ctx, g))
	}

	revs, err := f.service.History(ctx, "POL", 1)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "A-########", revs[0].Snapshot.Mask)
	assert.Equal(t, 2, revs[0].Version)
}
