package numbering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodOf(t *testing.T) {
	at := time.Date(2024, time.February, 29, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, Period(2024), PeriodOf(ResetYearly, at))
	assert.Equal(t, Period(202402), PeriodOf(ResetMonthly, at))
	assert.Equal(t, PeriodNone, PeriodOf(ResetNever, at))
	assert.Equal(t, PeriodNone, PeriodOf(ResetPolicy("WEEKLY"), at))
}

func TestPeriodOf_UsesClockLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	utcEve := time.Date(2024, time.December, 31, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, Period(2024), PeriodOf(ResetYearly, utcEve))
	assert.Equal(t, Period(2025), PeriodOf(ResetYearly, utcEve.In(tokyo)))
}

func TestNeedsReset(t *testing.T) {
	assert.False(t, NeedsReset(202401, 202401))
	assert.True(t, NeedsReset(202401, 202402))
	assert.True(t, NeedsReset(2024, 202401), "switching policy changes the marker")
	assert.False(t, NeedsReset(PeriodNone, PeriodNone))
}

func TestPeriod_String(t *testing.T) {
	assert.Equal(t, "-", PeriodNone.String())
	assert.Equal(t, "2024", Period(2024).String())
	assert.Equal(t, "2024-02", Period(202402).String())
}

func TestAdvance_StateMachine(t *testing.T) {
	var state CounterState

	inc := Advance(&state, false, 202401, 3)
	assert.Equal(t, Increment{Value: 1, Period: 202401, Transition: TransitionInit}, inc)

	inc = Advance(&state, true, 202401, 3)
	assert.Equal(t, int64(2), inc.Value)
	assert.Equal(t, TransitionIncrement, inc.Transition)

	inc = Advance(&state, true, 202401, 3)
	assert.Equal(t, int64(3), inc.Value)

	inc = Advance(&state, true, 202401, 3)
	assert.Equal(t, int64(1), inc.Value)
	assert.True(t, inc.Overflowed())
	assert.Equal(t, int64(1), inc.WrapCount)

	inc = Advance(&state, true, 202402, 3)
	assert.Equal(t, int64(1), inc.Value)
	assert.Equal(t, TransitionReset, inc.Transition)
	assert.False(t, inc.Overflowed())
	assert.Equal(t, int64(1), inc.WrapCount, "wrap count survives resets")
}

func TestSystemClock_DefaultsToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, SystemClock{}.Now().Location())
}
