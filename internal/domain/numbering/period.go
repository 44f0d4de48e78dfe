package numbering

import (
	"fmt"
	"time"
)

// Period is the reset-policy-derived marker a counter was last advanced in.
//
//	NEVER   -> 0
//	YEARLY  -> YYYY     (2024)
//	MONTHLY -> YYYYMM   (202402)
type Period int64

// PeriodNone is the marker of generators that never reset.
const PeriodNone Period = 0

// PeriodOf computes the marker for t under the given policy.
// Unknown policies behave like NEVER.
func PeriodOf(policy ResetPolicy, t time.Time) Period {
	switch policy {
	case ResetYearly:
		return Period(t.Year())
	case ResetMonthly:
		return Period(t.Year()*100 + int(t.Month()))
	default:
		return PeriodNone
	}
}

// NeedsReset reports whether a counter stored under stored must restart
// when advanced in current. Stores evaluate this inside their atomic step.
func NeedsReset(stored, current Period) bool {
	return stored != current
}

// String renders the marker as "2024", "2024-02" or "-".
func (p Period) String() string {
	switch {
	case p == PeriodNone:
		return "-"
	case p >= 10000:
		return fmt.Sprintf("%04d-%02d", int64(p)/100, int64(p)%100)
	default:
		return fmt.Sprintf("%04d", int64(p))
	}
}

// Clock supplies the wall-clock time used for period computation.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the system time in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// Now implements Clock.
func (c SystemClock) Now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.Now().In(loc)
}

// Transition tells what the counter store did on an increment.
type Transition string

const (
	// TransitionInit: no state existed, counter created at 1.
	TransitionInit Transition = "init"
	// TransitionIncrement: same period, value+1.
	TransitionIncrement Transition = "increment"
	// TransitionReset: period changed, counter restarted at 1.
	TransitionReset Transition = "reset"
	// TransitionWrap: maxValue reached within the period, counter wrapped to 1.
	TransitionWrap Transition = "wrap"
)

// Increment is the result of CounterStore.IncrementAndGet.
type Increment struct {
	Value      int64
	Period     Period
	Transition Transition
	WrapCount  int64
}

// Overflowed reports whether the counter wrapped past maxValue.
func (i Increment) Overflowed() bool {
	return i.Transition == TransitionWrap
}

// Advance applies one increment to a counter state in memory.
// It is the reference semantics every CounterStore must match:
//
//	absent                       -> 1, init
//	stored period != current     -> 1, reset
//	value >= maxValue            -> 1, wrap (wrapCount+1)
//	otherwise                    -> value+1
func Advance(state *CounterState, exists bool, current Period, maxValue int64) Increment {
	switch {
	case !exists:
		*state = CounterState{Value: 1, Period: current, LastTransition: TransitionInit}
	case NeedsReset(state.Period, current):
		state.Value = 1
		state.Period = current
		state.LastTransition = TransitionReset
	case state.Value >= maxValue:
		state.Value = 1
		state.WrapCount++
		state.LastTransition = TransitionWrap
	default:
		state.Value++
		state.LastTransition = TransitionIncrement
	}
	return Increment{
		Value:      state.Value,
		Period:     state.Period,
		Transition: state.LastTransition,
		WrapCount:  state.WrapCount,
	}
}

// CounterState is the durable state behind one counter.
type CounterState struct {
	Value          int64
	Period         Period
	WrapCount      int64
	LastTransition Transition
	UpdatedAt      time.Time
}
