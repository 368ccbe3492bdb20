package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/codequest/internal/model"
)

func day(n int) time.Time {
	return t0.AddDate(0, 0, n)
}

func TestRecordActivityTransitions(t *testing.T) {
	e := newTestEngine()
	base := e.NewProfile("u")
	base.StreakCount = 4
	base.LastActivityDate = model.DateOf(day(0), time.UTC)

	tests := []struct {
		name       string
		freezes    int
		at         time.Time
		wantCount  int
		wantChange StreakChange
		wantFrz    int
	}{
		{"same day", 0, day(0).Add(5 * time.Hour), 4, StreakUnchanged, 0},
		{"next day", 0, day(1), 5, StreakExtended, 0},
		{"one missed day with freeze", 1, day(2), 4, StreakBridged, 0},
		{"one missed day without freeze", 0, day(2), 1, StreakReset, 0},
		{"two missed days with freeze", 2, day(3), 1, StreakReset, 2},
		{"older than last counted day", 0, day(-3), 4, StreakUnchanged, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base.Clone()
			p.StreakFreezes = tt.freezes
			next, change := e.RecordActivityChange(p, tt.at)
			assert.Equal(t, tt.wantCount, next.StreakCount)
			assert.Equal(t, tt.wantChange, change)
			assert.Equal(t, tt.wantFrz, next.StreakFreezes)
			assert.Equal(t, 4, p.StreakCount, "input must not change")
		})
	}
}

func TestFirstActivityStartsStreak(t *testing.T) {
	e := newTestEngine()
	next, change := e.RecordActivityChange(e.NewProfile("u"), t0)
	assert.Equal(t, StreakStarted, change)
	assert.Equal(t, 1, next.StreakCount)
}

func TestScenarioFreezeBridgesMissedDay(t *testing.T) {
	e := newTestEngine()
	p := e.NewProfile("u")
	p.StreakCount = 6
	p.StreakFreezes = 1
	p.LastActivityDate = model.DateOf(day(0), time.UTC)

	next, _, res := e.ScoreAttempt(p, Session{}, correct("q", day(2)))
	assert.Equal(t, 6, next.StreakCount)
	assert.Zero(t, next.StreakFreezes)
	assert.True(t, res.FreezeConsumed)
	assert.Equal(t, StreakBridged, res.StreakChange)
	assert.Equal(t, model.DateOf(day(2), time.UTC), next.LastActivityDate)

	// The following day extends the bridged streak.
	next, _, res = e.ScoreAttempt(next, Session{}, correct("q", day(3)))
	assert.Equal(t, 7, next.StreakCount)
	assert.Equal(t, StreakExtended, res.StreakChange)
	assert.Contains(t, res.Celebrations, CelebrateDailyStreak)
}

func TestScenarioManualFreezeThenReturn(t *testing.T) {
	e := newTestEngine()
	p := e.NewProfile("u")
	p.StreakCount = 3
	p.StreakFreezes = 1
	p.LastActivityDate = model.DateOf(day(0), time.UTC)

	// The learner knows they will miss tomorrow and freezes it.
	p, err := e.UseStreakFreeze(p, day(1))
	require.NoError(t, err)
	assert.Zero(t, p.StreakFreezes)
	assert.Equal(t, model.DateOf(day(1), time.UTC), p.FreezeProtectedDate)

	next, change := e.RecordActivityChange(p, day(2))
	assert.Equal(t, StreakBridged, change)
	assert.Equal(t, 3, next.StreakCount)
	assert.Zero(t, next.StreakFreezes, "an already protected day costs nothing more")
}

func TestScenarioFreezeOnReturnDay(t *testing.T) {
	e := newTestEngine()
	for _, freezes := range []int{1, 2} {
		p := e.NewProfile("u")
		p.StreakCount = 6
		p.StreakFreezes = freezes
		p.LastActivityDate = model.DateOf(day(0), time.UTC)

		// The learner missed yesterday and protects today before practicing.
		p, err := e.UseStreakFreeze(p, day(2))
		require.NoError(t, err)

		next, change := e.RecordActivityChange(p, day(2))
		assert.Equal(t, StreakBridged, change, "freezes=%d", freezes)
		assert.Equal(t, 6, next.StreakCount, "freezes=%d", freezes)
		assert.Equal(t, freezes-1, next.StreakFreezes, "one freeze per gap, freezes=%d", freezes)
		assert.Equal(t, model.DateOf(day(2), time.UTC), next.LastActivityDate)
	}
}

func TestUseStreakFreezeErrors(t *testing.T) {
	e := newTestEngine()
	p := e.NewProfile("u")

	_, err := e.UseStreakFreeze(p, t0)
	assert.ErrorIs(t, err, ErrNoFreezesAvailable)

	p.StreakFreezes = 2
	p, err = e.UseStreakFreeze(p, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, p.StreakFreezes)

	same, err := e.UseStreakFreeze(p, t0.Add(time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyProtectedToday)
	assert.Equal(t, 1, same.StreakFreezes)

	p.StreakFreezes = 0
	_, err = e.UseStreakFreeze(p, t0.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyProtectedToday, "protection is reported before inventory")
}

func TestStreakUsesLearnerTimezone(t *testing.T) {
	e := newTestEngine()
	p := e.NewProfile("u")
	p.Timezone = "America/Los_Angeles"

	// 20:00 and 23:30 local on the same day straddle UTC midnight.
	first := time.Date(2026, time.March, 3, 4, 0, 0, 0, time.UTC)
	second := time.Date(2026, time.March, 3, 7, 30, 0, 0, time.UTC)

	p = e.RecordActivity(p, first)
	p, change := e.RecordActivityChange(p, second)
	assert.Equal(t, StreakUnchanged, change)
	assert.Equal(t, 1, p.StreakCount)
	assert.Equal(t, model.Date{Year: 2026, Month: time.March, Day: 2}, p.LastActivityDate)
}

// Over any sequence of active days, the streak equals the length of the
// trailing run where each gap is one day or a two-day gap paid by a freeze.
func TestStreakContinuityProperty(t *testing.T) {
	e := newTestEngine()
	gaps := []int{1, 1, 2, 1, 3, 1, 1, 2, 2, 1, 0, 1, 4, 1}

	p := e.NewProfile("u")
	p.StreakFreezes = 2
	p = e.RecordActivity(p, day(0))
	want, freezes, offset := 1, 2, 0
	for _, g := range gaps {
		offset += g
		switch {
		case g == 0:
		case g == 1:
			want++
		case g == 2 && freezes > 0:
			freezes--
		default:
			want = 1
		}
		p = e.RecordActivity(p, day(offset))
		require.Equal(t, want, p.StreakCount, "after gap %d at offset %d", g, offset)
		require.Equal(t, freezes, p.StreakFreezes)
	}
}

func TestGrantFreezes(t *testing.T) {
	e := newTestEngine()
	p := e.NewProfile("u")
	assert.Equal(t, 3, e.GrantFreezes(p, 3).StreakFreezes)
	assert.Zero(t, e.GrantFreezes(p, -1).StreakFreezes)
}
