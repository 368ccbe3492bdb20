package progress

import (
	"time"

	"github.com/pavelanni/codequest/internal/model"
)

// StreakChange describes what a qualifying activity did to the daily streak.
type StreakChange string

const (
	StreakUnchanged StreakChange = "unchanged" // already counted today
	StreakStarted   StreakChange = "started"   // first-ever activity
	StreakExtended  StreakChange = "extended"  // consecutive day
	StreakBridged   StreakChange = "bridged"   // one missed day covered by a freeze
	StreakReset     StreakChange = "reset"     // gap too long, new streak of 1
)

// RecordActivity registers a qualifying completion at ts and maintains the
// daily streak in the learner's timezone.
func (e *Engine) RecordActivity(p model.LearnerProfile, ts time.Time) model.LearnerProfile {
	next, _ := e.recordActivity(p.Clone(), ts)
	return next
}

// RecordActivityChange is RecordActivity that also reports what happened.
func (e *Engine) RecordActivityChange(p model.LearnerProfile, ts time.Time) (model.LearnerProfile, StreakChange) {
	return e.recordActivity(p.Clone(), ts)
}

// recordActivity mutates p, which the caller must own.
func (e *Engine) recordActivity(p model.LearnerProfile, ts time.Time) (model.LearnerProfile, StreakChange) {
	day := today(p, ts)
	last := p.LastActivityDate

	if last.IsZero() {
		p.StreakCount = 1
		p.LastActivityDate = day
		return p, StreakStarted
	}

	gap := day.DaysSince(last)
	switch {
	case gap <= 0:
		// Same day, or an event older than the last counted day.
		return p, StreakUnchanged
	case gap == 1:
		p.StreakCount++
		p.LastActivityDate = day
		return p, StreakExtended
	case gap == 2:
		// A freeze already spent on the missed day or on today covers the gap.
		missed := last.AddDays(1)
		if p.FreezeProtectedDate == missed || p.FreezeProtectedDate == day {
			p.LastActivityDate = day
			return p, StreakBridged
		}
		if p.StreakFreezes > 0 {
			p.StreakFreezes--
			p.FreezeProtectedDate = day
			p.LastActivityDate = day
			return p, StreakBridged
		}
	}

	p.StreakCount = 1
	p.LastActivityDate = day
	return p, StreakReset
}

// UseStreakFreeze spends a freeze to protect the learner's current day.
// A day protected automatically by RecordActivity cannot be protected again.
func (e *Engine) UseStreakFreeze(p model.LearnerProfile, now time.Time) (model.LearnerProfile, error) {
	day := today(p, now)
	if p.FreezeProtectedDate == day {
		return p, ErrAlreadyProtectedToday
	}
	if p.StreakFreezes <= 0 {
		return p, ErrNoFreezesAvailable
	}
	next := p.Clone()
	next.StreakFreezes--
	next.FreezeProtectedDate = day
	next.UpdatedAt = now
	return next, nil
}

// GrantFreezes adds n freezes to the learner's inventory.
func (e *Engine) GrantFreezes(p model.LearnerProfile, n int) model.LearnerProfile {
	next := p.Clone()
	if n > 0 {
		next.StreakFreezes += n
		next.UpdatedAt = e.clock.Now()
	}
	return next
}
