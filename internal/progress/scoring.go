package progress

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/codequest/internal/model"
)

// Outcome is the result of answering one problem or question.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeSkipped   Outcome = "skipped"
)

// ItemKind distinguishes catalog problems, which leave a history record,
// from ephemeral quiz questions, which do not.
type ItemKind string

const (
	KindProblem  ItemKind = "problem"
	KindQuestion ItemKind = "question"
)

// Attempt is one answered problem or question.
type Attempt struct {
	ItemID    string
	Kind      ItemKind
	Outcome   Outcome
	Timestamp time.Time
}

// Session is the transient state of one quiz or lesson sitting. It is owned
// by the caller and never stored in the profile.
type Session struct {
	ID        string `json:"id"`
	Planned   int    `json:"planned" validate:"gte=0"` // questions in the sitting, 0 if open-ended
	Correct   int    `json:"correct" validate:"gte=0"`
	Incorrect int    `json:"incorrect" validate:"gte=0"`
	Skipped   int    `json:"skipped" validate:"gte=0"`
	Streak    int    `json:"streak" validate:"gte=0"` // consecutive correct answers in this sitting
}

// Answered returns the number of answers recorded in the session.
func (s Session) Answered() int {
	return s.Correct + s.Incorrect + s.Skipped
}

// Celebration names an informational milestone for the UI.
type Celebration string

const (
	CelebrateStreak3        Celebration = "streak_3"
	CelebrateStreak5        Celebration = "streak_5"
	CelebrateStreak10       Celebration = "streak_10"
	CelebratePerfectSession Celebration = "perfect_session"
	CelebrateDailyStreak    Celebration = "daily_streak"
)

// SessionMilestones are the in-session streak lengths worth celebrating.
var SessionMilestones = map[int]Celebration{
	3:  CelebrateStreak3,
	5:  CelebrateStreak5,
	10: CelebrateStreak10,
}

// ScoreResult reports what a single scored attempt changed.
type ScoreResult struct {
	XPAwarded       int           `json:"xp_awarded"`
	HeartsRemaining int           `json:"hearts_remaining"`
	InSessionStreak int           `json:"in_session_streak"`
	StreakCount     int           `json:"streak_count"`
	StreakChange    StreakChange  `json:"streak_change,omitempty"`
	FreezeConsumed  bool          `json:"freeze_consumed"`
	HeartsExhausted bool          `json:"hearts_exhausted"`
	Celebrations    []Celebration `json:"celebrations,omitempty"`
}

// AwardFor returns the XP for an outcome given the in-session streak before
// the answer. Incorrect and skipped answers award nothing.
func (e *Engine) AwardFor(o Outcome, priorStreak int) int {
	if o != OutcomeCorrect {
		return 0
	}
	if priorStreak+1 >= e.cfg.BonusStreak {
		return e.cfg.BonusXP
	}
	return e.cfg.BaseXP
}

// CheckHearts returns ErrHeartsExhausted when the learner has no hearts left.
// The gate is advisory; ScoreAttempt does not call it.
func (e *Engine) CheckHearts(p model.LearnerProfile) error {
	if p.Hearts <= 0 {
		return ErrHeartsExhausted
	}
	return nil
}

// ScoreAttempt applies one answered attempt to the profile and session.
// The same item may be scored repeatedly; each call is a new attempt.
func (e *Engine) ScoreAttempt(p model.LearnerProfile, s Session, a Attempt) (model.LearnerProfile, Session, ScoreResult) {
	next := p.Clone()
	var res ScoreResult

	switch a.Outcome {
	case OutcomeCorrect:
		award := e.AwardFor(a.Outcome, s.Streak)
		s.Streak++
		s.Correct++
		next.XP += award
		next.LeagueXP += award
		res.XPAwarded = award
		if a.Kind == KindProblem {
			next.Attempts = appendAttempt(next.Attempts, a, model.AttemptSolved)
		}

		freezesBefore := next.StreakFreezes
		var change StreakChange
		next, change = e.recordActivity(next, a.Timestamp)
		res.StreakChange = change
		res.FreezeConsumed = next.StreakFreezes < freezesBefore

		if c, ok := SessionMilestones[s.Streak]; ok {
			res.Celebrations = append(res.Celebrations, c)
		}
		if change == StreakExtended {
			res.Celebrations = append(res.Celebrations, CelebrateDailyStreak)
		}

	case OutcomeIncorrect:
		if next.Hearts > 0 {
			next.Hearts--
		}
		s.Streak = 0
		s.Incorrect++
		if a.Kind == KindProblem {
			next.Attempts = appendAttempt(next.Attempts, a, model.AttemptFailed)
		}

	case OutcomeSkipped:
		s.Skipped++
		if a.Kind == KindProblem {
			next.Attempts = appendAttempt(next.Attempts, a, model.AttemptAttempted)
		}
	}

	if s.Planned > 0 && s.Answered() == s.Planned && s.Correct == s.Planned {
		res.Celebrations = append(res.Celebrations, CelebratePerfectSession)
	}

	next.UpdatedAt = a.Timestamp
	res.HeartsRemaining = next.Hearts
	res.HeartsExhausted = next.Hearts == 0
	res.InSessionStreak = s.Streak
	res.StreakCount = next.StreakCount
	return next, s, res
}

func appendAttempt(history []model.AttemptRecord, a Attempt, outcome model.AttemptOutcome) []model.AttemptRecord {
	return append(history, model.AttemptRecord{
		ID:        uuid.NewString(),
		ProblemID: a.ItemID,
		Timestamp: a.Timestamp.UTC(),
		Outcome:   outcome,
	})
}

// RestoreHearts adds n hearts earned through practice, capped at MaxHearts.
func (e *Engine) RestoreHearts(p model.LearnerProfile, n int) model.LearnerProfile {
	next := p.Clone()
	if n <= 0 {
		return next
	}
	next.Hearts += n
	if next.Hearts > e.cfg.MaxHearts {
		next.Hearts = e.cfg.MaxHearts
	}
	next.UpdatedAt = e.clock.Now()
	return next
}

// ClampHearts brings hearts back into [0, MaxHearts], for profiles stored
// under an older, higher cap.
func (e *Engine) ClampHearts(p model.LearnerProfile) model.LearnerProfile {
	switch {
	case p.Hearts > e.cfg.MaxHearts:
		p.Hearts = e.cfg.MaxHearts
	case p.Hearts < 0:
		p.Hearts = 0
	}
	return p
}

// ResetXP is the administrative reset; it is the only transition that lowers XP.
func (e *Engine) ResetXP(p model.LearnerProfile) model.LearnerProfile {
	next := p.Clone()
	next.XP = 0
	next.LeagueXP = 0
	next.UpdatedAt = e.clock.Now()
	return next
}

// SetTimezone changes the learner's calendar timezone.
func (e *Engine) SetTimezone(p model.LearnerProfile, tz string) (model.LearnerProfile, error) {
	if tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return p, fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
		}
	}
	next := p.Clone()
	next.Timezone = tz
	next.UpdatedAt = e.clock.Now()
	return next, nil
}
