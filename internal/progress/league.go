package progress

import (
	"fmt"

	"github.com/pavelanni/codequest/internal/model"
)

// LeagueOutcome is the per-learner result of a weekly rollover.
type LeagueOutcome string

const (
	Promote LeagueOutcome = "promote"
	Demote  LeagueOutcome = "demote"
	Stay    LeagueOutcome = "stay"
)

// ParseLeagueOutcome converts external input into a LeagueOutcome.
func ParseLeagueOutcome(s string) (LeagueOutcome, error) {
	switch o := LeagueOutcome(s); o {
	case Promote, Demote, Stay:
		return o, nil
	default:
		return "", fmt.Errorf("unknown league outcome %q", s)
	}
}

// ApplyLeagueOutcome moves the learner at most one tier and starts a new
// period. Ranking across learners happens outside the engine.
func (e *Engine) ApplyLeagueOutcome(p model.LearnerProfile, o LeagueOutcome) model.LearnerProfile {
	next := p.Clone()
	if !next.League.Valid() {
		next.League = model.LeagueBronze
	}
	switch o {
	case Promote:
		next.League = next.League.Next()
	case Demote:
		next.League = next.League.Prev()
	}
	next.LeagueXP = 0
	next.UpdatedAt = e.clock.Now()
	return next
}
