// Package league ranks each league cohort at the end of a period and moves
// learners between tiers.
package league

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pavelanni/codequest/internal/model"
	"github.com/pavelanni/codequest/internal/profiles"
	"github.com/pavelanni/codequest/internal/progress"
)

// Entry is one learner's standing in the period being closed.
type Entry struct {
	UserID   string
	League   model.League
	LeagueXP int
}

// EntryOf extracts the ranking fields of a profile. Unknown leagues rank
// with bronze.
func EntryOf(p model.LearnerProfile) Entry {
	l := p.League
	if !l.Valid() {
		l = model.LeagueBronze
	}
	return Entry{UserID: p.UserID, League: l, LeagueXP: p.LeagueXP}
}

// Rank decides every learner's outcome. Within a league the learners are
// ordered by period XP (ties by user id); the top promotionZone are promoted
// and the bottom demotionZone demoted. When a cohort is too small for both
// zones, the demotion zone shrinks first. Learners who earned no XP in the
// period are never promoted.
func Rank(entries []Entry, promotionZone, demotionZone int) map[string]progress.LeagueOutcome {
	cohorts := make(map[model.League][]Entry)
	for _, e := range entries {
		cohorts[e.League] = append(cohorts[e.League], e)
	}

	out := make(map[string]progress.LeagueOutcome, len(entries))
	for l, cohort := range cohorts {
		slices.SortFunc(cohort, func(a, b Entry) int {
			if c := cmp.Compare(b.LeagueXP, a.LeagueXP); c != 0 {
				return c
			}
			return cmp.Compare(a.UserID, b.UserID)
		})

		n := len(cohort)
		promote := min(max(promotionZone, 0), n)
		if l.IsHighest() {
			promote = 0
		}
		demote := min(max(demotionZone, 0), n-promote)
		if l.IsLowest() {
			demote = 0
		}

		for i, e := range cohort {
			switch {
			case i < promote && e.LeagueXP > 0:
				out[e.UserID] = progress.Promote
			case i >= n-demote:
				out[e.UserID] = progress.Demote
			default:
				out[e.UserID] = progress.Stay
			}
		}
	}
	return out
}

// Report summarizes a rollover.
type Report struct {
	Promoted int                               `json:"promoted"`
	Demoted  int                               `json:"demoted"`
	Stayed   int                               `json:"stayed"`
	Outcomes map[string]progress.LeagueOutcome `json:"outcomes"`
}

// Rollover ranks every stored learner and applies the outcomes. Each
// learner is written separately; failures are collected and the rest of
// the cohort is still processed.
func Rollover(ctx context.Context, svc *profiles.Service) (Report, error) {
	list, err := svc.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list profiles: %w", err)
	}

	entries := make([]Entry, 0, len(list))
	for _, p := range list {
		entries = append(entries, EntryOf(p))
	}
	cfg := svc.Engine().Config()
	outcomes := Rank(entries, cfg.PromotionZone, cfg.DemotionZone)

	report := Report{Outcomes: outcomes}
	var errs []error
	for _, e := range entries {
		o := outcomes[e.UserID]
		_, err := svc.Mutate(ctx, e.UserID, func(p model.LearnerProfile) (model.LearnerProfile, error) {
			return svc.Engine().ApplyLeagueOutcome(p, o), nil
		})
		if err != nil {
			slog.Error("league rollover failed", "user_id", e.UserID, "outcome", o, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", e.UserID, err))
			continue
		}
		switch o {
		case progress.Promote:
			report.Promoted++
		case progress.Demote:
			report.Demoted++
		default:
			report.Stayed++
		}
	}
	slog.Info("league rollover complete",
		"promoted", report.Promoted, "demoted", report.Demoted, "stayed", report.Stayed, "failed", len(errs))
	return report, errors.Join(errs...)
}

// MetaLastRollover is the metadata key holding the UTC day of the last rollover.
const MetaLastRollover = "last_league_rollover"

// ErrAlreadyRolledOver is returned when the period was already closed today.
// Running again would demote the bottom of every cohort a second time.
var ErrAlreadyRolledOver = errors.New("league period already rolled over today")

// Ledger records when the last rollover ran.
type Ledger interface {
	GetMetadata(key string) (string, error)
	SetMetadata(key, value string) error
}

// RolloverOnce runs Rollover unless one already ran on the current UTC day;
// force skips that check. The day is recorded as soon as any learner was
// moved, so a partially failed run is not silently repeated.
func RolloverOnce(ctx context.Context, svc *profiles.Service, ledger Ledger, force bool) (Report, error) {
	day := model.DateOf(svc.Engine().Now(), nil).String()
	if !force {
		last, err := ledger.GetMetadata(MetaLastRollover)
		if err != nil {
			return Report{}, fmt.Errorf("read last rollover: %w", err)
		}
		if last == day {
			return Report{}, fmt.Errorf("%w (%s)", ErrAlreadyRolledOver, day)
		}
	}

	report, rollErr := Rollover(ctx, svc)
	if rollErr == nil || report.Promoted+report.Demoted+report.Stayed > 0 {
		if err := ledger.SetMetadata(MetaLastRollover, day); err != nil {
			return report, errors.Join(rollErr, fmt.Errorf("record rollover: %w", err))
		}
	}
	return report, rollErr
}
