package model

import (
	"context"
	"fmt"
	"time"
)

// UserRole represents an operator's access level.
type UserRole string

const (
	// UserRoleAdmin may run league rollovers and administrative resets.
	UserRoleAdmin UserRole = "admin"
	// UserRoleOperator may read learner data but not change it.
	UserRoleOperator UserRole = "operator"
)

// User is an operator account for the admin API. Learners are not users:
// they are identified by the identity provider's subject.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

type userCtxKey struct{}

// ContextWithUser stores an operator in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated operator from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type learnerCtxKey struct{}

// ContextWithLearnerID stores the verified learner id in context.
func ContextWithLearnerID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, learnerCtxKey{}, userID)
}

// LearnerIDFromContext returns the verified learner id (empty if not set).
func LearnerIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(learnerCtxKey{}).(string)
	return id
}

// DefaultMaxHearts is the heart cap for new profiles.
const DefaultMaxHearts = 5

// League is a weekly competitive tier.
type League string

const (
	LeagueBronze   League = "bronze"
	LeagueSilver   League = "silver"
	LeagueGold     League = "gold"
	LeagueSapphire League = "sapphire"
	LeagueRuby     League = "ruby"
	LeagueEmerald  League = "emerald"
	LeagueAmethyst League = "amethyst"
	LeaguePearl    League = "pearl"
	LeagueObsidian League = "obsidian"
	LeagueDiamond  League = "diamond"
)

var leagueOrder = []League{
	LeagueBronze, LeagueSilver, LeagueGold, LeagueSapphire, LeagueRuby,
	LeagueEmerald, LeagueAmethyst, LeaguePearl, LeagueObsidian, LeagueDiamond,
}

// AllLeagues returns all leagues from lowest to highest.
func AllLeagues() []League {
	out := make([]League, len(leagueOrder))
	copy(out, leagueOrder)
	return out
}

// Rank returns the zero-based tier index, or -1 for an unknown league.
func (l League) Rank() int {
	for i, x := range leagueOrder {
		if x == l {
			return i
		}
	}
	return -1
}

// Valid reports whether l is one of the known leagues.
func (l League) Valid() bool {
	return l.Rank() >= 0
}

// Next returns the league one tier up, capped at the highest tier.
func (l League) Next() League {
	r := l.Rank()
	if r < 0 {
		return LeagueBronze
	}
	if r == len(leagueOrder)-1 {
		return l
	}
	return leagueOrder[r+1]
}

// Prev returns the league one tier down, floored at the lowest tier.
func (l League) Prev() League {
	r := l.Rank()
	if r <= 0 {
		return LeagueBronze
	}
	return leagueOrder[r-1]
}

// IsHighest reports whether l is the top tier.
func (l League) IsHighest() bool {
	return l.Rank() == len(leagueOrder)-1
}

// IsLowest reports whether l is the bottom tier.
func (l League) IsLowest() bool {
	return l.Rank() == 0
}

// AttemptOutcome is the stored result of a problem submission.
type AttemptOutcome string

const (
	AttemptSolved    AttemptOutcome = "solved"
	AttemptAttempted AttemptOutcome = "attempted"
	AttemptFailed    AttemptOutcome = "failed"
)

// AttemptRecord is one immutable entry of a learner's problem history.
type AttemptRecord struct {
	ID        string         `json:"id" bson:"id"`
	ProblemID string         `json:"problem_id" bson:"problem_id"`
	Timestamp time.Time      `json:"timestamp" bson:"timestamp"`
	Outcome   AttemptOutcome `json:"outcome" bson:"outcome"`
}

// Date is a timezone-normalized calendar day. The zero Date means "unset".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in loc (UTC when loc is nil).
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string. The empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t, time.UTC), nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days later (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n), time.UTC)
}

// DaysSince returns the number of calendar days from o to d.
func (d Date) DaysSince(o Date) int {
	return int(d.Time().Sub(o.Time()).Hours() / 24)
}

// String formats the date as YYYY-MM-DD, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(time.DateOnly)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// LearnerProfile is the persistent gamification state of one learner.
type LearnerProfile struct {
	UserID              string          `json:"user_id"`
	Hearts              int             `json:"hearts"`
	XP                  int             `json:"xp"`
	StreakCount         int             `json:"streak_count"`
	LastActivityDate    Date            `json:"last_activity_date"`
	StreakFreezes       int             `json:"streak_freezes_available"`
	FreezeProtectedDate Date            `json:"freeze_protected_date"`
	League              League          `json:"league_id"`
	LeagueXP            int             `json:"league_xp_this_period"`
	Timezone            string          `json:"timezone,omitempty"`
	Attempts            []AttemptRecord `json:"attempts"`
	Version             int64           `json:"version"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// NewProfile returns the default profile for a first-time learner.
func NewProfile(userID string, maxHearts int, now time.Time) LearnerProfile {
	if maxHearts <= 0 {
		maxHearts = DefaultMaxHearts
	}
	return LearnerProfile{
		UserID:    userID,
		Hearts:    maxHearts,
		League:    LeagueBronze,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Location returns the learner's configured timezone, falling back to UTC
// when it is unset or unknown.
func (p LearnerProfile) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clone returns a copy that shares no slices with p.
func (p LearnerProfile) Clone() LearnerProfile {
	out := p
	if p.Attempts != nil {
		out.Attempts = make([]AttemptRecord, len(p.Attempts))
		copy(out.Attempts, p.Attempts)
	}
	return out
}

// ProblemMark is the user-set part of a problem's state.
type ProblemMark struct {
	Starred bool   `json:"starred" bson:"starred"`
	Notes   string `json:"notes" bson:"notes"`
}
