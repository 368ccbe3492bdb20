// Package progress is the learner progress engine: attempt scoring, hearts,
// daily streaks, streak freezes, league standing and lesson unlock
// derivation. Every transition takes a profile value and returns a new one;
// nothing here performs I/O or keeps state between calls.
package progress

import (
	"time"

	"github.com/pavelanni/codequest/internal/model"
)

// Engine applies progress transitions using a fixed Config.
type Engine struct {
	cfg   Config
	clock Clock
}

// New creates an Engine. A nil clock means the system clock.
func New(cfg Config, clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{cfg: cfg, clock: clock}
}

// Config returns the engine's tunables.
func (e *Engine) Config() Config {
	return e.cfg
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// NewProfile returns the default profile for a first-time learner.
func (e *Engine) NewProfile(userID string) model.LearnerProfile {
	return model.NewProfile(userID, e.cfg.MaxHearts, e.clock.Now())
}

// today returns the learner's calendar day for ts.
func today(p model.LearnerProfile, ts time.Time) model.Date {
	return model.DateOf(ts, p.Location())
}
