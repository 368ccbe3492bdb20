package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/pavelanni/codequest/internal/i18n"
	"github.com/pavelanni/codequest/internal/model"
	"github.com/pavelanni/codequest/internal/progress"
)

type attemptRequest struct {
	ItemID  string            `json:"item_id" validate:"required,max=200"`
	Kind    progress.ItemKind `json:"kind" validate:"omitempty,oneof=problem question"`
	Outcome progress.Outcome  `json:"outcome" validate:"required,oneof=correct incorrect skipped"`
	Session progress.Session  `json:"session"`
}

type attemptResponse struct {
	Profile  model.LearnerProfile `json:"profile"`
	Session  progress.Session     `json:"session"`
	Result   progress.ScoreResult `json:"result"`
	Messages []string             `json:"messages,omitempty"`
}

type timezoneRequest struct {
	Timezone string `json:"timezone" validate:"omitempty,timezone"`
}

type markRequest struct {
	Starred bool   `json:"starred"`
	Notes   string `json:"notes" validate:"max=4000"`
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), model.LearnerIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleAttempt(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Kind == "" {
		req.Kind = progress.KindProblem
	}
	if req.Kind == progress.KindProblem {
		if _, ok := h.problems[req.ItemID]; !ok {
			writeError(w, r, errUnknownProblem)
			return
		}
	}

	engine := h.svc.Engine()
	attempt := progress.Attempt{
		ItemID:    req.ItemID,
		Kind:      req.Kind,
		Outcome:   req.Outcome,
		Timestamp: engine.Now(),
	}

	var (
		sess progress.Session
		res  progress.ScoreResult
	)
	p, err := h.svc.Mutate(r.Context(), model.LearnerIDFromContext(r.Context()), func(p model.LearnerProfile) (model.LearnerProfile, error) {
		if h.config.EnforceHearts {
			if err := engine.CheckHearts(p); err != nil {
				return p, err
			}
		}
		var next model.LearnerProfile
		next, sess, res = engine.ScoreAttempt(p, req.Session, attempt)
		return next, nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, attemptResponse{
		Profile:  p,
		Session:  sess,
		Result:   res,
		Messages: resultMessages(r.Context(), req.Outcome, res),
	})
}

// resultMessages localizes what a scored attempt is worth telling the learner.
func resultMessages(ctx context.Context, o progress.Outcome, res progress.ScoreResult) []string {
	var msgs []string
	if res.XPAwarded > 0 {
		msgs = append(msgs, appI18n.Td(ctx, "XPAwarded", map[string]any{"XP": res.XPAwarded}))
	}
	if o == progress.OutcomeIncorrect {
		msgs = append(msgs, appI18n.Tp(ctx, "HeartsRemaining", res.HeartsRemaining))
	}
	if res.StreakChange == progress.StreakBridged {
		msgs = append(msgs, appI18n.T(ctx, "StreakBridged"))
	}
	for _, c := range res.Celebrations {
		switch c {
		case progress.CelebrateStreak3:
			msgs = append(msgs, appI18n.T(ctx, "CelebrationStreak3"))
		case progress.CelebrateStreak5:
			msgs = append(msgs, appI18n.T(ctx, "CelebrationStreak5"))
		case progress.CelebrateStreak10:
			msgs = append(msgs, appI18n.T(ctx, "CelebrationStreak10"))
		case progress.CelebratePerfectSession:
			msgs = append(msgs, appI18n.T(ctx, "CelebrationPerfectSession"))
		case progress.CelebrateDailyStreak:
			msgs = append(msgs, appI18n.Tp(ctx, "CelebrationDailyStreak", res.StreakCount))
		}
	}
	return msgs
}

func (h *Handler) handleUseFreeze(w http.ResponseWriter, r *http.Request) {
	engine := h.svc.Engine()
	p, err := h.svc.Mutate(r.Context(), model.LearnerIDFromContext(r.Context()), func(p model.LearnerProfile) (model.LearnerProfile, error) {
		return engine.UseStreakFreeze(p, engine.Now())
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handlePractice(w http.ResponseWriter, r *http.Request) {
	engine := h.svc.Engine()
	p, err := h.svc.Mutate(r.Context(), model.LearnerIDFromContext(r.Context()), func(p model.LearnerProfile) (model.LearnerProfile, error) {
		return engine.RestoreHearts(p, h.config.PracticeHearts), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleSetTimezone(w http.ResponseWriter, r *http.Request) {
	var req timezoneRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	engine := h.svc.Engine()
	p, err := h.svc.Mutate(r.Context(), model.LearnerIDFromContext(r.Context()), func(p model.LearnerProfile) (model.LearnerProfile, error) {
		return engine.SetTimezone(p, req.Timezone)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUnits(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), model.LearnerIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress.DeriveUnits(h.catalog, p.Attempts))
}

func (h *Handler) handleProblems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := model.LearnerIDFromContext(ctx)
	p, err := h.svc.Get(ctx, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	marks, err := h.svc.Marks(ctx, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress.ProblemStates(h.catalog, p.Attempts, marks))
}

func (h *Handler) handleSetMark(w http.ResponseWriter, r *http.Request) {
	problemID := chi.URLParam(r, "problemID")
	if _, ok := h.problems[problemID]; !ok {
		writeError(w, r, errUnknownProblem)
		return
	}
	var req markRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m := model.ProblemMark{Starred: req.Starred, Notes: req.Notes}
	if err := h.svc.SetMark(r.Context(), model.LearnerIDFromContext(r.Context()), problemID, m); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
