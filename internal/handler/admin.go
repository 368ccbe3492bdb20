package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/codequest/internal/league"
	"github.com/pavelanni/codequest/internal/model"
	"github.com/pavelanni/codequest/internal/profiles"
	"github.com/pavelanni/codequest/internal/progress"
)

type leagueRequest struct {
	Outcome progress.LeagueOutcome `json:"outcome" validate:"required,oneof=promote demote stay"`
}

type freezesRequest struct {
	Count int `json:"count" validate:"required,gte=1,lte=100"`
}

type rolloverResponse struct {
	league.Report
	Errors string `json:"errors,omitempty"`
}

func (h *Handler) handleListLearners(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []model.LearnerProfile{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetLearner(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if p.Version == 0 {
		writeError(w, r, progress.ErrProfileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleRollover(w http.ResponseWriter, r *http.Request) {
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: force: %v", errBadRequest, err))
			return
		}
		force = b
	}

	report, err := league.RolloverOnce(r.Context(), h.svc, h.users, force)
	if errors.Is(err, league.ErrAlreadyRolledOver) {
		writeError(w, r, err)
		return
	}
	if err != nil {
		// Learners that were written keep their new standing.
		writeJSON(w, http.StatusInternalServerError, rolloverResponse{Report: report, Errors: err.Error()})
		return
	}

	user := model.UserFromContext(r.Context())
	slog.Info("league rollover requested", "by", user.Username, "forced", force)
	writeJSON(w, http.StatusOK, rolloverResponse{Report: report})
}

// mutateExisting is Mutate for admin transitions, which never create a learner.
func (h *Handler) mutateExisting(r *http.Request, fn profiles.MutateFunc) (model.LearnerProfile, error) {
	return h.svc.Mutate(r.Context(), chi.URLParam(r, "userID"), func(p model.LearnerProfile) (model.LearnerProfile, error) {
		if p.Version == 0 {
			return p, progress.ErrProfileNotFound
		}
		return fn(p)
	})
}

func (h *Handler) handleLeagueOutcome(w http.ResponseWriter, r *http.Request) {
	var req leagueRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	engine := h.svc.Engine()
	p, err := h.mutateExisting(r, func(p model.LearnerProfile) (model.LearnerProfile, error) {
		return engine.ApplyLeagueOutcome(p, req.Outcome), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleResetXP(w http.ResponseWriter, r *http.Request) {
	engine := h.svc.Engine()
	p, err := h.mutateExisting(r, func(p model.LearnerProfile) (model.LearnerProfile, error) {
		return engine.ResetXP(p), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("learner XP reset", "user_id", p.UserID, "by", model.UserFromContext(r.Context()).Username)
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleGrantFreezes(w http.ResponseWriter, r *http.Request) {
	var req freezesRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	engine := h.svc.Engine()
	p, err := h.mutateExisting(r, func(p model.LearnerProfile) (model.LearnerProfile, error) {
		return engine.GrantFreezes(p, req.Count), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
