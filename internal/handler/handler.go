package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/codequest/internal/model"
	"github.com/pavelanni/codequest/internal/profiles"
	"github.com/pavelanni/codequest/internal/validate"
)

// Config holds the API's policy switches.
type Config struct {
	// EnforceHearts rejects attempts with 403 while the learner has no
	// hearts left. When false the hearts gate is advisory only.
	EnforceHearts bool
	// PracticeHearts is how many hearts one practice round restores.
	PracticeHearts int
}

// Users is the operator account and metadata storage the admin API needs.
type Users interface {
	GetUserByUsername(username string) (*model.User, error)
	GetMetadata(key string) (string, error)
	SetMetadata(key, value string) error
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	svc      *profiles.Service
	users    Users
	identity *Identity
	validate *validate.Validator
	config   Config

	catalog  []model.Problem
	problems map[string]model.Problem
}

// New creates a new Handler serving the given problem catalog.
func New(svc *profiles.Service, users Users, identity *Identity, catalog []model.Problem, cfg Config) (*Handler, error) {
	if svc == nil || users == nil || identity == nil {
		return nil, errors.New("handler: service, users and identity are required")
	}
	v, err := validate.Default()
	if err != nil {
		return nil, fmt.Errorf("init validator: %w", err)
	}
	if cfg.PracticeHearts <= 0 {
		cfg.PracticeHearts = 1
	}
	idx := make(map[string]model.Problem, len(catalog))
	for _, p := range catalog {
		idx[p.ID] = p
	}
	return &Handler{
		svc:      svc,
		users:    users,
		identity: identity,
		validate: v,
		config:   cfg,
		catalog:  catalog,
		problems: idx,
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.requireLearner)
		r.Get("/profile", h.handleGetProfile)
		r.Put("/profile/timezone", h.handleSetTimezone)
		r.Post("/attempts", h.handleAttempt)
		r.Post("/streak/freeze", h.handleUseFreeze)
		r.Post("/hearts/practice", h.handlePractice)
		r.Get("/units", h.handleUnits)
		r.Get("/problems", h.handleProblems)
		r.Put("/problems/{problemID}/mark", h.handleSetMark)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireOperator)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin, model.UserRoleOperator))
			r.Get("/learners", h.handleListLearners)
			r.Get("/learners/{userID}", h.handleGetLearner)
			r.Get("/export", h.handleExport)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Post("/leagues/rollover", h.handleRollover)
			r.Post("/learners/{userID}/league", h.handleLeagueOutcome)
			r.Post("/learners/{userID}/reset-xp", h.handleResetXP)
			r.Post("/learners/{userID}/freezes", h.handleGrantFreezes)
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
