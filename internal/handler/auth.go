package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/codequest/internal/model"
)

// requireLearner is middleware that verifies the bearer token issued by the
// identity provider and puts its subject into the request context.
func (h *Handler) requireLearner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			h.unauthorized(w, r, `Bearer realm="codequest"`)
			return
		}
		userID, err := h.identity.Verify(strings.TrimSpace(token))
		if err != nil {
			slog.Debug("rejected learner token", "error", err)
			h.unauthorized(w, r, `Bearer realm="codequest", error="invalid_token"`)
			return
		}
		ctx := model.ContextWithLearnerID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireOperator is middleware that checks HTTP basic credentials against
// the operator accounts.
func (h *Handler) requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			h.unauthorized(w, r, `Basic realm="codequest admin"`)
			return
		}

		user, err := h.users.GetUserByUsername(username)
		if err != nil {
			slog.Error("failed to get user", "error", err)
			writeStatus(w, r, http.StatusInternalServerError, "internal", "ErrInternal")
			return
		}
		if user == nil || !user.Active {
			h.unauthorized(w, r, `Basic realm="codequest admin"`)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			slog.Warn("operator login failed", "username", username)
			h.unauthorized(w, r, `Basic realm="codequest admin"`)
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole returns middleware that checks the user has one of the allowed roles.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				writeStatus(w, r, http.StatusUnauthorized, "unauthorized", "ErrUnauthorized")
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeStatus(w, r, http.StatusForbidden, "forbidden", "ErrForbidden")
		})
	}
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request, challenge string) {
	w.Header().Set("WWW-Authenticate", challenge)
	writeStatus(w, r, http.StatusUnauthorized, "unauthorized", "ErrUnauthorized")
}
