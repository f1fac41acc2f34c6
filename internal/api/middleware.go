package api

import (
	"context"
	"net/http"
	"strings"

	"smsrelay/internal/auth"
	"smsrelay/internal/model"
)

type contextKey string

const identityKey contextKey = "identity"

func identityFrom(ctx context.Context) auth.Identity {
	ident, _ := ctx.Value(identityKey).(auth.Identity)
	return ident
}

// requireAuth verifies the Bearer token and stores the asserted identity
// on the request context.
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "no token provided"})
			return
		}

		ident, err := h.tokens.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid token"})
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), identityKey, ident)))
	}
}

// requireAdmin gates dispatcher and queue-admin endpoints.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return h.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		if identityFrom(r.Context()).Role != model.RoleAdmin {
			writeJSON(w, http.StatusForbidden, map[string]any{"error": "admin access required"})
			return
		}
		next(w, r)
	})
}
