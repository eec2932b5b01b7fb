package api

import (
	"net/http"
	"time"

	"smartclaim/internal/logger"
	"smartclaim/internal/session"

	"go.uber.org/zap"
)

type sessionResponse struct {
	Token     string       `json:"token"`
	OwnerKey  string       `json:"owner_key"`
	Role      session.Role `json:"role"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// handleGuestSession always mints a fresh guest owner; callers keep the
// token to come back to the same documents.
func (s *Server) handleGuestSession(w http.ResponseWriter, r *http.Request) {
	token, sess, err := s.registry.Start(r.Context(), "", session.RoleGuest)
	if err != nil {
		writeFailure(w, err)
		return
	}
	c := sess.Capability()
	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:     token,
		OwnerKey:  c.Owner,
		Role:      c.Role,
		ExpiresAt: c.ExpiresAt,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r.Context()).Flush(r.Context()); err != nil {
		logger.FromContext(r.Context()).Warn("flush before logout failed", zap.Error(err))
	}
	if err := s.registry.End(r.Context(), tokenFrom(r.Context())); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWarnings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"warnings": sessionFrom(r.Context()).Warnings()})
}
