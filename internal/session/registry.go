package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"smartclaim/internal/util"

	"go.uber.org/zap"
)

// Registry maps capability tokens to live sessions.
type Registry struct {
	issuer *Issuer
	deps   Deps
	log    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(issuer *Issuer, deps Deps) *Registry {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{issuer: issuer, deps: deps, log: log, sessions: map[string]*Session{}}
}

func (r *Registry) Issuer() *Issuer { return r.issuer }

// Start issues a token for owner and opens its session.
func (r *Registry) Start(ctx context.Context, owner string, role Role) (string, *Session, error) {
	r.Sweep(ctx)
	token, cap, err := r.issuer.Issue(owner, role)
	if err != nil {
		return "", nil, err
	}
	s, err := Open(ctx, cap, r.deps)
	if err != nil {
		return "", nil, err
	}
	r.mu.Lock()
	r.sessions[cap.TokenID] = s
	r.mu.Unlock()
	r.log.Info("session started", zap.String("owner", cap.Owner), zap.String("role", string(role)))
	return token, s, nil
}

// Resolve verifies a bearer token and returns its session, reopening it
// from the store if this process has not seen the token yet.
func (r *Registry) Resolve(ctx context.Context, token string) (*Session, error) {
	r.Sweep(ctx)
	cap, err := r.issuer.Verify(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	s, ok := r.sessions[cap.TokenID]
	r.mu.Unlock()
	if ok {
		return s, nil
	}

	opened, err := Open(ctx, cap, r.deps)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[cap.TokenID]; ok {
		_ = opened.Close(ctx)
		return s, nil
	}
	r.sessions[cap.TokenID] = opened
	return opened, nil
}

// End revokes the token and closes its session.
func (r *Registry) End(ctx context.Context, token string) error {
	cap, err := r.issuer.Verify(strings.TrimSpace(token))
	if err != nil {
		return err
	}
	r.issuer.Revoke(cap)
	r.mu.Lock()
	s, ok := r.sessions[cap.TokenID]
	delete(r.sessions, cap.TokenID)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	if err := s.Close(ctx); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// Sweep closes and forgets every session whose token has expired and
// returns how many were evicted.
func (r *Registry) Sweep(ctx context.Context) int {
	now := r.issuer.now()
	var expired []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if exp := s.Capability().ExpiresAt; !exp.IsZero() && !now.Before(exp) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		if err := s.Close(ctx); err != nil {
			r.log.Warn("close expired session", zap.String("owner", s.Capability().Owner), zap.Error(err))
		}
	}
	if len(expired) > 0 {
		r.log.Info("expired sessions evicted", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// SweepEvery runs Sweep on a ticker until ctx ends.
func (r *Registry) SweepEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep(ctx)
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll closes every session, e.g. at shutdown.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = map[string]*Session{}
	r.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsUnauthorized reports whether err came from token verification.
func IsUnauthorized(err error) bool {
	return errors.Is(err, util.ErrUnauthorized)
}
