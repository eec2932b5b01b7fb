package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"smartclaim/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	// RoleAgent may run batch imports and load customer records.
	RoleAgent Role = "agent"
)

// Capability is what a verified token grants. It is created at session
// start and stops verifying once revoked at logout.
type Capability struct {
	TokenID   string    `json:"token_id"`
	Owner     string    `json:"owner_key"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c Capability) CanImport() bool { return c.Role == RoleAgent }

type claims struct {
	Owner string `json:"owner"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs HS256 capability tokens and remembers revocations until the
// token would have expired anyway.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// Issue mints a token for owner. An empty owner gets a fresh guest key.
func (i *Issuer) Issue(owner string, role Role) (string, Capability, error) {
	if strings.TrimSpace(owner) == "" {
		owner = "guest-" + uuid.NewString()
	}
	now := i.now()
	c := Capability{
		TokenID:   uuid.NewString(),
		Owner:     owner,
		Role:      role,
		ExpiresAt: now.Add(i.ttl).Truncate(time.Second),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Owner: owner,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        c.TokenID,
			Subject:   owner,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	})
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", Capability{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, c, nil
}

// Verify returns the capability behind a token. Every failure wraps
// util.ErrUnauthorized.
func (i *Issuer) Verify(token string) (Capability, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return Capability{}, fmt.Errorf("%w: %v", util.ErrUnauthorized, err)
	}
	cl, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || cl.ID == "" || cl.Owner == "" {
		return Capability{}, fmt.Errorf("%w: invalid token claims", util.ErrUnauthorized)
	}
	if i.isRevoked(cl.ID) {
		return Capability{}, fmt.Errorf("%w: token revoked", util.ErrUnauthorized)
	}
	c := Capability{TokenID: cl.ID, Owner: cl.Owner, Role: cl.Role}
	if cl.ExpiresAt != nil {
		c.ExpiresAt = cl.ExpiresAt.Time
	}
	return c, nil
}

func (i *Issuer) Revoke(c Capability) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.revoked[c.TokenID] = c.ExpiresAt
	now := i.now()
	for id, exp := range i.revoked {
		if !exp.IsZero() && now.After(exp) {
			delete(i.revoked, id)
		}
	}
}

func (i *Issuer) isRevoked(id string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.revoked[id]
	return ok
}
