package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/salesapp/sales-management/internal/repo"
)

// cacheTTL bounds how long a verified token is reused without re-checking
// the signature and the stored row.
const cacheTTL = 5 * time.Minute

type cacheEntry struct {
	principal Principal
	tokenExp  time.Time
	cachedAt  time.Time
}

// Authenticator resolves a request's principal from a bearer token or a
// server-side session token. A bearer token, when present, is
// authoritative: if it is rejected the request stays unauthenticated and
// never falls back to the session.
type Authenticator struct {
	Issuer *Issuer
	Repo   *repo.GormRepo

	mu    sync.RWMutex
	cache map[string]cacheEntry
	now   func() time.Time
}

func NewAuthenticator(issuer *Issuer, r *repo.GormRepo) *Authenticator {
	return &Authenticator{
		Issuer: issuer,
		Repo:   r,
		cache:  make(map[string]cacheEntry),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the authenticator clock for deterministic tests.
func (a *Authenticator) WithClock(clock func() time.Time) {
	if clock != nil {
		a.now = clock
	}
}

// Authenticate resolves a principal. bearer is the raw Authorization
// token (empty when absent); sessionToken is the server-side session
// identifier (empty when absent).
func (a *Authenticator) Authenticate(ctx context.Context, bearer, sessionToken string) (*Principal, error) {
	if bearer != "" {
		return a.fromBearer(ctx, bearer)
	}
	if sessionToken != "" {
		return a.fromSession(ctx, sessionToken)
	}
	return nil, ErrNoCredential
}

func (a *Authenticator) fromBearer(ctx context.Context, bearer string) (*Principal, error) {
	now := a.now()

	a.mu.RLock()
	entry, ok := a.cache[bearer]
	a.mu.RUnlock()
	// A cached result is reusable only while both the cache TTL and the
	// token's own encoded expiry hold.
	if ok && now.Sub(entry.cachedAt) < cacheTTL && now.Before(entry.tokenExp) {
		p := entry.principal
		return &p, nil
	}

	p, exp, err := a.Issuer.Parse(bearer)
	if err != nil {
		return nil, err
	}

	user, err := a.Repo.FindUserByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactive
	}
	resolved := PrincipalFromUser(user)

	a.mu.Lock()
	a.cache[bearer] = cacheEntry{principal: *resolved, tokenExp: exp, cachedAt: now}
	a.mu.Unlock()

	return resolved, nil
}

func (a *Authenticator) fromSession(ctx context.Context, sessionToken string) (*Principal, error) {
	session, err := a.Repo.FindSession(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNoCredential
		}
		return nil, err
	}
	if !a.now().Before(session.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	user, err := a.Repo.FindUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactive
	}

	return PrincipalFromUser(user), nil
}

// Invalidate drops a token from the verification cache; called on logout
// and password reset so revocation takes effect immediately.
func (a *Authenticator) Invalidate(bearer string) {
	a.mu.Lock()
	delete(a.cache, bearer)
	a.mu.Unlock()
}

// InvalidateUser drops every cached entry belonging to the given
// principal id.
func (a *Authenticator) InvalidateUser(id uint) {
	a.mu.Lock()
	for token, entry := range a.cache {
		if entry.principal.ID == id {
			delete(a.cache, token)
		}
	}
	a.mu.Unlock()
}
