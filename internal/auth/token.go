package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/salesapp/sales-management/internal/repo"
)

const (
	// TokenTTL is the normal access-token lifetime.
	TokenTTL = 24 * time.Hour
	// RememberTTL is the remember-me lifetime.
	RememberTTL = 30 * 24 * time.Hour
)

type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// Issuer signs access tokens and mirrors remember-me tokens into session
// records so they can be revoked before their encoded expiry.
type Issuer struct {
	Secret []byte
	Repo   *repo.GormRepo

	now func() time.Time
}

func NewIssuer(secret []byte, r *repo.GormRepo) *Issuer {
	return &Issuer{
		Secret: secret,
		Repo:   r,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the issuer clock for deterministic tests.
func (i *Issuer) WithClock(clock func() time.Time) {
	if clock != nil {
		i.now = clock
	}
}

// Issue signs a token for the principal. When remember is set, the token
// also gets a session record whose expiry equals the token's own, never
// beyond it.
func (i *Issuer) Issue(ctx context.Context, p *Principal, remember bool) (string, time.Time, error) {
	ttl := TokenTTL
	if remember {
		ttl = RememberTTL
	}

	issuedAt := i.now()
	expiresAt := issuedAt.Add(ttl)

	claims := Claims{
		Username: p.Username,
		Email:    p.Email,
		Role:     p.Role,
		Name:     p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   jwtSubject(p.ID),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, err
	}

	if remember {
		if err := i.Repo.CreateSession(ctx, p.ID, token, expiresAt); err != nil {
			return "", time.Time{}, err
		}
	}

	return token, expiresAt, nil
}

// Parse verifies the signature and expiry of a bearer token. A malformed
// string is an ErrTokenInvalid, never a panic.
func (i *Issuer) Parse(raw string) (*Principal, time.Time, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrTokenInvalid
		}
		return i.Secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, time.Time{}, ErrTokenExpired
		}
		return nil, time.Time{}, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, time.Time{}, ErrTokenInvalid
	}

	id, err := parseSubject(claims.Subject)
	if err != nil {
		return nil, time.Time{}, ErrTokenInvalid
	}
	if claims.ExpiresAt == nil {
		return nil, time.Time{}, ErrTokenInvalid
	}

	p := &Principal{
		ID:       id,
		Username: claims.Username,
		Email:    claims.Email,
		Name:     claims.Name,
		Role:     claims.Role,
	}
	return p, claims.ExpiresAt.Time, nil
}

// Revoke deletes the session record mirroring the token, if any.
func (i *Issuer) Revoke(ctx context.Context, token string) error {
	return i.Repo.DeleteSession(ctx, token)
}
